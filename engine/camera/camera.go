package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu sync.Mutex

	up     [3]float32
	target [3]float32

	radius    float32
	azimuth   float32
	elevation float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	position [3]float32
	viewProj common.Mat4
}

// Camera is an orbit camera: it looks at a target from spherical coordinates around it
// and provides the view-projection matrix and world position each pass is rendered with.
type Camera interface {
	// Position returns the camera's world position.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// Target returns the point the camera looks at.
	//
	// Returns:
	//   - [3]float32: the target
	Target() [3]float32

	// ViewProjectionMatrix returns the combined view-projection matrix (column-major).
	//
	// Returns:
	//   - common.Mat4: the view-projection matrix
	ViewProjectionMatrix() common.Mat4

	// Orbit rotates the camera around its target.
	//
	// Parameters:
	//   - dAzimuth: change of the horizontal angle in radians
	//   - dElevation: change of the vertical angle in radians, clamped just short of the poles
	Orbit(dAzimuth, dElevation float32)

	// Zoom scales the orbit radius.
	//
	// Parameters:
	//   - factor: the scale applied to the radius; values <= 0 are ignored
	Zoom(factor float32)

	// SetAspect sets the viewport aspect ratio (width / height).
	//
	// Parameters:
	//   - aspect: the new aspect ratio
	SetAspect(aspect float32)
}

var _ Camera = &cameraImpl{}

// maxElevation keeps the view direction away from the up vector.
const maxElevation = math32.Pi/2 - 0.01

const minRadius = 0.5

// NewCamera creates an orbit camera configured with the provided options.
// Defaults: radius 10 around the origin, 60 degree field of view, aspect 16:9,
// near 0.1, far 1000.
//
// Parameters:
//   - options: variadic list of CameraBuilderOption functions
//
// Returns:
//   - Camera: a new Camera instance
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		up:        [3]float32{0, 1, 0},
		radius:    10,
		elevation: 0.3,
		fov:       math32.Pi / 3,
		aspect:    16.0 / 9.0,
		near:      0.1,
		far:       1000,
	}
	for _, opt := range options {
		opt(c)
	}
	c.update()
	return c
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) ViewProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

func (c *cameraImpl) Orbit(dAzimuth, dElevation float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.azimuth += dAzimuth
	c.elevation = min(max(c.elevation+dElevation, -maxElevation), maxElevation)
	c.update()
}

func (c *cameraImpl) Zoom(factor float32) {
	if factor <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = max(c.radius*factor, minRadius)
	c.update()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect > 0 {
		c.aspect = aspect
		c.update()
	}
}

// update recomputes the position from spherical coordinates and the matrices from it.
// Caller must hold the mutex (or own c exclusively).
func (c *cameraImpl) update() {
	cosElev, sinElev := math32.Cos(c.elevation), math32.Sin(c.elevation)
	cosAzim, sinAzim := math32.Cos(c.azimuth), math32.Sin(c.azimuth)
	c.position = [3]float32{
		c.target[0] + c.radius*cosElev*sinAzim,
		c.target[1] + c.radius*sinElev,
		c.target[2] + c.radius*cosElev*cosAzim,
	}
	view := common.LookAt(c.position, c.target, c.up)
	proj := common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProj = proj.Mul(view)
}
