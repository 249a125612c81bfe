package camera

// CameraBuilderOption is a function that configures a camera instance during construction.
type CameraBuilderOption func(*cameraImpl)

// WithTarget sets the point the camera orbits and looks at.
//
// Parameters:
//   - x, y, z: the target position
//
// Returns:
//   - CameraBuilderOption: a function that applies the target option to a camera
func WithTarget(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = [3]float32{x, y, z}
	}
}

// WithRadius sets the orbit distance. Values <= 0 are ignored.
//
// Parameters:
//   - radius: the distance from the target
//
// Returns:
//   - CameraBuilderOption: a function that applies the radius option to a camera
func WithRadius(radius float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if radius > 0 {
			c.radius = radius
		}
	}
}

// WithAngles sets the initial azimuth and elevation in radians.
func WithAngles(azimuth, elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.azimuth = azimuth
		c.elevation = min(max(elevation, -maxElevation), maxElevation)
	}
}

// WithFov sets the vertical field of view in radians.
//
// Parameters:
//   - fov: the field of view
//
// Returns:
//   - CameraBuilderOption: a function that applies the fov option to a camera
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets the viewport aspect ratio (width / height).
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping distances.
//
// Parameters:
//   - near: the near plane distance, > 0
//   - far: the far plane distance, > near
//
// Returns:
//   - CameraBuilderOption: a function that applies the clip planes to a camera
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near, c.far = near, far
	}
}
