package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestNewCamera_OrbitPosition(t *testing.T) {
	c := NewCamera(WithTarget(1, 2, 3), WithRadius(5), WithAngles(0, 0))
	assert.Equal(t, [3]float32{1, 2, 8}, c.Position())
	assert.Equal(t, [3]float32{1, 2, 3}, c.Target())

	c.Orbit(math32.Pi/2, 0)
	p := c.Position()
	assert.InDelta(t, 6, p[0], 1e-5)
	assert.InDelta(t, 3, p[2], 1e-5)
}

func TestCamera_ElevationIsClamped(t *testing.T) {
	c := NewCamera(WithRadius(1), WithAngles(0, 0))
	c.Orbit(0, 10)
	p := c.Position()
	assert.Less(t, p[1], float32(1))
	assert.Greater(t, p[2], float32(0), "the camera never reaches the pole")
}

func TestCamera_ViewProjectionMapsTargetToCentre(t *testing.T) {
	c := NewCamera(WithTarget(0, 0, 0), WithRadius(10), WithAngles(0.4, 0.2))
	m := c.ViewProjectionMatrix()
	// clip = m * (0, 0, 0, 1) is the last column
	x, y, w := m[12], m[13], m[15]
	assert.InDelta(t, 0, x/w, 1e-5)
	assert.InDelta(t, 0, y/w, 1e-5)
	assert.Greater(t, w, float32(0))
}

func TestCamera_Zoom(t *testing.T) {
	c := NewCamera(WithRadius(10), WithAngles(0, 0))
	c.Zoom(0.5)
	assert.InDelta(t, 5, c.Position()[2], 1e-5)
	c.Zoom(0)
	assert.InDelta(t, 5, c.Position()[2], 1e-5, "non-positive factors are ignored")
	c.Zoom(0.001)
	assert.InDelta(t, minRadius, c.Position()[2], 1e-5)
}
