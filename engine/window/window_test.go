package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewEngineWindow_Defaults(t *testing.T) {
	w := newEngineWindow()
	assert.Equal(t, "oxy-wind", w.title)
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.True(t, w.resizable)
	assert.False(t, w.IsRunning(), "no platform window yet")
	assert.ErrorIs(t, w.Close(), ErrNotOpen)
	assert.Nil(t, w.SurfaceDescriptor())
}

func TestNewEngineWindow_SizeIsClampedToLimits(t *testing.T) {
	w := newEngineWindow(WithSize(100, 5000), WithMinSize(320, 240), WithMaxSize(1920, 1080), WithResizable(false))
	assert.Equal(t, 320, w.Width())
	assert.Equal(t, 1080, w.Height())
	assert.False(t, w.resizable)
}

func TestEngineWindow_Callbacks(t *testing.T) {
	w := newEngineWindow()

	var gotKey Key
	var pressed bool
	w.SetKeyCallback(func(k Key, p bool) { gotKey, pressed = k, p })
	w.key(KeyF5, true)
	assert.Equal(t, KeyF5, gotKey)
	assert.True(t, pressed)

	var size [2]int
	w.SetResizeCallback(func(width, height int) { size = [2]int{width, height} })
	w.resize(0, 0)
	assert.Equal(t, [2]int{}, size, "minimised windows are not reported")
	w.resize(800, 600)
	assert.Equal(t, [2]int{800, 600}, size)
	assert.Equal(t, 800, w.Width())
}

func TestKey_String(t *testing.T) {
	assert.Equal(t, "f5", KeyF5.String())
	assert.Equal(t, "unknown", Key(99).String())
}
