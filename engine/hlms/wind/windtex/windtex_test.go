package windtex

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoiseVolume(t *testing.T) {
	v := NoiseVolume(8, 42)
	require.True(t, v.Valid())
	assert.Equal(t, common.Dimension3D, v.Dimension)
	assert.Equal(t, uint32(8), v.Depth)
	assert.Equal(t, v.Pixels, NoiseVolume(8, 42).Pixels, "same seed, same volume")
	assert.NotEqual(t, v.Pixels, NoiseVolume(8, 43).Pixels)

	for i := 3; i < len(v.Pixels); i += 4 {
		require.Equal(t, byte(255), v.Pixels[i])
	}
	assert.Panics(t, func() { NoiseVolume(0, 1) })
}

func TestWindFactor_Gradient(t *testing.T) {
	img := WindFactor(16)
	assert.Equal(t, uint8(255), img.RGBAAt(3, 0).R)
	assert.Equal(t, uint8(0), img.RGBAAt(3, 15).R)
	assert.Greater(t, img.RGBAAt(0, 4).R, img.RGBAAt(0, 8).R)
	assert.Equal(t, uint8(255), WindFactor(1).RGBAAt(0, 0).R)
}

func TestGenerateFiles_DecodeBack(t *testing.T) {
	dir := t.TempDir()
	paths, err := GenerateFiles(dir, "windNoise.dds", "windFactor.png", 4, 7)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	noise, err := texture.DecodeFile(paths[0], texture.Type3D, true)
	require.NoError(t, err)
	assert.Equal(t, NoiseVolume(4, 7).Pixels, noise.Pixels)
	assert.True(t, noise.SRGB)

	factor, err := texture.DecodeFile(paths[1], texture.Type2D, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), factor.Width)
	assert.Equal(t, byte(255), factor.Pixels[0])
}
