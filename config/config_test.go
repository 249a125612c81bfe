package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, wind.DefaultWindStrength, c.Wind.Strength)
	assert.Equal(t, wind.DefaultNoiseTexture, c.Wind.NoiseTexture)
	assert.Len(t, c.WindOptions(), 3)
	assert.Len(t, c.TextureOptions(), 2, "one resource location and the fallback")
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wind.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[render]
system = "OpenGL 3+ Rendering Subsystem"
msaa = 1

[fog]
start = 5.0
end = 25.0
colour = [0.1, 0.2, 0.3]

[wind]
strength = 1.5
reduced = true

[resources]
General = ["a", "b"]
Foliage = ["c"]

[shaders]
root = "media"
watch = true
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, wind.RenderSystemGL3Plus, c.Render.System)
	assert.Equal(t, 1, c.Render.MSAA)
	assert.Equal(t, PresentVSync, c.Render.PresentMode, "keys absent from the file keep the defaults")
	assert.Equal(t, float32(5), c.Fog.Start)
	assert.Equal(t, float32(0.3), c.FogColour().B)
	assert.Equal(t, float32(1), c.FogColour().A)
	assert.True(t, c.Wind.Reduced)
	assert.Len(t, c.WindOptions(), 3)
	assert.Equal(t, []string{"a", "b"}, c.Resources["General"])
	assert.Equal(t, []string{"c"}, c.Resources["Foliage"])
	assert.Len(t, c.TextureOptions(), 4)
	assert.True(t, c.Shaders.Watch)
}

func TestParse_UnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[wind]\nstrenght = 1.0\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strenght")
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte("[wind\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: line")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"fog end before start", func(c *Config) { c.Fog.Start, c.Fog.End = 50, 10 }, "fog.end"},
		{"fog mode", func(c *Config) { c.Fog.Mode = "exp" }, "fog.mode"},
		{"fog colour", func(c *Config) { c.Fog.Colour[1] = 2 }, "fog.colour"},
		{"negative strength", func(c *Config) { c.Wind.Strength = -0.1 }, "wind.strength"},
		{"no noise texture", func(c *Config) { c.Wind.NoiseTexture = "" }, "wind.noise_texture"},
		{"no factor texture", func(c *Config) { c.Wind.FactorTexture = "" }, "wind.factor_texture"},
		{"present mode", func(c *Config) { c.Render.PresentMode = "mailbox" }, "render.present_mode"},
		{"msaa", func(c *Config) { c.Render.MSAA = 8 }, "render.msaa"},
		{"size", func(c *Config) { c.Render.Width = 0 }, "render"},
		{"workers", func(c *Config) { c.Textures.Workers = -1 }, "textures.workers"},
		{"watch without root", func(c *Config) { c.Shaders.Watch = true }, "shaders.watch"},
		{"foliage", func(c *Config) { c.Foliage.Rows = 0 }, "foliage"},
		{"foliage mesh", func(c *Config) { c.Foliage.Mesh = "grass.obj" }, "foliage.mesh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate_ReducedNeedsNoFactorTexture(t *testing.T) {
	c := Default()
	c.Wind.Reduced, c.Wind.FactorTexture = true, ""
	assert.NoError(t, c.Validate())
}

func TestValidate_FogEndEqualToStart(t *testing.T) {
	c := Default()
	c.Fog.Start, c.Fog.End = 20, 20
	assert.NoError(t, c.Validate())
}
