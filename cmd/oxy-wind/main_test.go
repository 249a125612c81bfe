package main

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/config"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPaths(t *testing.T) {
	out, err := execute(t, "paths", "--render-system", wind.RenderSystemMetal)
	require.NoError(t, err)
	assert.Contains(t, out, "syntax:        Metal")
	assert.Contains(t, out, "library:       Hlms/Wind/Any")

	out, err = execute(t, "--log-level", "error", "paths", "--render-system", "Vulkan")
	require.NoError(t, err)
	assert.Contains(t, out, "syntax:        GLSL")

	_, err = execute(t, "paths", "--render-system", "Vulkan", "--strict")
	assert.ErrorIs(t, err, wind.ErrUnsupportedBackend)
}

func TestRoot_BadLogLevel(t *testing.T) {
	_, err := execute(t, "--log-level", "loud", "paths")
	assert.Error(t, err)
}

func TestGenTextures(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "gen-textures", "--out", dir, "--size", "4", "--seed", "7")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, wind.DefaultNoiseTexture))
	assert.FileExists(t, filepath.Join(dir, wind.DefaultNoiseTexture))
	assert.FileExists(t, filepath.Join(dir, wind.DefaultWindFactorTexture))

	_, err = execute(t, "gen-textures", "--out", dir, "--size", "1")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "gen-textures", "--out", dir, "--size", "4")
	require.NoError(t, err)

	cfgPath := filepath.Join(dir, "wind.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf(`
[render]
system = %q

[fog]
start = 5.0
end = 50.0

[wind]
strength = 2.0

[textures]
fallback_on_missing = false

[resources]
General = [%q]

[foliage]
blades = 4
`, wind.RenderSystemGL3Plus, dir)), 0o644))

	out, err := execute(t, "--log-level", "error", "simulate", "--config", cfgPath, "--frames", "2", "--dt", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "render system: "+wind.RenderSystemGL3Plus)
	assert.Contains(t, out, "frame 1: 1 objects, pass buffer 120 bytes")
	assert.Contains(t, out, "fog_params    5 50 0 0")
	assert.Contains(t, out, "wind_strength 2")
	assert.Contains(t, out, "global_time   1\n")
	assert.Contains(t, out, "TextureBind")
	assert.Contains(t, out, "Draw{id=1")
	assert.Contains(t, out, "textures: 2 resident")
}

func TestSimulate_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[fog]\nstart = 9.0\nend = 1.0\n"), 0o644))
	_, err := execute(t, "simulate", "--config", path)
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, err = execute(t, "simulate", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRendererOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Render.System = "custom"
	cfg.Render.PresentMode = config.PresentUncapped
	assert.Len(t, rendererOptions(cfg, nil), 5)
	assert.Equal(t, "custom", renderSystemName(cfg))
	cfg.Render.System = ""
	assert.NotEmpty(t, renderSystemName(cfg))
	assert.Equal(t, renderer.DefaultRenderSystemName("linux"), wind.RenderSystemGL3Plus)
}

func TestFoliageObjects(t *testing.T) {
	cfg := config.Default()
	cfg.Foliage.Blades = 3
	objects, err := foliageObjects(cfg, slog.Default())
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "foliage", objects[0].Name())

	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}))
	doc := fmt.Sprintf(`{
  "asset": {"version": "2.0"},
  "nodes": [{"name": "a", "mesh": 0}, {"name": "b", "mesh": 0, "translation": [2, 0, 0]}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "buffers": [{"uri": "data:application/octet-stream;base64,%s", "byteLength": 36}]
}`, base64.StdEncoding.EncodeToString(buf.Bytes()))
	meshPath := filepath.Join(t.TempDir(), "tufts.gltf")
	require.NoError(t, os.WriteFile(meshPath, []byte(doc), 0o644))

	cfg.Foliage.Mesh = meshPath
	objects, err = foliageObjects(cfg, slog.Default())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "b", objects[1].Name())
	assert.Equal(t, "tufts/default", objects[1].Material().Name())
	assert.InDelta(t, 0.8, objects[1].Material().Roughness(), 1e-6)
	assert.Equal(t, [3]float32{3, 0, 0}, objects[1].Model().Vertices()[1].Position)
}
