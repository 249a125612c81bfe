package hlms

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRenderable struct {
	mat     material.Material
	skinned bool
	v1      bool
}

func (r testRenderable) Material() material.Material { return r.mat }
func (r testRenderable) Skinned() bool               { return r.skinned }
func (r testRenderable) V1Mesh() bool                { return r.v1 }

type testRenderSystem struct {
	textures texture.Manager
	samplers *sampler.Pool
}

func (rs *testRenderSystem) Name() string                    { return "OpenGL 3+ Rendering Subsystem" }
func (rs *testRenderSystem) TextureManager() texture.Manager { return rs.textures }
func (rs *testRenderSystem) SamplerPool() *sampler.Pool      { return rs.samplers }

// testListener reports size bytes and writes n floats of value v.
type testListener struct {
	size uint32
	n    int
	v    float32
}

func (l testListener) PassBufferSize(*PassContext) uint32 { return l.size }

func (l testListener) PreparePassBuffer(_ *PassContext, dst []float32) []float32 {
	for i := 0; i < l.n; i++ {
		dst[i] = l.v
	}
	return dst[l.n:]
}

type testExtension struct {
	name     string
	slots    uint32
	setupErr error
	calls    *[]string
}

func (e *testExtension) Name() string                 { return e.name }
func (e *testExtension) ReservedTextureSlots() uint32 { return e.slots }

func (e *testExtension) CalculateHashForPreCreate(_ Renderable, props *shader.PropertySet) {
	props.Set(e.name+"_enabled", 1)
}

func (e *testExtension) PropertiesMergedPreGenerationStep(regs *shader.TextureRegisters) {
	regs.Set(shader.ShaderTypeVertex, "tex_"+e.name, FirstExtensionSlot)
}

func (e *testExtension) FillBuffersFor(_ *Cache, _ QueuedRenderable, _ bool, _ uint32, cb *command.Buffer, _ bool) {
	cb.Add(command.TextureBind{Slot: FirstExtensionSlot})
}

func (e *testExtension) Setup(SceneContext) error {
	*e.calls = append(*e.calls, "setup "+e.name)
	return e.setupErr
}

func (e *testExtension) Shutdown(SceneContext) error {
	*e.calls = append(*e.calls, "shutdown "+e.name)
	return nil
}

func newPbs(t *testing.T, options ...HlmsBuilderOption) Hlms {
	t.Helper()
	data, err := media.Sub(media.FS, "Hlms/pbs/GLSL")
	require.NoError(t, err)
	var libs []fs.FS
	for _, dir := range []string{"Hlms/Common/GLSL", "Hlms/Common/Any", "Hlms/Pbs/Any", "Hlms/Pbs/Any/Main"} {
		lib, err := media.Sub(media.FS, dir)
		require.NoError(t, err)
		libs = append(libs, lib)
	}
	h, err := New(TypePbs, "Pbs", data, libs, options...)
	require.NoError(t, err)
	return h
}

func TestPreparePassBuffer_BaseThenListeners(t *testing.T) {
	h := newPbs(t,
		WithPassListener(testListener{size: 8, n: 2, v: 7}),
		WithPassListener(testListener{size: 4, n: 1, v: 9}),
	)
	ctx := &PassContext{ViewProj: common.Identity(), CameraPosition: [3]float32{1, 2, 3}}
	assert.Equal(t, uint32(92), h.PassBufferSize(ctx))

	buf, err := h.PreparePassBuffer(ctx)
	require.NoError(t, err)
	floats := common.BytesToFloat32s(buf)
	require.Len(t, floats, 23)
	assert.Equal(t, float32(1), floats[0])
	assert.Equal(t, []float32{1, 2, 3, 1}, floats[16:20])
	assert.Equal(t, []float32{7, 7, 9}, floats[20:])
}

func TestPreparePassBuffer_Mismatch(t *testing.T) {
	tests := []struct {
		name     string
		listener testListener
	}{
		{name: "writes too few", listener: testListener{size: 8, n: 1}},
		{name: "writes too many", listener: testListener{size: 4, n: 2}},
		{name: "partial float", listener: testListener{size: 6, n: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newPbs(t, WithPassListener(tt.listener), WithPassListener(testListener{size: 4, n: 1}))
			_, err := h.PreparePassBuffer(&PassContext{})
			assert.ErrorIs(t, err, ErrPassBufferMismatch)
		})
	}
}

func TestFillBuffersFor_ExtensionsBeforeBase(t *testing.T) {
	var calls []string
	h := newPbs(t, WithExtension(&testExtension{name: "gust", slots: 1, calls: &calls}))
	r := testRenderable{mat: material.NewMaterial(material.WithName("leaf"))}
	cache, err := h.CreateShaderCacheEntry(r)
	require.NoError(t, err)

	cb := command.NewBuffer(8)
	hash := h.FillBuffersForV2(cache, QueuedRenderable{Renderable: r}, false, 0, cb)
	assert.Equal(t, cache.Hash, hash)

	cmds := cb.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, command.TextureBind{Slot: FirstExtensionSlot}, cmds[0])
	assert.Equal(t, command.SetPipeline{Hash: cache.Hash}, cmds[1])
	mb, ok := cmds[2].(command.ConstBufferBind)
	require.True(t, ok)
	assert.Equal(t, MaterialBufferSlot, mb.Slot)
	assert.Len(t, mb.Data, 32)

	cb.Reset()
	assert.Equal(t, hash, h.FillBuffersForV1(cache, QueuedRenderable{Renderable: r}, false, hash, cb))
	assert.Len(t, cb.Commands(), 2, "pipeline is not re-bound for the same permutation")
}

func TestCalculateHashForPreCreate(t *testing.T) {
	var calls []string
	plain := newPbs(t)
	gust := newPbs(t, WithExtension(&testExtension{name: "gust", calls: &calls}))
	r := testRenderable{mat: material.NewMaterial(material.WithDiffuseTexture("bark.png")), skinned: true}

	props, hash := plain.CalculateHashForPreCreate(r)
	assert.Equal(t, int32(1), props.Get(PropertyDiffuseMap))
	assert.Equal(t, int32(1), props.Get(PropertySkeleton))
	assert.False(t, props.Has(PropertyNormalMap))

	gprops, ghash := gust.CalculateHashForPreCreate(r)
	assert.Equal(t, int32(1), gprops.Get("gust_enabled"))
	assert.NotEqual(t, hash, ghash)
}

func TestCreateShaderCacheEntry(t *testing.T) {
	h := newPbs(t)
	r := testRenderable{mat: material.NewMaterial(material.WithDiffuseTexture("bark.png"), material.WithNormalTexture("bark_n.png"))}

	c, err := h.CreateShaderCacheEntry(r)
	require.NoError(t, err)
	slot, ok := c.Registers.Slot(shader.ShaderTypeFragment, RegisterNormal)
	require.True(t, ok)
	assert.Equal(t, uint32(1), slot)

	assert.Equal(t, "vs_main", c.Vertex.EntryPoint())
	assert.Equal(t, "fs_main", c.Pixel.EntryPoint())
	assert.Contains(t, c.Vertex.Source(), "struct PassParams")
	assert.NotContains(t, c.Vertex.Source(), "wind")
	assert.Contains(t, c.Pixel.Source(), "@group(2) @binding(0) var texDiffuse: texture_2d<f32>;")
	assert.Contains(t, c.Pixel.Source(), "@group(2) @binding(17) var samplerNormal: sampler;")
	assert.NotContains(t, c.Pixel.Source(), "texMetallicRoughness")
	assert.Len(t, c.Pixel.Declarations(), 2)

	again, err := h.CreateShaderCacheEntry(r)
	require.NoError(t, err)
	assert.Same(t, c, again)
	assert.Equal(t, 1, h.CacheLen())
	byHash, ok := h.Cache(c.Hash)
	require.True(t, ok)
	assert.Same(t, c, byHash)

	h.ClearShaderCache()
	assert.Equal(t, 0, h.CacheLen())
	retired, ok := h.Cache(c.Hash)
	require.True(t, ok, "a cleared permutation stays reachable until regenerated")
	assert.Same(t, c, retired)
	regenerated, err := h.CreateShaderCacheEntry(r)
	require.NoError(t, err, "the library reloads after a clear")
	assert.NotSame(t, c, regenerated)
	byHash, ok = h.Cache(c.Hash)
	require.True(t, ok)
	assert.Same(t, regenerated, byHash)
}

func TestCreateShaderCacheEntry_MissingTemplate(t *testing.T) {
	h, err := New(TypePbs, "Pbs", fstest.MapFS{}, nil)
	require.NoError(t, err)
	_, err = h.CreateShaderCacheEntry(testRenderable{})
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestNew_TooManyTextureSlots(t *testing.T) {
	var calls []string
	_, err := New(TypeUser0, "Greedy", fstest.MapFS{}, nil, WithExtension(&testExtension{name: "greedy", slots: 3, calls: &calls}))
	assert.ErrorIs(t, err, ErrTooManyTextureSlots)
}

func TestSetup_RollsBackOnFailure(t *testing.T) {
	var calls []string
	boom := errors.New("boom")
	h := newPbs(t,
		WithExtension(&testExtension{name: "a", calls: &calls}),
		WithExtension(&testExtension{name: "b", calls: &calls, setupErr: boom}),
	)
	err := h.Setup(nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"setup a", "setup b", "shutdown a"}, calls)

	calls = nil
	require.NoError(t, h.Shutdown(nil))
	assert.Equal(t, []string{"shutdown b", "shutdown a"}, calls)
}

func TestFillBuffersFor_MaterialTextures(t *testing.T) {
	rs := &testRenderSystem{
		textures: texture.NewManager(texture.WithStreamingWorkers(1)),
		samplers: sampler.NewPool(),
	}
	defer rs.textures.Release()

	h := newPbs(t, WithRenderSystem(rs))
	r := testRenderable{mat: material.NewMaterial(material.WithName("bark"), material.WithDiffuseTexture("bark.png"))}
	c, err := h.CreateShaderCacheEntry(r)
	require.NoError(t, err)

	cb := command.NewBuffer(4)
	h.FillBuffersFor(c, QueuedRenderable{Renderable: r}, false, c.Hash, cb, false)
	binds := cb.TextureBinds()
	require.Len(t, binds, 1)
	assert.Equal(t, uint32(0), binds[0].Slot)
	assert.False(t, binds[0].Texture.IsNull())
	assert.Equal(t, 1, rs.samplers.RefCount(binds[0].Sampler))

	cb.Reset()
	h.FillBuffersFor(c, QueuedRenderable{Renderable: r}, true, c.Hash, cb, false)
	assert.Empty(t, cb.TextureBinds(), "caster passes skip material textures")

	rs.textures.WaitForStreamingCompletion()
	h.Release()
	assert.Equal(t, 0, rs.textures.Len())
	assert.Equal(t, 0, rs.samplers.Len())
}

func TestWatchLibraries_ClearsCache(t *testing.T) {
	root := t.TempDir()
	data := filepath.Join(root, "data")
	lib := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(data, 0o755))
	require.NoError(t, os.MkdirAll(lib, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, VertexTemplate), []byte("//@oxy:insert Body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(data, PixelTemplate), []byte("//@oxy:insert Body"), 0o644))
	piece := func(body string) []byte {
		return []byte("//@oxy:piece Body\n" + body + "\n//@oxy:endpiece\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(lib, "body.wgsl"), piece("@vertex fn vs_main() {}"), 0o644))

	h, err := New(TypeUser0, "Watched", os.DirFS(data), []fs.FS{os.DirFS(lib)})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.WatchLibraries(ctx, lib))

	c, err := h.CreateShaderCacheEntry(testRenderable{})
	require.NoError(t, err)
	assert.Contains(t, c.Vertex.Source(), "vs_main")

	require.NoError(t, os.WriteFile(filepath.Join(lib, "body.wgsl"), piece("@vertex fn vs_wind() {}"), 0o644))
	require.Eventually(t, func() bool { return h.CacheLen() == 0 }, 5*time.Second, 10*time.Millisecond)

	c, err = h.CreateShaderCacheEntry(testRenderable{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(c.Vertex.Source(), "vs_wind"))
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "user0", TypeUser0.String())
	assert.Equal(t, "Type(9)", Type(9).String())
}
