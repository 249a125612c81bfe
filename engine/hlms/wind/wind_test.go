package wind

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind/windtex"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRenderSystem struct {
	textures texture.Manager
	samplers *sampler.Pool
}

func (rs *testRenderSystem) Name() string                    { return RenderSystemGL3Plus }
func (rs *testRenderSystem) TextureManager() texture.Manager { return rs.textures }
func (rs *testRenderSystem) SamplerPool() *sampler.Pool      { return rs.samplers }

type testScene struct {
	rs *testRenderSystem
}

func (s *testScene) FogStart() float32               { return 10 }
func (s *testScene) FogEnd() float32                 { return 100 }
func (s *testScene) FogColour() common.ColourValue   { return common.ColourValue{R: 0.5, G: 0.25, B: 0.125, A: 0.75} }
func (s *testScene) RenderSystem() hlms.RenderSystem { return s.rs }

type testRenderable struct{}

func (testRenderable) Material() material.Material { return material.NewMaterial(material.WithName("grass")) }
func (testRenderable) Skinned() bool               { return false }
func (testRenderable) V1Mesh() bool                { return false }

func newScene(t *testing.T, withFiles bool) (*testScene, *texture.MemoryUploader) {
	t.Helper()
	dir := t.TempDir()
	if withFiles {
		_, err := windtex.GenerateFiles(dir, DefaultNoiseTexture, DefaultWindFactorTexture, 4, 1)
		require.NoError(t, err)
	}
	up := texture.NewMemoryUploader()
	tm := texture.NewManager(
		texture.WithUploader(up),
		texture.WithResourceLocation(texture.DefaultResourceGroup, dir),
		texture.WithStreamingWorkers(2),
	)
	t.Cleanup(tm.Release)
	return &testScene{rs: &testRenderSystem{textures: tm, samplers: sampler.NewPool()}}, up
}

func TestListener_PassBufferSize(t *testing.T) {
	l := NewListener()
	assert.Equal(t, uint32(0), l.PassBufferSize(&hlms.PassContext{CasterPass: true}))
	assert.Equal(t, uint32(40), l.PassBufferSize(&hlms.PassContext{}))
}

func TestListener_CasterPassWritesNothing(t *testing.T) {
	l := NewListener()
	dst := []float32{-1, -1, -1}
	out := l.PreparePassBuffer(&hlms.PassContext{CasterPass: true}, dst)
	assert.Len(t, out, 3)
	assert.Same(t, &dst[0], &out[0], "the slice is returned unchanged")
	assert.Equal(t, []float32{-1, -1, -1}, dst)
}

func TestListener_PreparePassBuffer(t *testing.T) {
	scene, _ := newScene(t, false)
	l := NewListener()
	l.SetTime(2.5)

	dst := make([]float32, 12)
	for i := range dst {
		dst[i] = -1
	}
	out := l.PreparePassBuffer(&hlms.PassContext{Scene: scene}, dst)
	assert.Len(t, out, 2)
	assert.Equal(t, []float32{10, 100, 0, 0, 0.5, 0.25, 0.125, 1, DefaultWindStrength, 2.5}, dst[:10])
	assert.Equal(t, []float32{-1, -1}, dst[10:], "nothing is written past the block")
}

func TestListener_Time(t *testing.T) {
	a, b := NewListener(), NewListener()
	a.AddTime(0.25)
	a.AddTime(0.5)
	b.AddTime(0.75)
	assert.Equal(t, b.Time(), a.Time())
	assert.Equal(t, float32(0.75), a.Time())

	a.SetTime(4)
	assert.Equal(t, float32(4), a.Time())
	assert.Equal(t, DefaultWindStrength, a.WindStrength())
}

func TestGPUWindPassParams(t *testing.T) {
	p := GPUWindPassParams{FogParams: [4]float32{1, 2}, WindStrength: 0.5, GlobalTime: 3}
	assert.Equal(t, 40, p.Size())
	assert.Len(t, p.Marshal(), 40)
	assert.Equal(t, []float32{1, 2, 0, 0, 0, 0, 0, 0, 0.5, 3}, common.BytesToFloat32s(p.Marshal()))
	assert.Contains(t, GPUWindPassParamsSource, "struct WindPassParams")
}

func TestSetupShutdown(t *testing.T) {
	scene, up := newScene(t, true)
	w := New()

	require.NoError(t, w.Setup(scene))
	tm, pool := scene.rs.textures, scene.rs.samplers
	assert.False(t, w.NoiseTexture().IsNull())
	assert.False(t, w.WindFactorTexture().IsNull())
	assert.False(t, w.NoiseSampler().IsNull())
	assert.False(t, w.WindFactorSampler().IsNull())

	noiseBlock, ok := pool.Block(w.NoiseSampler())
	require.True(t, ok)
	assert.Equal(t, NoiseSamplerBlock(), noiseBlock)
	assert.Equal(t, sampler.AddressWrap, noiseBlock.W)
	assert.Equal(t, uint16(8), noiseBlock.MaxAnisotropy)
	assert.Equal(t, sampler.FilterAnisotropic, noiseBlock.MagFilter)

	factorBlock, ok := pool.Block(w.WindFactorSampler())
	require.True(t, ok)
	assert.Equal(t, sampler.AddressClamp, factorBlock.U)
	assert.Equal(t, uint16(0), factorBlock.MaxAnisotropy)
	assert.Equal(t, sampler.FilterNone, factorBlock.MagFilter)

	tm.WaitForStreamingCompletion()
	info, err := tm.Info(w.NoiseTexture())
	require.NoError(t, err)
	assert.Equal(t, texture.Resident, info.Residency)
	assert.Equal(t, texture.Type3D, info.Type)
	assert.Equal(t, texture.Discard, info.Strategy)
	assert.True(t, info.Flags.Has(texture.PrefersLoadingFromFileAsSRGB))
	assert.Equal(t, uint32(4), info.Depth)

	info, err = tm.Info(w.WindFactorTexture())
	require.NoError(t, err)
	assert.Equal(t, texture.Resident, info.Residency)
	assert.Equal(t, texture.Type2D, info.Type)
	assert.Equal(t, 2, up.Live())

	require.NoError(t, w.Shutdown(scene))
	assert.True(t, w.NoiseTexture().IsNull())
	assert.True(t, w.WindFactorTexture().IsNull())
	assert.True(t, w.NoiseSampler().IsNull())
	assert.True(t, w.WindFactorSampler().IsNull())
	assert.Equal(t, 0, tm.Len())
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, 0, up.Live())

	assert.ErrorIs(t, w.Shutdown(scene), ErrNotSetup)
}

func TestShutdown_WithoutSetup(t *testing.T) {
	scene, _ := newScene(t, false)
	assert.ErrorIs(t, New().Shutdown(scene), ErrNotSetup)
}

func TestSetup_ReducedVariant(t *testing.T) {
	scene, _ := newScene(t, true)
	w := New(WithoutWindFactor())
	assert.Equal(t, uint32(1), w.ReservedTextureSlots())
	assert.Equal(t, uint32(2), New().ReservedTextureSlots())

	require.NoError(t, w.Setup(scene))
	assert.False(t, w.NoiseTexture().IsNull())
	assert.True(t, w.WindFactorTexture().IsNull())
	assert.True(t, w.WindFactorSampler().IsNull())
	assert.Equal(t, 1, scene.rs.textures.Len())
	assert.Equal(t, 1, scene.rs.samplers.Len())
	require.NoError(t, w.Shutdown(scene))
}

func TestSetup_RollsBackOnFailure(t *testing.T) {
	scene, _ := newScene(t, false)
	tm, pool := scene.rs.textures, scene.rs.samplers

	// a texture of the wrong type under the wind-factor name makes the second acquisition fail
	squatter, err := tm.CreateOrRetrieve(DefaultWindFactorTexture, texture.Discard, 0, texture.Type3D, texture.AutodetectResourceGroup)
	require.NoError(t, err)

	w := New()
	err = w.Setup(scene)
	assert.ErrorIs(t, err, texture.ErrTypeMismatch)
	assert.True(t, w.NoiseTexture().IsNull())
	assert.True(t, w.NoiseSampler().IsNull())
	tm.WaitForStreamingCompletion()
	assert.Equal(t, 1, tm.Len(), "only the squatter remains")
	assert.Equal(t, 0, pool.Len())
	assert.ErrorIs(t, w.Shutdown(scene), ErrNotSetup)

	require.NoError(t, tm.Destroy(squatter))
	tm.Release()
	assert.ErrorIs(t, w.Setup(scene), texture.ErrManagerReleased)
	assert.Equal(t, 0, pool.Len())
}

func TestSetup_MissingFilesDoNotFail(t *testing.T) {
	scene, _ := newScene(t, false)
	w := New()
	require.NoError(t, w.Setup(scene), "loading is asynchronous")
	scene.rs.textures.WaitForStreamingCompletion()
	assert.Error(t, scene.rs.textures.LoadError(w.NoiseTexture()))
	require.NoError(t, w.Shutdown(scene))
}

func TestVariantSelection(t *testing.T) {
	props := shader.NewPropertySet()
	before := props.Hash()
	w := New()
	w.CalculateHashForPreCreate(testRenderable{}, props)
	assert.Equal(t, int32(1), props.Get(PropertyWindEnabled))
	assert.Equal(t, int32(1), props.Get(PropertyWindFactorMap))
	assert.NotEqual(t, before, props.Hash())

	regs := shader.NewTextureRegisters()
	w.PropertiesMergedPreGenerationStep(regs)
	assert.Equal(t, map[string]uint32{RegisterPerlinNoise: 14, RegisterWindFactor: 15}, regs.All(shader.ShaderTypeVertex))

	reduced := New(WithoutWindFactor())
	props, regs = shader.NewPropertySet(), shader.NewTextureRegisters()
	reduced.CalculateHashForPreCreate(testRenderable{}, props)
	reduced.PropertiesMergedPreGenerationStep(regs)
	assert.Equal(t, int32(1), props.Get(PropertyWindEnabled))
	assert.False(t, props.Has(PropertyWindFactorMap))
	assert.Equal(t, map[string]uint32{RegisterPerlinNoise: 14}, regs.All(shader.ShaderTypeVertex))
}

func TestFillBuffersFor_NoSetupBindsNullHandles(t *testing.T) {
	cb := command.NewBuffer(2)
	New().FillBuffersForV1(nil, hlms.QueuedRenderable{}, false, 0, cb)
	assert.Equal(t, []command.TextureBind{{Slot: 14}, {Slot: 15}}, cb.TextureBinds())

	cb.Reset()
	New(WithoutWindFactor()).FillBuffersForV2(nil, hlms.QueuedRenderable{}, false, 0, cb)
	assert.Equal(t, []command.TextureBind{{Slot: 14}}, cb.TextureBinds())
}

func TestPaths(t *testing.T) {
	tests := []struct {
		name   string
		syntax string
	}{
		{name: RenderSystemD3D11, syntax: SyntaxHLSL},
		{name: RenderSystemMetal, syntax: SyntaxMetal},
		{name: RenderSystemGL3Plus, syntax: SyntaxGLSL},
	}
	for _, tt := range tests {
		t.Run(tt.syntax, func(t *testing.T) {
			p, err := ResolveDefaultPaths(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.syntax, p.Syntax)
			assert.Equal(t, "Hlms/pbs/"+tt.syntax, p.DataFolder)
			assert.Equal(t, []string{
				"Hlms/Common/" + tt.syntax,
				"Hlms/Common/Any",
				"Hlms/Pbs/Any",
				"Hlms/Pbs/Any/Main",
				"Hlms/Wind/Any",
			}, p.Libraries)
			assert.Equal(t, p, DefaultPaths(tt.name))

			_, libs, err := p.Open(media.FS)
			require.NoError(t, err)
			assert.Len(t, libs, 5)
		})
	}

	_, err := ResolveDefaultPaths("Vulkan Rendering Subsystem")
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
	assert.Equal(t, SyntaxGLSL, DefaultPaths("Vulkan Rendering Subsystem").Syntax)
}

func TestWindHlms_Generation(t *testing.T) {
	h, err := NewHlms(media.FS, RenderSystemGL3Plus, New())
	require.NoError(t, err)
	assert.Equal(t, hlms.TypeUser0, h.Type())
	assert.Equal(t, "Wind", h.TypeName())
	assert.Equal(t, uint32(2), h.ReservedTextureSlots())

	c, err := h.CreateShaderCacheEntry(testRenderable{})
	require.NoError(t, err)
	vs := c.Vertex.Source()
	assert.Contains(t, vs, "struct WindPassParams")
	assert.Contains(t, vs, "wind: WindPassParams,")
	assert.Contains(t, vs, "@group(2) @binding(14) var texPerlinNoise: texture_3d<f32>;")
	assert.Contains(t, vs, "@group(2) @binding(30) var samplerPerlinNoise: sampler;")
	assert.Contains(t, vs, "@group(2) @binding(15) var texWindFactor: texture_2d<f32>;")
	assert.Contains(t, vs, "@group(2) @binding(31) var samplerWindFactor: sampler;")
	assert.Contains(t, vs, "textureSampleLevel(texWindFactor")
	assert.NotContains(t, vs, "1.0 - in.uv0.y")
	assert.Len(t, c.Vertex.Declarations(), 2)

	reduced, err := NewHlms(media.FS, RenderSystemMetal, New(WithoutWindFactor()))
	require.NoError(t, err)
	rc, err := reduced.CreateShaderCacheEntry(testRenderable{})
	require.NoError(t, err)
	assert.NotEqual(t, c.Hash, rc.Hash)
	assert.NotContains(t, rc.Vertex.Source(), "texWindFactor")
	assert.Contains(t, rc.Vertex.Source(), "1.0 - in.uv0.y")
	assert.Contains(t, rc.Vertex.Source(), "OXY_BACKEND_SYNTAX: u32 = 2u")
}

func TestWindHlms_PassBufferAndBinds(t *testing.T) {
	scene, _ := newScene(t, true)
	w := New()
	h, err := NewHlms(media.FS, RenderSystemGL3Plus, w)
	require.NoError(t, err)
	require.NoError(t, h.Setup(scene))
	defer func() { require.NoError(t, h.Shutdown(scene)) }()

	w.AddTime(1.5)
	buf, err := h.PreparePassBuffer(&hlms.PassContext{Scene: scene, ViewProj: common.Identity()})
	require.NoError(t, err)
	floats := common.BytesToFloat32s(buf)
	require.Len(t, floats, 30)
	assert.Equal(t, []float32{10, 100, 0, 0, 0.5, 0.25, 0.125, 1, 0.5, 1.5}, floats[20:])

	buf, err = h.PreparePassBuffer(&hlms.PassContext{Scene: scene, CasterPass: true})
	require.NoError(t, err)
	assert.Len(t, buf, 80, "caster passes carry only the base block")

	c, err := h.CreateShaderCacheEntry(testRenderable{})
	require.NoError(t, err)
	cb := command.NewBuffer(8)
	hash := h.FillBuffersForV2(c, hlms.QueuedRenderable{Renderable: testRenderable{}}, false, 0, cb)
	assert.Equal(t, c.Hash, hash)

	cmds := cb.Commands()
	require.GreaterOrEqual(t, len(cmds), 3)
	assert.Equal(t, command.TextureBind{Slot: 14, Texture: w.NoiseTexture(), Sampler: w.NoiseSampler()}, cmds[0])
	assert.Equal(t, command.TextureBind{Slot: 15, Texture: w.WindFactorTexture(), Sampler: w.WindFactorSampler()}, cmds[1])
	assert.Equal(t, command.SetPipeline{Hash: c.Hash}, cmds[2])
}
