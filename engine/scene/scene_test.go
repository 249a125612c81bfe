package scene

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/camera"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRenderSystem struct {
	textures texture.Manager
	samplers *sampler.Pool
}

func (rs *testRenderSystem) Name() string                    { return wind.RenderSystemGL3Plus }
func (rs *testRenderSystem) TextureManager() texture.Manager { return rs.textures }
func (rs *testRenderSystem) SamplerPool() *sampler.Pool      { return rs.samplers }

func newRenderSystem(t *testing.T) *testRenderSystem {
	t.Helper()
	tm := texture.NewManager(
		texture.WithUploader(texture.NewMemoryUploader()),
		texture.WithResourceLocation(texture.DefaultResourceGroup, t.TempDir()),
		texture.WithFallbackOnMissing(),
	)
	t.Cleanup(tm.Release)
	return &testRenderSystem{textures: tm, samplers: sampler.NewPool()}
}

func TestFog_NoneReportsOpenRange(t *testing.T) {
	s := NewScene()
	assert.Equal(t, FogNone, s.FogMode())
	assert.Equal(t, float32(0), s.FogStart())
	assert.Equal(t, float32(math.MaxFloat32), s.FogEnd())

	s.SetFog(FogLinear, 10, 50, common.Black)
	assert.Equal(t, float32(10), s.FogStart())
	assert.Equal(t, float32(50), s.FogEnd())
	assert.Equal(t, common.Black, s.FogColour())
	assert.Equal(t, "linear", s.FogMode().String())
}

func TestAddRemove_AssignsIDs(t *testing.T) {
	a := game_object.NewGameObject()
	b := game_object.NewGameObject(game_object.WithID(10))
	s := NewScene(WithObjects(b))

	id := s.Add(a)
	assert.Equal(t, uint64(11), id)
	assert.Equal(t, 2, s.Count())

	got, ok := s.Get(10)
	require.True(t, ok)
	assert.Same(t, b, got)

	assert.True(t, s.Remove(10))
	assert.False(t, s.Remove(10))
	assert.Equal(t, 1, s.Count())
}

func TestRenderables_Ordering(t *testing.T) {
	cam := camera.NewCamera(camera.WithTarget(0, 0, 0), camera.WithRadius(10), camera.WithAngles(0, 0))
	glass := material.NewMaterial(material.WithName("glass"), material.WithTransparent(true))
	eye := cam.Position()

	near := game_object.NewGameObject(game_object.WithPosition(eye[0]*0.5, eye[1]*0.5, eye[2]*0.5))
	far := game_object.NewGameObject()
	hidden := game_object.NewGameObject(game_object.WithEnabled(false))
	nearGlass := game_object.NewGameObject(game_object.WithMaterial(glass), game_object.WithPosition(eye[0]*0.5, eye[1]*0.5, eye[2]*0.5))
	farGlass := game_object.NewGameObject(game_object.WithMaterial(glass))

	s := NewScene(WithCamera(cam), WithObjects(farGlass, far, hidden, near, nearGlass))
	q := s.Renderables()
	require.Len(t, q, 4)
	assert.Same(t, near, q[0].Renderable)
	assert.Same(t, far, q[1].Renderable)
	assert.Same(t, farGlass, q[2].Renderable)
	assert.Same(t, nearGlass, q[3].Renderable)
	assert.InDelta(t, 10, q[1].Depth, 1e-3)
}

func TestPassContext(t *testing.T) {
	s := NewScene()
	ctx := s.PassContext(true)
	assert.True(t, ctx.CasterPass)
	assert.Equal(t, s.Camera().Position(), ctx.CameraPosition)
	assert.Same(t, s, ctx.Scene)
}

func TestRecordDraws_ChainsPipelineBinds(t *testing.T) {
	rs := newRenderSystem(t)
	w := wind.New()
	h, err := wind.NewHlms(media.FS, rs.Name(), w)
	require.NoError(t, err)
	defer h.Release()

	s := NewScene(WithRenderSystem(rs), WithObjects(
		game_object.NewGameObject(game_object.WithModel(model.Plane(1, 1))),
		game_object.NewGameObject(game_object.WithPosition(1, 0, 0)),
		game_object.NewGameObject(game_object.WithV1Mesh(true), game_object.WithPosition(2, 0, 0)),
	))
	require.NoError(t, h.Setup(s))
	defer func() { require.NoError(t, h.Shutdown(s)) }()

	cb := command.NewBuffer(16)
	n, err := s.RecordDraws(h, false, cb)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var pipelines, materials, draws int
	for _, c := range cb.Commands() {
		switch c.(type) {
		case command.SetPipeline:
			pipelines++
		case command.ConstBufferBind:
			materials++
		case command.Draw:
			draws++
		}
	}
	// the v1 object is a separate permutation
	assert.Equal(t, 2, pipelines)
	assert.Equal(t, 3, materials)
	assert.Equal(t, 1, draws)
	assert.Equal(t, 2, h.CacheLen())
}

// zeroHashHlms hands out copies of the real permutations with their hash set to 0.
type zeroHashHlms struct {
	hlms.Hlms
}

func (z zeroHashHlms) CreateShaderCacheEntry(r hlms.Renderable) (*hlms.Cache, error) {
	c, err := z.Hlms.CreateShaderCacheEntry(r)
	if err != nil {
		return nil, err
	}
	zero := *c
	zero.Hash = 0
	return &zero, nil
}

func TestRecordDraws_BindsPipelineOnFirstDraw(t *testing.T) {
	rs := newRenderSystem(t)
	h, err := wind.NewHlms(media.FS, rs.Name(), wind.New())
	require.NoError(t, err)
	defer h.Release()

	s := NewScene(WithRenderSystem(rs), WithObjects(
		game_object.NewGameObject(game_object.WithModel(model.Plane(1, 1))),
		game_object.NewGameObject(game_object.WithModel(model.Plane(1, 1)), game_object.WithPosition(1, 0, 0)),
	))
	require.NoError(t, h.Setup(s))
	defer func() { require.NoError(t, h.Shutdown(s)) }()

	cb := command.NewBuffer(16)
	_, err = s.RecordDraws(zeroHashHlms{Hlms: h}, false, cb)
	require.NoError(t, err)

	var pipelines, draws int
	for _, c := range cb.Commands() {
		switch c := c.(type) {
		case command.SetPipeline:
			assert.Equal(t, uint32(0), c.Hash)
			pipelines++
		case command.Draw:
			require.Equal(t, 1, pipelines, "draw %d has no pipeline bound", c.ID)
			draws++
		}
	}
	assert.Equal(t, 1, pipelines, "draws sharing the permutation reuse the bind")
	assert.Equal(t, 2, draws)
}

func TestRecordDraws_NoRenderSystem(t *testing.T) {
	h, err := wind.NewHlms(media.FS, wind.RenderSystemGL3Plus, wind.New())
	require.NoError(t, err)
	_, err = NewScene().RecordDraws(h, false, command.NewBuffer(16))
	assert.ErrorIs(t, err, ErrNoRenderSystem)
}

var _ hlms.SceneContext = NewScene()
