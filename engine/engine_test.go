package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/media"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-wind/engine/scene"
	"github.com/Carmen-Shannon/oxy-wind/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	clear     common.ColourValue
	passes    [][]byte
	presented int
	execErr   error
}

func (r *fakeRenderer) Resize(int, int) {}

func (r *fakeRenderer) BeginFrame(clear common.ColourValue) error {
	r.clear = clear
	return nil
}

func (r *fakeRenderer) Execute(_ hlms.Hlms, pass []byte, _ *command.Buffer) error {
	r.passes = append(r.passes, pass)
	return r.execErr
}

func (r *fakeRenderer) EndFrame() {}

func (r *fakeRenderer) Present() {
	r.presented++
}

func (r *fakeRenderer) Stats() renderer.FrameStats {
	return renderer.FrameStats{Draws: len(r.passes)}
}

type fixture struct {
	engine Engine
	wind   wind.Wind
	scene  scene.Scene
}

func newFixture(t *testing.T, options ...EngineBuilderOption) fixture {
	t.Helper()
	rs := renderer.NewHeadless(wind.RenderSystemGL3Plus,
		texture.WithResourceLocation(texture.DefaultResourceGroup, t.TempDir()),
		texture.WithFallbackOnMissing(),
	)
	t.Cleanup(rs.Release)

	w := wind.New()
	h, err := wind.NewHlms(media.FS, rs.Name(), w, hlms.WithRenderSystem(rs))
	require.NoError(t, err)
	s := scene.NewScene(
		scene.WithRenderSystem(rs),
		scene.WithLinearFog(5, 50, common.ColourValue{R: 0.5, G: 0.6, B: 0.7, A: 1}),
		scene.WithObjects(game_object.NewGameObject(game_object.WithModel(model.Foliage(8, 4, 1, 2, 1)))),
	)
	e, err := NewEngine(append([]EngineBuilderOption{WithScene(s), WithHlms(h), WithWind(w)}, options...)...)
	require.NoError(t, err)
	return fixture{engine: e, wind: w, scene: s}
}

func TestNewEngine_RequiresSceneAndHlms(t *testing.T) {
	_, err := NewEngine()
	assert.ErrorIs(t, err, ErrNoScene)
	_, err = NewEngine(WithScene(scene.NewScene()))
	assert.ErrorIs(t, err, ErrNoScene)
}

func TestStep_AdvancesWindTimeAndRecords(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Setup())
	require.NoError(t, f.engine.Setup(), "a second setup is a no-op")
	defer func() { require.NoError(t, f.engine.Shutdown()) }()

	frame, err := f.engine.Step(0.25)
	require.NoError(t, err)
	frame, err = f.engine.Step(0.25)
	require.NoError(t, err)

	floats := common.BytesToFloat32s(frame.PassBuffer)
	require.Len(t, floats, 30)
	assert.Equal(t, []float32{5, 50, 0, 0}, floats[20:24])
	assert.Equal(t, wind.DefaultWindStrength, floats[28])
	assert.InDelta(t, 0.5, floats[29], 1e-6)

	assert.Equal(t, 1, frame.Objects)
	require.NotEmpty(t, frame.Commands)
	assert.IsType(t, command.SetPipeline{}, frame.Commands[0])
	_, isDraw := frame.Commands[len(frame.Commands)-1].(command.Draw)
	assert.True(t, isDraw)
	assert.Zero(t, frame.Stats, "headless frames have no renderer stats")
}

func TestTick_PausedFreezesTime(t *testing.T) {
	var ticks int
	f := newFixture(t, WithTickCallback(func(float32) { ticks++ }))
	f.engine.SetPaused(true)
	f.engine.Tick(1)
	assert.Zero(t, f.wind.Listener().Time())
	assert.Equal(t, 1, ticks, "the tick callback still runs")

	f.engine.SetPaused(false)
	f.engine.Tick(1)
	assert.Equal(t, float32(1), f.wind.Listener().Time())
}

func TestRenderFrame_SubmitsToRenderer(t *testing.T) {
	fr := &fakeRenderer{}
	var got Frame
	f := newFixture(t, WithRenderer(fr), WithRenderCallback(func(frame Frame) { got = frame }))
	require.NoError(t, f.engine.Setup())
	defer func() { require.NoError(t, f.engine.Shutdown()) }()

	frame, err := f.engine.RenderFrame()
	require.NoError(t, err)
	assert.Equal(t, f.scene.FogColour(), fr.clear, "frames clear to the fog colour")
	require.Len(t, fr.passes, 1)
	assert.Equal(t, frame.PassBuffer, fr.passes[0])
	assert.Equal(t, 1, fr.presented)
	assert.Equal(t, 1, frame.Stats.Draws)
	assert.Equal(t, frame, got)

	fr.execErr = errors.New("device lost")
	_, err = f.engine.RenderFrame()
	assert.ErrorIs(t, err, fr.execErr)
	assert.Equal(t, 1, fr.presented, "failed frames are not presented")
}

func TestHandleKey(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Setup())
	defer func() { require.NoError(t, f.engine.Shutdown()) }()
	e := f.engine.(*engine)

	e.handleKey(window.KeySpace)
	assert.True(t, e.Paused())
	e.handleKey(window.KeySpace)
	assert.False(t, e.Paused())

	e.handleKey(window.KeyUp)
	assert.InDelta(t, wind.DefaultWindStrength+strengthStep, f.wind.Listener().WindStrength(), 1e-6)
	for range 10 {
		e.handleKey(window.KeyDown)
	}
	assert.Zero(t, f.wind.Listener().WindStrength(), "strength never goes negative")

	_, err := e.RenderFrame()
	require.NoError(t, err)
	require.Positive(t, e.Hlms().CacheLen())
	e.handleKey(window.KeyF5)
	assert.Zero(t, e.Hlms().CacheLen())
}

func TestRun_HeadlessStopsOnCancel(t *testing.T) {
	f := newFixture(t, WithRenderFrameLimit(240), WithTickRate(240))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	require.NoError(t, f.engine.Run(ctx))
	assert.Positive(t, f.wind.Listener().Time())
}

func TestRun_StopsOnFrameError(t *testing.T) {
	fr := &fakeRenderer{execErr: errors.New("device lost")}
	f := newFixture(t, WithRenderer(fr))
	err := f.engine.Run(context.Background())
	assert.ErrorIs(t, err, fr.execErr)
}
