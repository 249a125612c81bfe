// Package engine runs the wind viewer: a fixed-rate tick loop that advances wind time, and
// a render loop that prepares the pass buffer, records the scene's draws through the
// material system and submits them to the renderer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/scene"
	"github.com/Carmen-Shannon/oxy-wind/engine/window"
	"github.com/chewxy/math32"
)

// Input tuning of the viewer.
const (
	orbitSpeed   float32 = 0.01
	zoomStep     float32 = 0.9
	strengthStep float32 = 0.1
)

// ErrNoScene is returned when the engine has no scene or no material system.
var ErrNoScene = errors.New("engine: scene and material system are required")

// FrameRenderer is the part of a renderer the frame loop drives. renderer.Renderer
// satisfies it.
type FrameRenderer interface {
	Resize(width, height int)
	BeginFrame(clear common.ColourValue) error
	Execute(h hlms.Hlms, passBuffer []byte, cb *command.Buffer) error
	EndFrame()
	Present()
	Stats() renderer.FrameStats
}

// Frame is what one RenderFrame recorded.
type Frame struct {
	// PassBuffer is the per-pass buffer the draws were rendered with.
	PassBuffer []byte

	// Commands is the recorded command stream.
	Commands []command.Command

	// Objects is the number of objects recorded.
	Objects int

	// Stats are the renderer counters, zero when running headless.
	Stats renderer.FrameStats
}

// engine implements the Engine interface.
type engine struct {
	tickRate         time.Duration
	renderFrameLimit time.Duration

	hlms     hlms.Hlms
	scene    scene.Scene
	wind     wind.Wind
	window   window.Window
	renderer FrameRenderer
	logger   *slog.Logger

	profiler         *profiler.Profiler
	profilerOptions  []profiler.ProfilerBuilderOption
	profilingEnabled bool

	timeSinks      []func(dt float32)
	tickCallback   func(dt float32)
	renderCallback func(frame Frame)

	paused  atomic.Bool
	frameMu sync.Mutex
	cb      *command.Buffer

	setupMu sync.Mutex
	ready   bool

	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
	errMu    sync.Mutex
	err      error
}

// Engine drives the viewer. Tick and RenderFrame can be called directly for headless use;
// Run starts both loops and blocks until the window closes or the context is cancelled.
type Engine interface {
	// Setup runs the material system's extension setup against the scene. A second call
	// is a no-op.
	//
	// Returns:
	//   - error: the first extension setup error
	Setup() error

	// Shutdown releases what Setup acquired.
	//
	// Returns:
	//   - error: the joined extension shutdown errors
	Shutdown() error

	// Tick advances time sinks by dt unless paused, then calls the tick callback.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Tick(dt float32)

	// RenderFrame records one frame and, when a renderer is attached, submits it.
	//
	// Returns:
	//   - Frame: what was recorded
	//   - error: a pass buffer, recording or renderer error
	RenderFrame() (Frame, error)

	// Step is Tick followed by RenderFrame.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	//
	// Returns:
	//   - Frame: what was recorded
	//   - error: see RenderFrame
	Step(dt float32) (Frame, error)

	// Run starts the tick and render loops and blocks until the window closes, the
	// context is cancelled or a frame fails.
	//
	// Parameters:
	//   - ctx: cancels the loops
	//
	// Returns:
	//   - error: the setup or frame error that stopped the engine
	Run(ctx context.Context) error

	// Quit stops the loops. Safe to call multiple times.
	Quit()

	// SetPaused freezes or resumes time sinks.
	SetPaused(paused bool)

	// Paused reports whether time sinks are frozen.
	Paused() bool

	// ReloadShaders drops every generated permutation; the next frame regenerates them
	// from the current shader pieces.
	ReloadShaders()

	// Scene returns the rendered scene.
	Scene() scene.Scene

	// Hlms returns the material system.
	Hlms() hlms.Hlms

	// Window returns the window, or nil when headless.
	Window() window.Window
}

var _ Engine = &engine{}

// NewEngine creates an Engine. WithScene and WithHlms are required.
//
// Parameters:
//   - options: variadic list of EngineBuilderOption functions
//
// Returns:
//   - Engine: the engine
//   - error: ErrNoScene if the scene or material system is missing
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRate: time.Second / 60,
		logger:   slog.Default(),
		cb:       command.NewBuffer(256),
		quit:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.scene == nil || e.hlms == nil {
		return nil, ErrNoScene
	}
	if e.wind != nil {
		e.timeSinks = append(e.timeSinks, e.wind.AddTime)
	}
	e.profiler = profiler.NewProfiler(append([]profiler.ProfilerBuilderOption{profiler.WithLogger(e.logger)}, e.profilerOptions...)...)
	if e.window != nil {
		e.bindWindow()
	}
	return e, nil
}

// bindWindow connects window input to the camera, the renderer and the wind controls.
func (e *engine) bindWindow() {
	e.window.SetResizeCallback(func(width, height int) {
		if e.renderer != nil {
			e.renderer.Resize(width, height)
		}
		e.scene.Camera().SetAspect(float32(width) / float32(height))
	})
	e.window.SetDragCallback(func(dx, dy float32) {
		e.scene.Camera().Orbit(-dx*orbitSpeed, dy*orbitSpeed)
	})
	e.window.SetScrollCallback(func(delta float32) {
		e.scene.Camera().Zoom(math32.Pow(zoomStep, delta))
	})
	e.window.SetKeyCallback(func(key window.Key, pressed bool) {
		if pressed {
			e.handleKey(key)
		}
	})
	e.scene.Camera().SetAspect(float32(e.window.Width()) / float32(max(e.window.Height(), 1)))
}

func (e *engine) handleKey(key window.Key) {
	switch key {
	case window.KeySpace:
		e.SetPaused(!e.Paused())
	case window.KeyR, window.KeyF5:
		e.ReloadShaders()
	case window.KeyUp, window.KeyDown:
		if e.wind == nil {
			return
		}
		l := e.wind.Listener()
		step := strengthStep
		if key == window.KeyDown {
			step = -step
		}
		l.SetWindStrength(max(l.WindStrength()+step, 0))
		e.logger.Info("engine: wind strength", "strength", l.WindStrength())
	}
}

func (e *engine) Setup() error {
	e.setupMu.Lock()
	defer e.setupMu.Unlock()
	if e.ready {
		return nil
	}
	if err := e.hlms.Setup(e.scene); err != nil {
		return err
	}
	e.ready = true
	return nil
}

func (e *engine) Shutdown() error {
	e.setupMu.Lock()
	defer e.setupMu.Unlock()
	if !e.ready {
		return nil
	}
	e.ready = false
	return e.hlms.Shutdown(e.scene)
}

func (e *engine) Tick(dt float32) {
	if !e.paused.Load() {
		for _, sink := range e.timeSinks {
			sink(dt)
		}
	}
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

func (e *engine) RenderFrame() (Frame, error) {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	pass, err := e.hlms.PreparePassBuffer(e.scene.PassContext(false))
	if err != nil {
		return Frame{}, fmt.Errorf("engine: pass buffer: %w", err)
	}
	e.cb.Reset()
	n, err := e.scene.RecordDraws(e.hlms, false, e.cb)
	if err != nil {
		return Frame{}, fmt.Errorf("engine: record: %w", err)
	}
	frame := Frame{
		PassBuffer: pass,
		Commands:   append([]command.Command(nil), e.cb.Commands()...),
		Objects:    n,
	}

	if e.renderer != nil {
		if err := e.renderer.BeginFrame(e.scene.FogColour()); err != nil {
			return frame, fmt.Errorf("engine: begin frame: %w", err)
		}
		execErr := e.renderer.Execute(e.hlms, pass, e.cb)
		e.renderer.EndFrame()
		if execErr != nil {
			return frame, fmt.Errorf("engine: execute: %w", execErr)
		}
		e.renderer.Present()
		frame.Stats = e.renderer.Stats()
	}

	if e.renderCallback != nil {
		e.renderCallback(frame)
	}
	if e.profilingEnabled {
		e.profiler.Tick("objects", frame.Objects, "draws", frame.Stats.Draws, "skipped", frame.Stats.Skipped)
	}
	return frame, nil
}

func (e *engine) Step(dt float32) (Frame, error) {
	e.Tick(dt)
	return e.RenderFrame()
}

func (e *engine) Run(ctx context.Context) error {
	if err := e.Setup(); err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			e.logger.Warn("engine: shutdown", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.wg.Add(3)
	go e.handleTick()
	go e.handleRender()
	go func() {
		defer e.wg.Done()
		select {
		case <-ctx.Done():
			e.Quit()
		case <-e.quit:
		}
	}()

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quit:
				_ = e.window.Close()
			default:
			}
		})
		e.window.ProcessMessages()
		e.Quit()
	} else {
		<-e.quit
	}
	e.wg.Wait()

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	e.Quit()
}

// handleTick runs the fixed-rate tick loop until quit.
func (e *engine) handleTick() {
	defer e.wg.Done()
	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.quit:
			return
		case now := <-ticker.C:
			e.Tick(float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}

// handleRender renders frames until quit, optionally capped by the frame limit.
// A panic inside a frame stops the engine instead of crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("engine: render loop panic: %v", r))
		}
	}()

	for {
		select {
		case <-e.quit:
			return
		default:
		}
		start := time.Now()
		if _, err := e.RenderFrame(); err != nil {
			e.fail(err)
			return
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) SetPaused(paused bool) {
	e.paused.Store(paused)
}

func (e *engine) Paused() bool {
	return e.paused.Load()
}

func (e *engine) ReloadShaders() {
	e.hlms.ClearShaderCache()
	e.logger.Info("engine: shader cache cleared")
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Hlms() hlms.Hlms {
	return e.hlms
}

func (e *engine) Window() window.Window {
	return e.window
}
