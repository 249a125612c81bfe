package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/profiler"
	"github.com/Carmen-Shannon/oxy-wind/engine/scene"
	"github.com/Carmen-Shannon/oxy-wind/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithScene sets the scene the engine renders.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithHlms sets the material system draws are recorded through.
//
// Parameters:
//   - h: the material system
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithHlms(h hlms.Hlms) EngineBuilderOption {
	return func(e *engine) {
		e.hlms = h
	}
}

// WithWind registers the extension's time as a time sink and enables the wind strength
// keys.
//
// Parameters:
//   - w: the wind extension
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWind(w wind.Wind) EngineBuilderOption {
	return func(e *engine) {
		e.wind = w
	}
}

// WithTimeSink adds a function advanced by every unpaused tick.
func WithTimeSink(sink func(dt float32)) EngineBuilderOption {
	return func(e *engine) {
		e.timeSinks = append(e.timeSinks, sink)
	}
}

// WithWindow sets the window input is read from and frames are run against.
//
// Parameters:
//   - w: an open window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer frames are submitted to. Without one the engine records
// frames only.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithTickRate sets the tick loop rate in ticks per second. Values <= 0 mean 60.
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.tickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. 0 means uncapped.
//
// Parameters:
//   - fps: maximum render frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithProfiling enables periodic frame statistics logging.
func WithProfiling(enabled bool, options ...profiler.ProfilerBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
		e.profilerOptions = options
	}
}

// WithTickCallback sets a function called after every tick.
func WithTickCallback(callback func(dt float32)) EngineBuilderOption {
	return func(e *engine) {
		e.tickCallback = callback
	}
}

// WithRenderCallback sets a function called with every recorded frame.
func WithRenderCallback(callback func(frame Frame)) EngineBuilderOption {
	return func(e *engine) {
		e.renderCallback = callback
	}
}

// WithLogger sets the logger used by the engine.
//
// Parameters:
//   - l: the logger; nil keeps slog.Default()
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}
