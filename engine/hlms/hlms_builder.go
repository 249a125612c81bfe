package hlms

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
)

// HlmsBuilderOption is a function that configures a material system instance during construction.
type HlmsBuilderOption func(*hlms)

// WithExtension appends an extension. If the extension also provides a pass listener or
// WGSL structs, they are registered as well.
//
// Parameters:
//   - ext: the extension to append
//
// Returns:
//   - HlmsBuilderOption: a function that registers the extension
func WithExtension(ext Extension) HlmsBuilderOption {
	return func(h *hlms) {
		h.addExtension(ext)
	}
}

// WithPassListener appends a pass listener that is not tied to an extension.
//
// Parameters:
//   - l: the listener to append
//
// Returns:
//   - HlmsBuilderOption: a function that registers the listener
func WithPassListener(l PassListener) HlmsBuilderOption {
	return func(h *hlms) {
		h.listeners = append(h.listeners, l)
	}
}

// WithStruct registers a WGSL struct that templates and pieces can @oxy:include.
//
// Parameters:
//   - key: the include key
//   - s: the struct source and type name
//
// Returns:
//   - HlmsBuilderOption: a function that registers the struct
func WithStruct(key string, s shader.Struct) HlmsBuilderOption {
	return func(h *hlms) {
		h.structs[key] = s
	}
}

// WithRenderSystem sets the render system the base fill routine acquires material textures from.
// Without one, material textures are not bound.
//
// Parameters:
//   - rs: the render system
//
// Returns:
//   - HlmsBuilderOption: a function that applies the render system
func WithRenderSystem(rs RenderSystem) HlmsBuilderOption {
	return func(h *hlms) {
		h.renderSystem = rs
	}
}

// WithTextureGroup sets the bind group that texture declarations are generated into.
func WithTextureGroup(group int) HlmsBuilderOption {
	return func(h *hlms) {
		h.textureGroup = group
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) HlmsBuilderOption {
	return func(h *hlms) {
		if l != nil {
			h.logger = l
		}
	}
}
