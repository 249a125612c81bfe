package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithRenderSystemName overrides the render system name, and with it the shader folders the
// material system loads.
//
// Parameters:
//   - name: the render system name
//
// Returns:
//   - RendererBuilderOption: a function that applies the name option to a renderer
func WithRenderSystemName(name string) RendererBuilderOption {
	return func(r *renderer) {
		r.name = name
	}
}

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x. Use MSAAOff to disable MSAA entirely.
//
// Parameters:
//   - count: the MSAASampleCount to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.msaa = count
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithTextureGroup sets the bind group the material system emits texture registers into.
// It must match the group given to the material system.
func WithTextureGroup(group int) RendererBuilderOption {
	return func(r *renderer) {
		r.textureGroup = group
	}
}

// WithTextureManagerOptions passes options to the texture registry, for example its
// resource locations. The uploader is always the renderer's.
//
// Parameters:
//   - opts: the texture manager options
//
// Returns:
//   - RendererBuilderOption: a function that applies the options to a renderer
func WithTextureManagerOptions(opts ...texture.ManagerBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.textureOptions = append(r.textureOptions, opts...)
	}
}

// WithLogger sets the logger used by the renderer and its texture registry.
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = l
	}
}
