package wind

import "log/slog"

// WindBuilderOption is a function that configures the wind extension during construction.
type WindBuilderOption func(*wind)

// WithoutWindFactor selects the reduced variant, which binds only the noise volume and
// reserves a single texture slot. The vertex shader then derives the wind factor from the
// texture coordinates.
//
// Returns:
//   - WindBuilderOption: a function that disables the wind-factor map
func WithoutWindFactor() WindBuilderOption {
	return func(w *wind) {
		w.withWindFactor = false
	}
}

// WithNoiseTexture overrides the name of the noise volume.
//
// Parameters:
//   - name: the texture name resolved through the resource groups
//
// Returns:
//   - WindBuilderOption: a function that applies the name
func WithNoiseTexture(name string) WindBuilderOption {
	return func(w *wind) {
		w.noiseName = name
	}
}

// WithWindFactorTexture overrides the name of the wind-factor map.
//
// Parameters:
//   - name: the texture name resolved through the resource groups
//
// Returns:
//   - WindBuilderOption: a function that applies the name
func WithWindFactorTexture(name string) WindBuilderOption {
	return func(w *wind) {
		w.windFactorName = name
	}
}

// WithResourceGroup sets the resource group both textures are loaded from. The default is
// texture.AutodetectResourceGroup.
func WithResourceGroup(group string) WindBuilderOption {
	return func(w *wind) {
		w.group = group
	}
}

// WithWindStrength sets the initial wind strength of the listener.
func WithWindStrength(s float32) WindBuilderOption {
	return func(w *wind) {
		w.listener.SetWindStrength(s)
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) WindBuilderOption {
	return func(w *wind) {
		if l != nil {
			w.logger = l
		}
	}
}
