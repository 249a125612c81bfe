package loader

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithLogger sets the logger used for skipped primitives and images.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(logger *slog.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.logger = logger
	}
}

// WithMaterialOptions sets options applied to every imported material before the values
// read from the file, so the file wins where it specifies a value.
//
// Parameters:
//   - options: the base material options
//
// Returns:
//   - LoaderBuilderOption: a function that applies the material options to a loader
func WithMaterialOptions(options ...material.MaterialBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.materialBase = append(l.materialBase, options...)
	}
}

// WithObjectOptions sets options applied to every game object built by Objects.
func WithObjectOptions(options ...game_object.GameObjectBuilderOption) LoaderBuilderOption {
	return func(l *loader) {
		l.objectOptions = append(l.objectOptions, options...)
	}
}
