package scene

import (
	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/camera"
	"github.com/Carmen-Shannon/oxy-wind/engine/game_object"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithLinearFog enables linear fog.
//
// Parameters:
//   - start: the distance at which fog begins
//   - end: the distance at which fog reaches full density
//   - colour: the fog colour
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLinearFog(start, end float32, colour common.ColourValue) SceneBuilderOption {
	return func(s *scene) {
		s.fogMode, s.fogStart, s.fogEnd, s.fogColour = FogLinear, start, end, colour
	}
}

// WithRenderSystem sets the render system the scene is drawn with.
func WithRenderSystem(rs hlms.RenderSystem) SceneBuilderOption {
	return func(s *scene) {
		s.renderSystem = rs
	}
}

// WithCamera replaces the default orbit camera.
func WithCamera(c camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = c
	}
}

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *scene) {
		for _, obj := range objects {
			s.addLocked(obj)
		}
	}
}
