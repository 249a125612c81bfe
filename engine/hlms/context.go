package hlms

import (
	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// RenderSystem is the part of the render backend the material system talks to.
type RenderSystem interface {
	// Name returns the backend name used to pick shader folders, for example
	// "OpenGL 3+ Rendering Subsystem".
	Name() string

	// TextureManager returns the registry textures are created and destroyed through.
	TextureManager() texture.Manager

	// SamplerPool returns the registry sampler blocks are interned in.
	SamplerPool() *sampler.Pool
}

// SceneContext exposes the scene state read by the material system and its extensions.
type SceneContext interface {
	// FogStart returns the distance at which linear fog begins.
	FogStart() float32

	// FogEnd returns the distance at which linear fog reaches full density.
	FogEnd() float32

	// FogColour returns the fog colour.
	FogColour() common.ColourValue

	// RenderSystem returns the active render system.
	RenderSystem() RenderSystem
}

// PassContext describes the pass whose per-pass buffer is being prepared.
type PassContext struct {
	// Scene is the scene being rendered.
	Scene SceneContext

	// CasterPass is true when the pass renders shadow casters.
	CasterPass bool

	// DualParaboloid is true for dual-paraboloid point light shadow passes.
	DualParaboloid bool

	// ShadowNode names the shadow node active for the pass, if any.
	ShadowNode string

	// ViewProj is the view-projection matrix of the pass camera.
	ViewProj common.Mat4

	// CameraPosition is the world position of the pass camera.
	CameraPosition [3]float32
}

// Renderable is an object the material system generates shaders and draw commands for.
type Renderable interface {
	// Material returns the PBS datablock the renderable is drawn with.
	Material() material.Material

	// Skinned reports whether the renderable is animated by a skeleton.
	Skinned() bool

	// V1Mesh reports whether the renderable uses the legacy v1 mesh format.
	V1Mesh() bool
}

// QueuedRenderable is a renderable scheduled for drawing in the current pass.
type QueuedRenderable struct {
	Renderable Renderable

	// Depth is the view-space depth used for sorting.
	Depth float32
}
