package hlms

import (
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
)

// Extension adds behaviour to the material system without replacing it. Extensions run in
// registration order, always after the base PBS step of the same hook.
type Extension interface {
	// Name returns a short identifier used in logs.
	Name() string

	// ReservedTextureSlots returns how many texture slots the extension binds past
	// FirstExtensionSlot.
	ReservedTextureSlots() uint32

	// CalculateHashForPreCreate adds the extension's shader properties for a renderable.
	// The base properties are already set in props.
	//
	// Parameters:
	//   - r: the renderable a permutation is being selected for
	//   - props: the property set to modify
	CalculateHashForPreCreate(r Renderable, props *shader.PropertySet)

	// PropertiesMergedPreGenerationStep assigns the extension's texture registers. The base
	// registers are already set in regs.
	//
	// Parameters:
	//   - regs: the register table to modify
	PropertiesMergedPreGenerationStep(regs *shader.TextureRegisters)

	// FillBuffersFor records the extension's per-draw commands. It runs before the base
	// fill routine.
	//
	// Parameters:
	//   - cache: the shader cache entry of the draw
	//   - queued: the renderable being drawn
	//   - casterPass: true for shadow caster passes
	//   - lastCacheHash: the cache hash of the previous draw
	//   - cb: the command buffer to record into
	//   - isV1: true if the renderable uses a v1 mesh
	FillBuffersFor(cache *Cache, queued QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer, isV1 bool)
}

// PassListener contributes a block to the per-pass parameter buffer.
type PassListener interface {
	// PassBufferSize returns the size in bytes of the listener's block for a pass. It must be
	// a multiple of 4.
	PassBufferSize(ctx *PassContext) uint32

	// PreparePassBuffer writes the listener's block into dst and returns the remainder of
	// dst after it. It must consume exactly PassBufferSize(ctx)/4 floats.
	PreparePassBuffer(ctx *PassContext, dst []float32) []float32
}

// PassListenerProvider is implemented by extensions that also own a pass listener. The
// listener is registered together with the extension.
type PassListenerProvider interface {
	PassListener() PassListener
}

// StructProvider is implemented by extensions whose shader pieces @oxy:include WGSL structs.
type StructProvider interface {
	Structs() map[string]shader.Struct
}

// Lifecycle is implemented by extensions that acquire resources from the scene.
type Lifecycle interface {
	Setup(ctx SceneContext) error
	Shutdown(ctx SceneContext) error
}
