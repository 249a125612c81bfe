package renderer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNoPipeline is returned when a draw is recorded before any pipeline was selected.
	ErrNoPipeline = errors.New("renderer: draw without pipeline")

	// ErrUnknownPipeline is returned when a command selects a permutation the material system
	// has not generated.
	ErrUnknownPipeline = errors.New("renderer: unknown pipeline")

	// ErrUnboundSlot is returned when a permutation samples a texture slot nothing was bound to.
	ErrUnboundSlot = errors.New("renderer: unbound texture slot")

	// ErrUnknownBufferSlot is returned for constant buffer binds to a slot the renderer does not own.
	ErrUnknownBufferSlot = errors.New("renderer: unknown buffer slot")
)

// drawCall is the binding state captured when a command.Draw is replayed.
type drawCall struct {
	pipeline uint32
	textures map[uint32]command.TextureBind
	material []byte
	id       uint64
	mesh     model.Model
}

// planDraws replays a command buffer into independent draw calls. Binding state persists
// across draws as on a GPU command list: a later TextureBind to the same slot replaces the
// earlier one, and the pipeline stays selected until the next SetPipeline.
//
// Parameters:
//   - cmds: the recorded commands
//
// Returns:
//   - []drawCall: one entry per command.Draw
//   - error: ErrNoPipeline, ErrUnknownBufferSlot, or texture.ErrInvalidHandle for a bind of
//     a null texture
func planDraws(cmds []command.Command) ([]drawCall, error) {
	var (
		draws       []drawCall
		pipe        uint32
		hasPipeline bool
		material    []byte
		textures    = make(map[uint32]command.TextureBind)
	)
	for i, c := range cmds {
		switch c := c.(type) {
		case command.SetPipeline:
			pipe, hasPipeline = c.Hash, true
		case command.TextureBind:
			if c.Texture.IsNull() {
				return nil, fmt.Errorf("renderer: command %d: slot %d: %w", i, c.Slot, texture.ErrInvalidHandle)
			}
			textures[c.Slot] = c
		case command.ConstBufferBind:
			if c.Slot != hlms.MaterialBufferSlot {
				return nil, fmt.Errorf("renderer: command %d: slot %d: %w", i, c.Slot, ErrUnknownBufferSlot)
			}
			material = c.Data
		case command.Draw:
			if !hasPipeline {
				return nil, fmt.Errorf("renderer: command %d: %w", i, ErrNoPipeline)
			}
			snapshot := make(map[uint32]command.TextureBind, len(textures))
			for k, v := range textures {
				snapshot[k] = v
			}
			draws = append(draws, drawCall{pipeline: pipe, textures: snapshot, material: material, id: c.ID, mesh: c.Mesh})
		}
	}
	return draws, nil
}

// padUniform returns data padded with zeros to a non-zero multiple of 16 bytes, the size
// granularity of WGSL uniform structs.
func padUniform(data []byte) []byte {
	n := max((len(data)+15)/16*16, 16)
	if n == len(data) {
		return data
	}
	out := make([]byte, n)
	copy(out, data)
	return out
}

// slotBinding is one entry of a texture group: a texture at binding == slot, or the sampler
// paired with slot at binding == slot + shader.SamplerBindingOffset.
type slotBinding struct {
	binding   uint32
	slot      uint32
	isSampler bool
	texture   texture.Handle
	sampler   sampler.Handle
}

// textureBindings matches the entries of a texture group layout against the bound slots.
//
// Parameters:
//   - desc: the merged layout of the texture group
//   - binds: the bound slots of the draw
//
// Returns:
//   - []slotBinding: one entry per layout entry, sorted by binding
//   - error: ErrUnboundSlot if an entry has nothing bound
func textureBindings(desc wgpu.BindGroupLayoutDescriptor, binds map[uint32]command.TextureBind) ([]slotBinding, error) {
	out := make([]slotBinding, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		sb := slotBinding{binding: e.Binding, slot: e.Binding}
		if e.Sampler.Type != wgpu.SamplerBindingTypeUndefined {
			sb.isSampler = true
			sb.slot = e.Binding - shader.SamplerBindingOffset
		}
		b, ok := binds[sb.slot]
		if !ok || (sb.isSampler && b.Sampler.IsNull()) {
			return nil, fmt.Errorf("renderer: binding %d: %w", e.Binding, ErrUnboundSlot)
		}
		sb.texture, sb.sampler = b.Texture, b.Sampler
		out = append(out, sb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].binding < out[j].binding })
	return out, nil
}

// mergeBindGroupLayouts merges vertex and fragment stage bind group layouts into a single set.
// When a group appears in both stages, entries are merged by binding number with visibility
// flags OR'd together.
//
// Parameters:
//   - vertexLayouts: bind group layout descriptors from the vertex shader
//   - fragmentLayouts: bind group layout descriptors from the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, layouts := range []map[int]wgpu.BindGroupLayoutDescriptor{vertexLayouts, fragmentLayouts} {
		for g, desc := range layouts {
			entries := make(map[uint32]wgpu.BindGroupLayoutEntry)
			for _, e := range merged[g].Entries {
				entries[e.Binding] = e
			}
			for _, e := range desc.Entries {
				if existing, ok := entries[e.Binding]; ok {
					existing.Visibility |= e.Visibility
					entries[e.Binding] = existing
				} else {
					entries[e.Binding] = e
				}
			}
			flat := make([]wgpu.BindGroupLayoutEntry, 0, len(entries))
			for _, e := range entries {
				flat = append(flat, e)
			}
			sort.Slice(flat, func(i, j int) bool { return flat[i].Binding < flat[j].Binding })
			merged[g] = wgpu.BindGroupLayoutDescriptor{Label: fmt.Sprintf("group %d", g), Entries: flat}
		}
	}
	return merged
}
