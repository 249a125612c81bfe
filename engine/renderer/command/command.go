// Package command records draw-time binding commands for later execution by the render system.
package command

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// Command is a single recorded operation. The concrete types are TextureBind,
// ConstBufferBind, SetPipeline and Draw.
type Command interface {
	fmt.Stringer
	isCommand()
}

// TextureBind binds a texture and its sampler to a texture register slot.
type TextureBind struct {
	Slot    uint32
	Texture texture.Handle
	Sampler sampler.Handle
}

func (TextureBind) isCommand() {}

func (c TextureBind) String() string {
	return fmt.Sprintf("TextureBind{slot=%d %s %s}", c.Slot, c.Texture, c.Sampler)
}

// ConstBufferBind binds a range of constant data to a buffer slot.
type ConstBufferBind struct {
	Slot   uint32
	Offset uint64
	Data   []byte
}

func (ConstBufferBind) isCommand() {}

func (c ConstBufferBind) String() string {
	return fmt.Sprintf("ConstBufferBind{slot=%d offset=%d size=%d}", c.Slot, c.Offset, len(c.Data))
}

// SetPipeline selects the pipeline generated for a shader permutation hash.
type SetPipeline struct {
	Hash uint32
}

func (SetPipeline) isCommand() {}

func (c SetPipeline) String() string {
	return fmt.Sprintf("SetPipeline{hash=0x%08x}", c.Hash)
}

// Draw issues an indexed draw of a mesh with the state bound so far.
type Draw struct {
	// ID identifies the drawn object so its GPU buffers can be reused between frames.
	ID   uint64
	Mesh model.Model
}

func (Draw) isCommand() {}

func (c Draw) String() string {
	n := 0
	if c.Mesh != nil {
		n = c.Mesh.IndexCount()
	}
	return fmt.Sprintf("Draw{id=%d indices=%d}", c.ID, n)
}

// Buffer is an append-only list of commands recorded for one frame or pass.
// It is not safe for concurrent use.
type Buffer struct {
	cmds []Command
}

// NewBuffer creates an empty command buffer.
//
// Parameters:
//   - capacity: the number of commands to preallocate
//
// Returns:
//   - *Buffer: the new buffer
func NewBuffer(capacity int) *Buffer {
	return &Buffer{cmds: make([]Command, 0, capacity)}
}

// Add appends a command.
func (b *Buffer) Add(c Command) {
	b.cmds = append(b.cmds, c)
}

// Commands returns the recorded commands in order. The slice is owned by the buffer
// and is invalidated by Reset.
func (b *Buffer) Commands() []Command {
	return b.cmds
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int {
	return len(b.cmds)
}

// Reset clears the buffer while keeping its capacity.
func (b *Buffer) Reset() {
	clear(b.cmds)
	b.cmds = b.cmds[:0]
}

// TextureBinds returns only the TextureBind commands, in order.
func (b *Buffer) TextureBinds() []TextureBind {
	var out []TextureBind
	for _, c := range b.cmds {
		if tb, ok := c.(TextureBind); ok {
			out = append(out, tb)
		}
	}
	return out
}
