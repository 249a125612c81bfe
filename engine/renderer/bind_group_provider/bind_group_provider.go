// Package bind_group_provider holds the GPU objects the render system creates for a bind group
// or a mesh, so they can be reused between frames and released together.
package bind_group_provider

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// key identifies the contents the GPU objects were built from. The render system rebuilds
	// the provider when the key changes.
	key any

	bindGroup *wgpu.BindGroup
	buffers   map[int]*wgpu.Buffer

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider stores GPU bind group and mesh resources. It is populated by the render
// system, not by user code, and is not safe for concurrent use.
type BindGroupProvider interface {
	// Label returns the debug label used for the GPU objects.
	Label() string

	// Key returns the value the resources were last built from.
	Key() any

	// SetKey records the value the resources are built from.
	SetKey(key any)

	// BindGroup returns the bind group, or nil if none was created.
	BindGroup() *wgpu.BindGroup

	// SetBindGroup replaces the bind group, releasing the previous one.
	SetBindGroup(bg *wgpu.BindGroup)

	// Buffer returns the buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores the buffer at a binding, releasing a previous buffer there.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// VertexBuffer returns the mesh vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the mesh index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices to draw.
	IndexCount() int

	// SetMesh replaces the mesh buffers, releasing the previous ones.
	//
	// Parameters:
	//   - vertexBuffer: the vertex buffer
	//   - indexBuffer: the index buffer
	//   - indexCount: the number of uint32 indices
	SetMesh(vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int)

	// Release frees every GPU object held by the provider and clears its key.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - options: variadic list of BindGroupProviderBuilderOption functions
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(options ...BindGroupProviderBuilderOption) BindGroupProvider {
	p := &bindGroupProvider{buffers: make(map[int]*wgpu.Buffer)}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Key() any {
	return p.key
}

func (p *bindGroupProvider) SetKey(key any) {
	p.key = key
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	if buf == nil {
		delete(p.buffers, binding)
		return
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetMesh(vertexBuffer, indexBuffer *wgpu.Buffer, indexCount int) {
	if p.vertexBuffer != nil && p.vertexBuffer != vertexBuffer {
		p.vertexBuffer.Release()
	}
	if p.indexBuffer != nil && p.indexBuffer != indexBuffer {
		p.indexBuffer.Release()
	}
	p.vertexBuffer, p.indexBuffer, p.indexCount = vertexBuffer, indexBuffer, indexCount
}

func (p *bindGroupProvider) Release() {
	p.SetBindGroup(nil)
	for binding := range p.buffers {
		p.SetBuffer(binding, nil)
	}
	p.SetMesh(nil, nil, 0)
	p.key = nil
}
