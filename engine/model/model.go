// Package model holds the indexed triangle meshes objects are drawn with.
package model

import "fmt"

// model is the implementation of the Model interface.
type model struct {
	name           string
	vertices       []GPUVertex
	indices        []uint32
	boundingRadius float32
}

// Model defines an immutable indexed triangle mesh.
type Model interface {
	// Name returns the name of the model.
	Name() string

	// Vertices returns the mesh vertices. The slice must not be modified.
	Vertices() []GPUVertex

	// Indices returns the triangle list indices. The slice must not be modified.
	Indices() []uint32

	// IndexCount returns the number of indices.
	IndexCount() int

	// VertexData returns the vertices packed for GPU upload.
	//
	// Returns:
	//   - []byte: len(Vertices())*32 bytes
	VertexData() []byte

	// IndexData returns the indices packed as little-endian uint32 for GPU upload.
	IndexData() []byte

	// BoundingRadius returns the radius of the bounding sphere centred at the model origin.
	BoundingRadius() float32

	// Transformed returns a copy of the model with every vertex scaled per axis and then
	// translated. Normals are not rescaled.
	//
	// Parameters:
	//   - position: the translation
	//   - scale: the per-axis scale
	//
	// Returns:
	//   - Model: the transformed copy
	Transformed(position, scale [3]float32) Model
}

var _ Model = &model{}

// NewModel creates a new Model configured with the provided options.
// It panics if an index refers past the end of the vertex list or the index count is not a
// multiple of three.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions
//
// Returns:
//   - Model: a new Model instance
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if len(m.indices)%3 != 0 {
		panic(fmt.Sprintf("model %q: index count %d is not a triangle list", m.name, len(m.indices)))
	}
	for _, i := range m.indices {
		if int(i) >= len(m.vertices) {
			panic(fmt.Sprintf("model %q: index %d out of range (%d vertices)", m.name, i, len(m.vertices)))
		}
	}
	if m.boundingRadius == 0 {
		m.boundingRadius = ComputeBoundingRadius(m.vertices)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) VertexData() []byte {
	buf := make([]byte, len(m.vertices)*32)
	for i := range m.vertices {
		m.vertices[i].put(buf[i*32:])
	}
	return buf
}

func (m *model) IndexData() []byte {
	buf := make([]byte, len(m.indices)*4)
	for i, idx := range m.indices {
		buf[i*4] = byte(idx)
		buf[i*4+1] = byte(idx >> 8)
		buf[i*4+2] = byte(idx >> 16)
		buf[i*4+3] = byte(idx >> 24)
	}
	return buf
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) Transformed(position, scale [3]float32) Model {
	out := &model{
		name:     m.name,
		vertices: make([]GPUVertex, len(m.vertices)),
		indices:  m.indices,
	}
	for i, v := range m.vertices {
		for a := 0; a < 3; a++ {
			v.Position[a] = v.Position[a]*scale[a] + position[a]
		}
		out.vertices[i] = v
	}
	out.boundingRadius = ComputeBoundingRadius(out.vertices)
	return out
}
