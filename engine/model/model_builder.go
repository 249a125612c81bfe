package model

// ModelBuilderOption is a functional option for configuring a Model during construction.
type ModelBuilderOption func(*model)

// WithName sets the name of the model.
//
// Parameters:
//   - name: the model name
//
// Returns:
//   - ModelBuilderOption: functional option to set the name
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices sets the mesh vertices.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - ModelBuilderOption: functional option to set the vertices
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
	}
}

// WithIndices sets the triangle list indices.
//
// Parameters:
//   - indices: the indices, three per triangle
//
// Returns:
//   - ModelBuilderOption: functional option to set the indices
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithBoundingRadius overrides the bounding radius computed from the vertices.
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
