package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
// The value is clamped to [0, 1].
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = clamp01(metallic)
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
// The value is clamped to [0, 1].
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = clamp01(roughness)
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse texture name.
//
// Parameters:
//   - name: the texture name resolved through the texture manager
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(name string) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = name
	}
}

// WithNormalTexture is an option builder that sets the normal map texture name.
//
// Parameters:
//   - name: the texture name resolved through the texture manager
//
// Returns:
//   - MaterialBuilderOption: a function that applies the normal texture option to a material
func WithNormalTexture(name string) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = name
	}
}

// WithMetallicRoughnessTexture is an option builder that sets the metallic-roughness texture name.
//
// Parameters:
//   - name: the texture name resolved through the texture manager
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic-roughness texture option to a material
func WithMetallicRoughnessTexture(name string) MaterialBuilderOption {
	return func(m *material) {
		m.metallicRoughnessTexture = name
	}
}

// WithTransparent marks the material as alpha blended.
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
