package material

// material is the implementation of the Material interface.
type material struct {
	name                     string
	baseColor                [4]float32
	metallic                 float32
	roughness                float32
	diffuseTexture           string
	normalTexture            string
	metallicRoughnessTexture string
	transparent              bool
}

// Material defines the interface for a PBS datablock: the surface properties and
// texture names a renderable is drawn with.
//
// Surface properties are set at construction and are read-only through this interface.
// Texture fields hold texture names that the material system resolves through the
// texture manager; an empty name means the slot is unused.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// DiffuseTexture retrieves the name of the diffuse/albedo texture, or "" if none is set.
	//
	// Returns:
	//   - string: the diffuse texture name
	DiffuseTexture() string

	// NormalTexture retrieves the name of the normal map texture, or "" if none is set.
	//
	// Returns:
	//   - string: the normal texture name
	NormalTexture() string

	// MetallicRoughnessTexture retrieves the name of the metallic-roughness texture, or "" if none is set.
	//
	// Returns:
	//   - string: the metallic-roughness texture name
	MetallicRoughnessTexture() string

	// Transparent reports whether the material is alpha blended.
	//
	// Returns:
	//   - bool: true for alpha blended materials
	Transparent() bool

	// Params builds the GPU constant block for this material.
	//
	// Returns:
	//   - GPUMaterialParams: the material constants in GPU layout
	Params() GPUMaterialParams
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
		metallic:  0.0,
		roughness: 1.0,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) DiffuseTexture() string {
	return m.diffuseTexture
}

func (m *material) NormalTexture() string {
	return m.normalTexture
}

func (m *material) MetallicRoughnessTexture() string {
	return m.metallicRoughnessTexture
}

func (m *material) Transparent() bool {
	return m.transparent
}

func (m *material) Params() GPUMaterialParams {
	p := GPUMaterialParams{
		BaseColor: m.baseColor,
		Metallic:  m.metallic,
		Roughness: m.roughness,
	}
	if m.transparent {
		p.Flags |= MaterialFlagTransparent
	}
	return p
}
