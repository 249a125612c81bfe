// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// ColourValue is a linear RGBA colour with float32 channels in the [0, 1] range.
type ColourValue struct {
	R, G, B, A float32
}

// White is opaque white.
var White = ColourValue{R: 1, G: 1, B: 1, A: 1}

// Black is opaque black.
var Black = ColourValue{A: 1}

// TextureDimension identifies the dimensionality of staged pixel data.
type TextureDimension int

const (
	// Dimension2D is a planar texture with Depth == 1.
	Dimension2D TextureDimension = iota

	// Dimension3D is a volume texture with Depth slices laid out back to back.
	Dimension3D
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// Volume textures store Depth slices consecutively, each Width*Height*4 bytes.
type TextureStagingData struct {
	// Name is the resource name the pixels were decoded from. Used for labels and logging.
	Name string
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
	// Depth is the number of slices for volume textures. Planar textures use 1.
	Depth uint32
	// Dimension tells the uploader whether to create a 2D or 3D texture.
	Dimension TextureDimension
	// SRGB reports whether the pixels should be interpreted as sRGB-encoded.
	SRGB bool
}

// SliceSize returns the byte size of a single depth slice.
//
// Returns:
//   - int: Width*Height*4
func (t TextureStagingData) SliceSize() int {
	return int(t.Width) * int(t.Height) * 4
}

// Valid reports whether the pixel buffer matches the declared dimensions.
//
// Returns:
//   - bool: true if len(Pixels) == Width*Height*max(Depth,1)*4
func (t TextureStagingData) Valid() bool {
	depth := max(t.Depth, 1)
	return t.Width > 0 && t.Height > 0 && len(t.Pixels) == t.SliceSize()*int(depth)
}
