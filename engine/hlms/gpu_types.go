package hlms

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-wind/common"
)

// GPUPassParamsSource is the canonical WGSL definition of the PassParams struct.
// Matches GPUPassParams layout exactly (80 bytes, std140 aligned).
//
//go:embed assets/pass_params.wgsl
var GPUPassParamsSource string

// GPUPassParams is the base block at the start of every per-pass buffer.
// Matches the WGSL PassParams struct layout exactly (see GPUPassParamsSource).
// Size: 80 bytes (mat4x4 + vec4).
type GPUPassParams struct {
	ViewProj       common.Mat4 // offset 0: column-major view-projection matrix (64 bytes)
	CameraPosition [4]float32  // offset 64: xyz camera position, w = 1 (16 bytes)
}

// Size returns the size of the GPUPassParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPassParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Floats returns the block as the 20 floats written into the pass buffer.
//
// Returns:
//   - []float32: view_proj followed by camera_position
func (g *GPUPassParams) Floats() []float32 {
	out := make([]float32, 0, 20)
	out = append(out, g.ViewProj[:]...)
	return append(out, g.CameraPosition[:]...)
}

// Marshal serializes the GPUPassParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUPassParams) Marshal() []byte {
	return common.Float32sToBytes(g.Floats())
}
