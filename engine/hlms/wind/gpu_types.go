package wind

import (
	_ "embed"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-wind/common"
)

// GPUWindPassParamsSource is the canonical WGSL definition of the WindPassParams struct.
// Matches GPUWindPassParams layout exactly (40 bytes of data; WGSL rounds the struct
// itself up to 48 when it is the last member of a uniform).
//
//go:embed assets/wind_pass_params.wgsl
var GPUWindPassParamsSource string

// GPUWindPassParams is the wind block of the per-pass buffer.
// Matches the WGSL WindPassParams struct layout exactly (see GPUWindPassParamsSource).
// Size: 40 bytes (2 x vec4 + 2 x f32).
type GPUWindPassParams struct {
	FogParams    [4]float32 // offset 0: fog start, fog end, 0, 0 (16 bytes)
	FogColour    [4]float32 // offset 16: fog colour RGB, 1 (16 bytes)
	WindStrength float32    // offset 32: displacement scale (4 bytes)
	GlobalTime   float32    // offset 36: accumulated time in seconds (4 bytes)
}

// Size returns the size of the GPUWindPassParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUWindPassParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Floats returns the block as the 10 floats written into the pass buffer.
//
// Returns:
//   - []float32: the fields in buffer order
func (g *GPUWindPassParams) Floats() []float32 {
	out := make([]float32, 0, 10)
	out = append(out, g.FogParams[:]...)
	out = append(out, g.FogColour[:]...)
	return append(out, g.WindStrength, g.GlobalTime)
}

// Marshal serializes the GPUWindPassParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 40-byte buffer ready for GPU upload.
func (g *GPUWindPassParams) Marshal() []byte {
	return common.Float32sToBytes(g.Floats())
}
