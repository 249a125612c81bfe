package common

import (
	"encoding/binary"
	"math"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Float32sToBytes serializes a slice of float32 values into a little-endian byte buffer
// suitable for GPU upload. The result is always 4*len(values) bytes long.
//
// Parameters:
//   - values: the floats to serialize, in order
//
// Returns:
//   - []byte: the little-endian encoded buffer
func Float32sToBytes(values []float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// BytesToFloat32s decodes a little-endian byte buffer back into float32 values.
// Trailing bytes that do not form a full float are ignored.
//
// Parameters:
//   - buf: the encoded buffer
//
// Returns:
//   - []float32: the decoded values
func BytesToFloat32s(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return out
}
