package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat4_MulIdentity(t *testing.T) {
	m := Perspective(1.0, 16.0/9.0, 0.1, 100)
	assert.Equal(t, m, m.Mul(Identity()))
	assert.Equal(t, m, Identity().Mul(m))
}

func TestLookAt_TranslatesEyeToOrigin(t *testing.T) {
	eye := [3]float32{0, 2, 5}
	view := LookAt(eye, [3]float32{0, 2, 0}, [3]float32{0, 1, 0})

	// Transform the eye position; it must land on the origin in view space.
	var out [4]float32
	in := [4]float32{eye[0], eye[1], eye[2], 1}
	for row := 0; row < 4; row++ {
		for k := 0; k < 4; k++ {
			out[row] += view[k*4+row] * in[k]
		}
	}
	assert.InDelta(t, 0, out[0], 1e-5)
	assert.InDelta(t, 0, out[1], 1e-5)
	assert.InDelta(t, 0, out[2], 1e-5)
	assert.InDelta(t, 1, out[3], 1e-5)
}

func TestFloat32sToBytes(t *testing.T) {
	in := []float32{0, 1.5, -2, 1e6}
	buf := Float32sToBytes(in)
	assert.Len(t, buf, 16)
	assert.Equal(t, []byte{0, 0, 0xc0, 0x3f}, buf[4:8])
	assert.Equal(t, in, BytesToFloat32s(buf))
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce[string]())
}

func TestTRS_TransformPoint(t *testing.T) {
	// 90 degrees about +Y: x goes to -z.
	s := float32(0.70710678)
	m := TRS([3]float32{1, 2, 3}, [4]float32{0, s, 0, s}, [3]float32{2, 2, 2})
	p := m.TransformPoint([3]float32{1, 0, 0})
	assert.InDelta(t, 1, p[0], 1e-5)
	assert.InDelta(t, 2, p[1], 1e-5)
	assert.InDelta(t, 1, p[2], 1e-5)

	assert.Equal(t, Identity(), TRS([3]float32{}, [4]float32{0, 0, 0, 1}, [3]float32{1, 1, 1}))
}

func TestTransformNormal_NonUniformScale(t *testing.T) {
	m := TRS([3]float32{5, 5, 5}, [4]float32{0, 0, 0, 1}, [3]float32{4, 1, 1})
	// A 45 degree normal in XY tilts towards Y when X is stretched.
	n := m.TransformNormal([3]float32{0.70710678, 0.70710678, 0})
	assert.Less(t, n[0], n[1])
	assert.InDelta(t, 1, n[0]*n[0]+n[1]*n[1]+n[2]*n[2], 1e-5)

	singular := TRS([3]float32{}, [4]float32{0, 0, 0, 1}, [3]float32{0, 1, 1})
	assert.Equal(t, [3]float32{1, 0, 0}, singular.TransformNormal([3]float32{1, 0, 0}))
}
