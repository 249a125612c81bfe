package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPUVertex_Layout(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0.25, 0.75}}
	assert.Equal(t, 32, v.Size())
	buf := v.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[8:])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[28:])))
	assert.Equal(t, uint64(32), VertexBufferLayout().ArrayStride)
}

func TestPlane(t *testing.T) {
	p := Plane(2, 2)
	assert.Len(t, p.Vertices(), 9)
	assert.Equal(t, 24, p.IndexCount())
	assert.Len(t, p.VertexData(), 9*32)
	assert.Len(t, p.IndexData(), 24*4)
	assert.InDelta(t, math.Sqrt2, p.BoundingRadius(), 1e-5)
}

func TestFoliage_TipsHaveZeroV(t *testing.T) {
	f := Foliage(3, 4, 1, 2, 7)
	// 3 blades, 2 quads each, 3 rows of 2 vertices
	require.Len(t, f.Vertices(), 3*2*3*2)
	assert.Equal(t, 3*2*2*6, f.IndexCount())
	for _, v := range f.Vertices() {
		if v.Position[1] == 0 {
			assert.Equal(t, float32(1), v.TexCoord[1])
		}
	}
	assert.Equal(t, f.Vertices(), Foliage(3, 4, 1, 2, 7).Vertices())
}

func TestTransformed(t *testing.T) {
	p := Plane(2, 1)
	moved := p.Transformed([3]float32{10, 0, 0}, [3]float32{2, 1, 2})
	assert.Equal(t, [3]float32{8, 0, -2}, moved.Vertices()[0].Position)
	assert.Equal(t, [3]float32{-1, 0, -1}, p.Vertices()[0].Position)
	assert.Equal(t, p.Indices(), moved.Indices())
}

func TestNewModel_PanicsOnBadIndices(t *testing.T) {
	assert.Panics(t, func() {
		NewModel(WithVertices(make([]GPUVertex, 2)), WithIndices([]uint32{0, 1, 2}))
	})
	assert.Panics(t, func() {
		NewModel(WithVertices(make([]GPUVertex, 3)), WithIndices([]uint32{0, 1}))
	})
}
