package model

import (
	"math/rand/v2"

	"github.com/chewxy/math32"
)

// Plane builds a flat ground plane in the XZ plane centred at the origin, facing +Y.
//
// Parameters:
//   - size: the edge length
//   - segments: the number of quads along each edge, at least 1
//
// Returns:
//   - Model: the plane
func Plane(size float32, segments int) Model {
	if segments < 1 {
		segments = 1
	}
	n := segments + 1
	vertices := make([]GPUVertex, 0, n*n)
	for z := 0; z < n; z++ {
		for x := 0; x < n; x++ {
			u, v := float32(x)/float32(segments), float32(z)/float32(segments)
			vertices = append(vertices, GPUVertex{
				Position: [3]float32{(u - 0.5) * size, 0, (v - 0.5) * size},
				Normal:   [3]float32{0, 1, 0},
				TexCoord: [2]float32{u, v},
			})
		}
	}
	indices := make([]uint32, 0, segments*segments*6)
	for z := 0; z < segments; z++ {
		for x := 0; x < segments; x++ {
			i := uint32(z*n + x)
			indices = append(indices, i, i+uint32(n), i+1, i+1, i+uint32(n), i+uint32(n)+1)
		}
	}
	return NewModel(WithName("plane"), WithVertices(vertices), WithIndices(indices))
}

// Foliage builds a patch of grass-like blades: pairs of crossed vertical quads scattered
// over a square, each split into rows so the vertex shader can bend them. Texture v is 0 at
// the tip and 1 at the root, so the wind factor is largest at the tips.
//
// Parameters:
//   - blades: the number of crossed blade pairs
//   - area: the edge length of the square the blades are scattered over
//   - height: the blade height
//   - rows: the vertical subdivisions per blade, at least 1
//   - seed: the placement seed
//
// Returns:
//   - Model: the foliage patch
func Foliage(blades int, area, height float32, rows int, seed uint64) Model {
	if rows < 1 {
		rows = 1
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	width := height * 0.15

	var vertices []GPUVertex
	var indices []uint32
	for b := 0; b < blades; b++ {
		cx := (rng.Float32() - 0.5) * area
		cz := (rng.Float32() - 0.5) * area
		yaw := rng.Float32() * math32.Pi
		h := height * (0.7 + 0.6*rng.Float32())
		for q := 0; q < 2; q++ {
			angle := yaw + float32(q)*math32.Pi/2
			dx, dz := math32.Cos(angle)*width/2, math32.Sin(angle)*width/2
			normal := [3]float32{-math32.Sin(angle), 0, math32.Cos(angle)}
			base := uint32(len(vertices))
			for r := 0; r <= rows; r++ {
				t := float32(r) / float32(rows)
				y := h * t
				v := 1 - t
				vertices = append(vertices,
					GPUVertex{Position: [3]float32{cx - dx, y, cz - dz}, Normal: normal, TexCoord: [2]float32{0, v}},
					GPUVertex{Position: [3]float32{cx + dx, y, cz + dz}, Normal: normal, TexCoord: [2]float32{1, v}},
				)
			}
			for r := 0; r < rows; r++ {
				i := base + uint32(r*2)
				indices = append(indices, i, i+1, i+2, i+1, i+3, i+2)
			}
		}
	}
	return NewModel(WithName("foliage"), WithVertices(vertices), WithIndices(indices))
}
