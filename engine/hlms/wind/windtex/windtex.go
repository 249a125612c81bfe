// Package windtex generates the default wind textures: a tileable RGB value-noise volume
// and a vertical wind-factor gradient.
package windtex

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/chewxy/math32"
)

// latticeCells is the number of noise lattice cells along each axis of the volume.
const latticeCells = 4

// lattice is a periodic grid of random values in [0, 1].
type lattice struct {
	n      int
	values []float32
}

func newLattice(n int, rng *rand.Rand) *lattice {
	l := &lattice{n: n, values: make([]float32, n*n*n)}
	for i := range l.values {
		l.values[i] = rng.Float32()
	}
	return l
}

func (l *lattice) at(x, y, z int) float32 {
	wrap := func(v int) int { return ((v % l.n) + l.n) % l.n }
	return l.values[(wrap(z)*l.n+wrap(y))*l.n+wrap(x)]
}

func smooth(t float32) float32 {
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// sample returns trilinearly interpolated, smoothstepped value noise at p, in lattice units.
func (l *lattice) sample(x, y, z float32) float32 {
	x0, y0, z0 := math32.Floor(x), math32.Floor(y), math32.Floor(z)
	tx, ty, tz := smooth(x-x0), smooth(y-y0), smooth(z-z0)
	ix, iy, iz := int(x0), int(y0), int(z0)

	c := func(dx, dy, dz int) float32 { return l.at(ix+dx, iy+dy, iz+dz) }
	x00 := lerp(c(0, 0, 0), c(1, 0, 0), tx)
	x10 := lerp(c(0, 1, 0), c(1, 1, 0), tx)
	x01 := lerp(c(0, 0, 1), c(1, 0, 1), tx)
	x11 := lerp(c(0, 1, 1), c(1, 1, 1), tx)
	return lerp(lerp(x00, x10, ty), lerp(x01, x11, ty), tz)
}

// NoiseVolume generates a size^3 RGBA8 volume. Each colour channel is an independent,
// tileable value-noise field with two octaves, so the volume wraps seamlessly.
//
// Parameters:
//   - size: the edge length in texels, at least 1
//   - seed: the random seed
//
// Returns:
//   - common.TextureStagingData: the volume
func NoiseVolume(size int, seed uint64) common.TextureStagingData {
	if size < 1 {
		panic(fmt.Sprintf("windtex: invalid volume size %d", size))
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var channels [3][2]*lattice
	for c := range channels {
		channels[c][0] = newLattice(latticeCells, rng)
		channels[c][1] = newLattice(latticeCells*2, rng)
	}

	s := uint32(size)
	data := common.TextureStagingData{
		Name:      "windNoise",
		Width:     s,
		Height:    s,
		Depth:     s,
		Dimension: common.Dimension3D,
		Pixels:    make([]byte, 0, size*size*size*4),
	}
	scale := float32(latticeCells) / float32(size)
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				fx, fy, fz := float32(x)*scale, float32(y)*scale, float32(z)*scale
				for c := range channels {
					v := 0.65*channels[c][0].sample(fx, fy, fz) + 0.35*channels[c][1].sample(fx*2, fy*2, fz*2)
					data.Pixels = append(data.Pixels, byte(math32.Round(math32.Min(math32.Max(v, 0), 1)*255)))
				}
				data.Pixels = append(data.Pixels, 255)
			}
		}
	}
	return data
}

// WindFactor generates a size x size map whose red channel falls from 1 at the top row to 0
// at the bottom row, so the tops of foliage sway the most.
//
// Parameters:
//   - size: the edge length in pixels, at least 1
//
// Returns:
//   - *image.RGBA: the map
func WindFactor(size int) *image.RGBA {
	if size < 1 {
		panic(fmt.Sprintf("windtex: invalid map size %d", size))
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		t := float32(1)
		if size > 1 {
			t = 1 - float32(y)/float32(size-1)
		}
		v := byte(math32.Round(math32.Pow(t, 1.5) * 255))
		for x := 0; x < size; x++ {
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

// WriteNoiseDDS writes NoiseVolume as an uncompressed DDS volume.
func WriteNoiseDDS(w io.Writer, size int, seed uint64) error {
	return texture.EncodeDDS(w, NoiseVolume(size, seed))
}

// WriteWindFactorPNG writes WindFactor as a PNG.
func WriteWindFactorPNG(w io.Writer, size int) error {
	return png.Encode(w, WindFactor(size))
}

// GenerateFiles writes both textures into dir under the given names.
//
// Parameters:
//   - dir: the output directory, created if missing
//   - noiseName: the file name of the noise volume
//   - factorName: the file name of the wind-factor map
//   - size: the edge length of both textures
//   - seed: the noise seed
//
// Returns:
//   - []string: the written paths
//   - error: any file or encoding error
func GenerateFiles(dir, noiseName, factorName string, size int, seed uint64) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("windtex: create %s: %w", dir, err)
	}
	write := func(name string, fn func(io.Writer) error) (string, error) {
		p := filepath.Join(dir, name)
		f, err := os.Create(p)
		if err != nil {
			return "", fmt.Errorf("windtex: %w", err)
		}
		if err := fn(f); err != nil {
			f.Close()
			return "", fmt.Errorf("windtex: encode %s: %w", name, err)
		}
		return p, f.Close()
	}

	noise, err := write(noiseName, func(w io.Writer) error { return WriteNoiseDDS(w, size, seed) })
	if err != nil {
		return nil, err
	}
	factor, err := write(factorName, func(w io.Writer) error { return WriteWindFactorPNG(w, size) })
	if err != nil {
		return nil, err
	}
	return []string{noise, factor}, nil
}
