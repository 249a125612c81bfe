package texture

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/pierrec/lz4/v4"
)

// ramCopy is the CPU-side copy of a texture kept according to its PageOutStrategy.
// Compressed copies store an lz4 block; incompressible data is stored as-is.
type ramCopy struct {
	meta       common.TextureStagingData // Pixels is nil when compressed
	block      []byte
	compressed bool
}

func newRAMCopy(data common.TextureStagingData, compress bool) (*ramCopy, error) {
	if !compress {
		c := &ramCopy{meta: data}
		c.meta.Pixels = append([]byte(nil), data.Pixels...)
		return c, nil
	}

	buf := make([]byte, lz4.CompressBlockBound(len(data.Pixels)))
	n, err := lz4.CompressBlock(data.Pixels, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("texture: compress %s: %w", data.Name, err)
	}
	if n == 0 || n >= len(data.Pixels) {
		return newRAMCopy(data, false)
	}

	c := &ramCopy{meta: data, block: buf[:n:n], compressed: true}
	c.meta.Pixels = nil
	return c, nil
}

// staging returns the pixels as staging data, decompressing if needed.
func (c *ramCopy) staging() (common.TextureStagingData, error) {
	if !c.compressed {
		return c.meta, nil
	}
	out := c.meta
	out.Pixels = make([]byte, c.meta.SliceSize()*int(max(c.meta.Depth, 1)))
	n, err := lz4.UncompressBlock(c.block, out.Pixels)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("texture: decompress %s: %w", c.meta.Name, err)
	}
	if n != len(out.Pixels) {
		return common.TextureStagingData{}, fmt.Errorf("texture: decompress %s: got %d bytes, want %d", c.meta.Name, n, len(out.Pixels))
	}
	return out, nil
}

// size returns the number of bytes held in memory.
func (c *ramCopy) size() int {
	if c.compressed {
		return len(c.block)
	}
	return len(c.meta.Pixels)
}
