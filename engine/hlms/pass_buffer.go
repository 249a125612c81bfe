package hlms

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/common"
)

func basePassParams(ctx *PassContext) GPUPassParams {
	p := ctx.CameraPosition
	return GPUPassParams{
		ViewProj:       ctx.ViewProj,
		CameraPosition: [4]float32{p[0], p[1], p[2], 1},
	}
}

func (h *hlms) PassBufferSize(ctx *PassContext) uint32 {
	var base GPUPassParams
	size := uint32(base.Size())
	for _, l := range h.listeners {
		size += l.PassBufferSize(ctx)
	}
	return size
}

func (h *hlms) PreparePassBuffer(ctx *PassContext) ([]byte, error) {
	base := basePassParams(ctx)
	sizes := make([]uint32, len(h.listeners))
	total := uint32(base.Size())
	for i, l := range h.listeners {
		sizes[i] = l.PassBufferSize(ctx)
		if sizes[i]%4 != 0 {
			return nil, fmt.Errorf("%w: listener %d reported %d bytes, not a whole number of floats", ErrPassBufferMismatch, i, sizes[i])
		}
		total += sizes[i]
	}

	buf := make([]float32, total/4)
	rest := buf[copy(buf, base.Floats()):]
	for i, l := range h.listeners {
		want := int(sizes[i] / 4)
		after := l.PreparePassBuffer(ctx, rest)
		if got := len(rest) - len(after); got != want {
			return nil, fmt.Errorf("%w: listener %d reported %d floats, wrote %d", ErrPassBufferMismatch, i, want, got)
		}
		rest = rest[want:]
	}
	return common.Float32sToBytes(buf), nil
}
