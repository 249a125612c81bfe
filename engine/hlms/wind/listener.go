package wind

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
)

// DefaultWindStrength is the wind strength of a new Listener.
const DefaultWindStrength float32 = 0.5

// Listener fills the wind block of the per-pass buffer. It is safe for concurrent use, so
// the frame loop can advance time while a pass buffer is being prepared.
type Listener struct {
	mu           sync.Mutex
	windStrength float32
	globalTime   float32
}

var _ hlms.PassListener = &Listener{}

// NewListener creates a Listener with DefaultWindStrength and a global time of 0.
func NewListener() *Listener {
	return &Listener{windStrength: DefaultWindStrength}
}

// SetTime replaces the accumulated time.
func (l *Listener) SetTime(t float32) {
	l.mu.Lock()
	l.globalTime = t
	l.mu.Unlock()
}

// AddTime advances the accumulated time by dt.
func (l *Listener) AddTime(dt float32) {
	l.mu.Lock()
	l.globalTime += dt
	l.mu.Unlock()
}

// Time returns the accumulated time.
func (l *Listener) Time() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.globalTime
}

// SetWindStrength sets the displacement scale.
func (l *Listener) SetWindStrength(s float32) {
	l.mu.Lock()
	l.windStrength = s
	l.mu.Unlock()
}

// WindStrength returns the displacement scale.
func (l *Listener) WindStrength() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.windStrength
}

// Params builds the wind block for a pass from the scene fog and the wind state.
//
// Parameters:
//   - ctx: the pass; a nil scene means no fog
//
// Returns:
//   - GPUWindPassParams: the block contents
func (l *Listener) Params(ctx *hlms.PassContext) GPUWindPassParams {
	p := GPUWindPassParams{FogColour: [4]float32{0, 0, 0, 1}}
	if ctx != nil && ctx.Scene != nil {
		c := ctx.Scene.FogColour()
		p.FogParams = [4]float32{ctx.Scene.FogStart(), ctx.Scene.FogEnd(), 0, 0}
		p.FogColour = [4]float32{c.R, c.G, c.B, 1}
	}
	l.mu.Lock()
	p.WindStrength, p.GlobalTime = l.windStrength, l.globalTime
	l.mu.Unlock()
	return p
}

// PassBufferSize returns 0 for shadow caster passes and 40 otherwise.
func (l *Listener) PassBufferSize(ctx *hlms.PassContext) uint32 {
	if ctx.CasterPass {
		return 0
	}
	var p GPUWindPassParams
	return uint32(p.Size())
}

// PreparePassBuffer writes fog start, fog end, 0, 0, fog RGB, 1, wind strength and global
// time, and returns dst after them. Caster passes write nothing and return dst unchanged.
func (l *Listener) PreparePassBuffer(ctx *hlms.PassContext, dst []float32) []float32 {
	if ctx.CasterPass {
		return dst
	}
	p := l.Params(ctx)
	return dst[copy(dst, p.Floats()):]
}
