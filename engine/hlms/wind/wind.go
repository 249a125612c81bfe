// Package wind implements the wind extension of the PBS material system: animated vertex
// displacement driven by a 3D noise volume and a 2D wind-factor map, plus linear fog
// parameters in the per-pass buffer.
//
// The extension only configures the host. Textures and samplers are acquired through the
// scene's render system registries, shader variants are selected by the wind_enabled
// property, and the displacement code lives in the Hlms/Wind/Any library pieces.
package wind

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
)

// Identity of the wind material system.
const (
	Type     = hlms.TypeUser0
	TypeName = "Wind"
)

// Default texture names.
const (
	DefaultNoiseTexture      = "windNoise.dds"
	DefaultWindFactorTexture = "windFactor.png"
)

// Shader properties set by the extension.
const (
	PropertyWindEnabled   = "wind_enabled"
	PropertyWindFactorMap = "wind_factor_map"
)

// Vertex stage texture registers and the slots they are bound at.
const (
	RegisterPerlinNoise = "texPerlinNoise"
	RegisterWindFactor  = "texWindFactor"

	NoiseSlot      = hlms.FirstExtensionSlot
	WindFactorSlot = hlms.FirstExtensionSlot + 1
)

// PassParamsStruct is the @oxy:include key of the WindPassParams struct.
const PassParamsStruct = "wind_pass_params"

// ErrNotSetup is returned by Shutdown when Setup has not run.
var ErrNotSetup = errors.New("wind: not set up")

// NoiseSamplerBlock returns the sampler used for the noise volume: wrap on every axis,
// anisotropic magnification up to 8.
//
// Returns:
//   - sampler.Block: the noise sampler block
func NoiseSamplerBlock() sampler.Block {
	b := sampler.DefaultBlock()
	b.U, b.V, b.W = sampler.AddressWrap, sampler.AddressWrap, sampler.AddressWrap
	b.MaxAnisotropy = 8
	b.MagFilter = sampler.FilterAnisotropic
	return b
}

// WindFactorSamplerBlock returns the sampler used for the wind-factor map: clamp on every
// axis, no anisotropy, unfiltered magnification.
//
// Returns:
//   - sampler.Block: the wind-factor sampler block
func WindFactorSamplerBlock() sampler.Block {
	b := sampler.DefaultBlock()
	b.U, b.V, b.W = sampler.AddressClamp, sampler.AddressClamp, sampler.AddressClamp
	b.MaxAnisotropy = 0
	b.MagFilter = sampler.FilterNone
	return b
}

// resources are the handles owned by a set-up extension. The zero value holds only null handles.
type resources struct {
	noise             texture.Handle
	windFactor        texture.Handle
	noiseSampler      sampler.Handle
	windFactorSampler sampler.Handle
}

// wind is the implementation of the Wind interface.
type wind struct {
	noiseName      string
	windFactorName string
	group          string
	withWindFactor bool
	listener       *Listener
	logger         *slog.Logger

	mu    sync.RWMutex
	res   resources
	ready bool
}

// Wind is the wind extension. It is an hlms.Extension, an hlms.Lifecycle, an
// hlms.PassListenerProvider and an hlms.StructProvider.
type Wind interface {
	hlms.Extension
	hlms.Lifecycle
	hlms.PassListenerProvider
	hlms.StructProvider

	// Listener returns the pass listener holding the wind strength and time.
	//
	// Returns:
	//   - *Listener: the listener registered with the host
	Listener() *Listener

	// AddTime advances the listener's accumulated time by dt.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	AddTime(dt float32)

	// WithWindFactor reports whether the extension binds the wind-factor map.
	WithWindFactor() bool

	// NoiseTexture returns the noise volume handle, or the null handle before Setup.
	NoiseTexture() texture.Handle

	// WindFactorTexture returns the wind-factor map handle, or the null handle before Setup
	// and in the reduced variant.
	WindFactorTexture() texture.Handle

	// NoiseSampler returns the noise sampler handle, or the null handle before Setup.
	NoiseSampler() sampler.Handle

	// WindFactorSampler returns the wind-factor sampler handle, or the null handle before
	// Setup and in the reduced variant.
	WindFactorSampler() sampler.Handle

	// FillBuffersForV1 is FillBuffersFor for v1 meshes.
	FillBuffersForV1(cache *hlms.Cache, queued hlms.QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer)

	// FillBuffersForV2 is FillBuffersFor for v2 meshes.
	FillBuffersForV2(cache *hlms.Cache, queued hlms.QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer)
}

var _ Wind = &wind{}

// New creates the wind extension. Nothing is acquired until Setup.
//
// Parameters:
//   - options: a variadic list of WindBuilderOption functions
//
// Returns:
//   - Wind: the extension
func New(options ...WindBuilderOption) Wind {
	w := &wind{
		noiseName:      DefaultNoiseTexture,
		windFactorName: DefaultWindFactorTexture,
		group:          texture.AutodetectResourceGroup,
		withWindFactor: true,
		listener:       NewListener(),
		logger:         slog.Default(),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// NewHlms creates the wind material system: the PBS host with the wind extension
// registered, loading shaders from the default folders of the render system.
//
// Parameters:
//   - root: the media root, for example media.FS
//   - renderSystemName: the render system name used to pick the shader folders
//   - w: the wind extension
//   - options: additional host options
//
// Returns:
//   - hlms.Hlms: the material system
//   - error: a folder or library error
func NewHlms(root fs.FS, renderSystemName string, w Wind, options ...hlms.HlmsBuilderOption) (hlms.Hlms, error) {
	data, libs, err := DefaultPaths(renderSystemName).Open(root)
	if err != nil {
		return nil, err
	}
	return hlms.New(Type, TypeName, data, libs, append([]hlms.HlmsBuilderOption{hlms.WithExtension(w)}, options...)...)
}

func (w *wind) Name() string {
	return "wind"
}

func (w *wind) ReservedTextureSlots() uint32 {
	if w.withWindFactor {
		return 2
	}
	return 1
}

func (w *wind) WithWindFactor() bool {
	return w.withWindFactor
}

func (w *wind) Listener() *Listener {
	return w.listener
}

func (w *wind) PassListener() hlms.PassListener {
	return w.listener
}

func (w *wind) AddTime(dt float32) {
	w.listener.AddTime(dt)
}

func (w *wind) Structs() map[string]shader.Struct {
	return map[string]shader.Struct{
		PassParamsStruct: {Source: GPUWindPassParamsSource, Type: "WindPassParams"},
	}
}

func (w *wind) Setup(ctx hlms.SceneContext) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready {
		return nil
	}

	rs := ctx.RenderSystem()
	tm, pool := rs.TextureManager(), rs.SamplerPool()
	var res resources
	var undo []func()
	rollback := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}

	acquire := func(name string, typ texture.Type, block sampler.Block) (texture.Handle, sampler.Handle, error) {
		sh := pool.Get(block)
		undo = append(undo, func() { _ = pool.Destroy(sh) })
		th, err := tm.CreateOrRetrieve(name, texture.Discard, texture.PrefersLoadingFromFileAsSRGB, typ, w.group)
		if err != nil {
			return texture.Handle{}, sampler.Handle{}, fmt.Errorf("wind: create %s: %w", name, err)
		}
		undo = append(undo, func() { _ = tm.Destroy(th) })
		if err := tm.ScheduleTransitionTo(th, texture.Resident); err != nil {
			return texture.Handle{}, sampler.Handle{}, fmt.Errorf("wind: schedule %s: %w", name, err)
		}
		return th, sh, nil
	}

	var err error
	if res.noise, res.noiseSampler, err = acquire(w.noiseName, texture.Type3D, NoiseSamplerBlock()); err != nil {
		return rollback(err)
	}
	if w.withWindFactor {
		if res.windFactor, res.windFactorSampler, err = acquire(w.windFactorName, texture.Type2D, WindFactorSamplerBlock()); err != nil {
			return rollback(err)
		}
	}

	w.res, w.ready = res, true
	w.logger.Debug("wind: set up", "noise", res.noise, "wind_factor", res.windFactor)
	return nil
}

func (w *wind) Shutdown(ctx hlms.SceneContext) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.ready {
		return ErrNotSetup
	}

	rs := ctx.RenderSystem()
	tm, pool := rs.TextureManager(), rs.SamplerPool()
	var errs []error
	for _, th := range []texture.Handle{w.res.noise, w.res.windFactor} {
		if !th.IsNull() {
			if err := tm.Destroy(th); err != nil {
				errs = append(errs, fmt.Errorf("wind: destroy %s: %w", th, err))
			}
		}
	}
	for _, sh := range []sampler.Handle{w.res.noiseSampler, w.res.windFactorSampler} {
		if !sh.IsNull() {
			if err := pool.Destroy(sh); err != nil {
				errs = append(errs, fmt.Errorf("wind: destroy %s: %w", sh, err))
			}
		}
	}
	w.res, w.ready = resources{}, false
	return errors.Join(errs...)
}

func (w *wind) CalculateHashForPreCreate(_ hlms.Renderable, props *shader.PropertySet) {
	props.Set(PropertyWindEnabled, 1)
	if w.withWindFactor {
		props.Set(PropertyWindFactorMap, 1)
	}
}

func (w *wind) PropertiesMergedPreGenerationStep(regs *shader.TextureRegisters) {
	regs.Set(shader.ShaderTypeVertex, RegisterPerlinNoise, NoiseSlot)
	if w.withWindFactor {
		regs.Set(shader.ShaderTypeVertex, RegisterWindFactor, WindFactorSlot)
	}
}

func (w *wind) FillBuffersFor(_ *hlms.Cache, _ hlms.QueuedRenderable, _ bool, _ uint32, cb *command.Buffer, _ bool) {
	w.mu.RLock()
	res := w.res
	w.mu.RUnlock()

	cb.Add(command.TextureBind{Slot: NoiseSlot, Texture: res.noise, Sampler: res.noiseSampler})
	if w.withWindFactor {
		cb.Add(command.TextureBind{Slot: WindFactorSlot, Texture: res.windFactor, Sampler: res.windFactorSampler})
	}
}

func (w *wind) FillBuffersForV1(cache *hlms.Cache, queued hlms.QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) {
	w.FillBuffersFor(cache, queued, casterPass, lastCacheHash, cb, true)
}

func (w *wind) FillBuffersForV2(cache *hlms.Cache, queued hlms.QueuedRenderable, casterPass bool, lastCacheHash uint32, cb *command.Buffer) {
	w.FillBuffersFor(cache, queued, casterPass, lastCacheHash, cb, false)
}

func (w *wind) NoiseTexture() texture.Handle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.noise
}

func (w *wind) WindFactorTexture() texture.Handle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.windFactor
}

func (w *wind) NoiseSampler() sampler.Handle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.noiseSampler
}

func (w *wind) WindFactorSampler() sampler.Handle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.res.windFactorSampler
}
