// Package renderer is the WebGPU render system: it owns the texture and sampler registries
// the material system acquires resources from, and executes recorded command buffers.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/hlms/wind"
	"github.com/Carmen-Shannon/oxy-wind/engine/model"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is the window the renderer presents to.
type Surface interface {
	// SurfaceDescriptor returns the platform surface descriptor.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the drawable width in pixels.
	Width() int

	// Height returns the drawable height in pixels.
	Height() int
}

// FrameStats counts what the last Execute did.
type FrameStats struct {
	// Draws is the number of draws submitted.
	Draws int

	// Skipped is the number of draws dropped because a texture was not resident yet.
	Skipped int

	// Pipelines is the number of GPU pipelines alive.
	Pipelines int
}

// pipelineEntry ties a GPU pipeline to the permutation it was built from.
type pipelineEntry struct {
	cache        *hlms.Cache
	pipeline     pipeline.Pipeline
	textureGroup wgpu.BindGroupLayoutDescriptor
	pass         bind_group_provider.BindGroupProvider
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	name         string
	textureGroup int
	logger       *slog.Logger

	backend  RendererBackend
	textures texture.Manager
	samplers *sampler.Pool

	gpuSamplers map[sampler.Handle]*wgpu.Sampler
	pipelines   map[uint32]*pipelineEntry
	materials   map[string]bind_group_provider.BindGroupProvider
	bindings    map[string]bind_group_provider.BindGroupProvider
	bound       map[string][]*wgpuTexture // textures referenced by each bindings entry
	meshes      map[uint64]bind_group_provider.BindGroupProvider
	stats       FrameStats

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	msaa                 MSAASampleCount
	textureOptions       []texture.ManagerBuilderOption
}

// Renderer is the render system the material system runs on.
//
// A frame is BeginFrame, one Execute per pass, EndFrame and Present. Execute replays a
// command buffer recorded by the scene: pipelines are created on first use from the
// permutation generated by the material system, and bind groups are cached by content.
type Renderer interface {
	hlms.RenderSystem

	// Resize reconfigures the surface for a new size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. It takes effect on the next Resize.
	SetPresentMode(mode PresentMode)

	// BeginFrame acquires the swapchain texture and begins the main render pass, clearing to
	// the given colour.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(clear common.ColourValue) error

	// Execute replays a command buffer in the current render pass.
	//
	// Parameters:
	//   - h: the material system that generated the permutations referenced by cb
	//   - passBuffer: the per-pass buffer prepared by h for this pass
	//   - cb: the recorded commands
	//
	// Returns:
	//   - error: a planning, pipeline or binding error; draws before the error were submitted
	Execute(h hlms.Hlms, passBuffer []byte, cb *command.Buffer) error

	// EndFrame ends the render pass and submits the frame.
	EndFrame()

	// Present presents the frame.
	Present()

	// Stats returns the counters of the last Execute.
	Stats() FrameStats

	// Release destroys every GPU object, the texture registry and the device.
	Release()
}

var _ Renderer = &renderer{}

// DefaultRenderSystemName returns the render system name reported on an operating system.
// It selects the shader folders of the material system: HLSL on Windows, Metal on macOS and
// GLSL elsewhere.
//
// Parameters:
//   - goos: a runtime.GOOS value
//
// Returns:
//   - string: the render system name
func DefaultRenderSystemName(goos string) string {
	switch goos {
	case "windows":
		return wind.RenderSystemD3D11
	case "darwin", "ios":
		return wind.RenderSystemMetal
	default:
		return wind.RenderSystemGL3Plus
	}
}

func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:           &sync.Mutex{},
		name:         DefaultRenderSystemName(runtime.GOOS),
		textureGroup: shader.DefaultTextureGroup,
		logger:       slog.Default(),
		samplers:     sampler.NewPool(),
		gpuSamplers:  make(map[sampler.Handle]*wgpu.Sampler),
		pipelines:    make(map[uint32]*pipelineEntry),
		materials:    make(map[string]bind_group_provider.BindGroupProvider),
		bindings:     make(map[string]bind_group_provider.BindGroupProvider),
		bound:        make(map[string][]*wgpuTexture),
		meshes:       make(map[uint64]bind_group_provider.BindGroupProvider),
		presentMode:  PresentModeVSync,
		msaa:         MSAA4x,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewRenderer creates the WebGPU render system for a window surface.
//
// Parameters:
//   - surface: the window to present to
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the render system
//   - error: an error if no adapter or device is available
func NewRenderer(surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := newRenderer(options...)
	backend, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, r.msaa)
	if err != nil {
		return nil, err
	}
	r.backend = backend
	r.textures = texture.NewManager(append([]texture.ManagerBuilderOption{
		texture.WithUploader(&gpuUploader{backend: backend, onRelease: r.releaseTexture}),
		texture.WithLogger(r.logger),
	}, r.textureOptions...)...)
	r.samplers.OnRelease(r.releaseSampler)

	r.backend.SetPresentMode(r.presentMode)
	r.backend.ConfigureSurface(surface.Width(), surface.Height())
	r.logger.Info("renderer: ready", "render_system", r.name, "msaa", uint32(r.msaa))
	return r, nil
}

func (r *renderer) Name() string {
	return r.name
}

func (r *renderer) TextureManager() texture.Manager {
	return r.textures
}

func (r *renderer) SamplerPool() *sampler.Pool {
	return r.samplers
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) BeginFrame(clear common.ColourValue) error {
	return r.backend.BeginFrame(clear)
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *renderer) Execute(h hlms.Hlms, passBuffer []byte, cb *command.Buffer) error {
	draws, err := planDraws(cb.Commands())
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = FrameStats{}
	defer func() { r.stats.Pipelines = len(r.pipelines) }()

	passWritten := make(map[*pipelineEntry]bool)
	for _, d := range draws {
		if d.mesh == nil || d.mesh.IndexCount() == 0 {
			continue
		}
		entry, err := r.pipelineFor(h, d.pipeline)
		if err != nil {
			return err
		}

		if !passWritten[entry] {
			if err := r.backend.WriteUniform(entry.pass, entry.pipeline, int(hlms.PassBufferSlot), passBuffer); err != nil {
				return fmt.Errorf("renderer: pass buffer: %w", err)
			}
			passWritten[entry] = true
		}
		material, err := r.materialFor(entry, d.material)
		if err != nil {
			return err
		}
		textures, err := r.texturesFor(entry, d)
		if errors.Is(err, texture.ErrNotResident) {
			r.stats.Skipped++
			continue
		}
		if err != nil {
			return err
		}
		mesh, err := r.meshFor(d.id, d.mesh)
		if err != nil {
			return err
		}

		groups := make([]bind_group_provider.BindGroupProvider, max(r.textureGroup+1, int(hlms.MaterialBufferSlot)+1))
		groups[hlms.PassBufferSlot] = entry.pass
		groups[hlms.MaterialBufferSlot] = material
		groups[r.textureGroup] = textures
		r.backend.Draw(entry.pipeline, mesh, groups)
		r.stats.Draws++
	}
	return nil
}

// pipelineFor returns the GPU pipeline of a permutation, rebuilding it when the material
// system regenerated the permutation since the pipeline was created.
func (r *renderer) pipelineFor(h hlms.Hlms, hash uint32) (*pipelineEntry, error) {
	cache, ok := h.Cache(hash)
	if !ok {
		return nil, fmt.Errorf("renderer: 0x%08x: %w", hash, ErrUnknownPipeline)
	}
	if entry, ok := r.pipelines[hash]; ok {
		if entry.cache == cache {
			return entry, nil
		}
		r.dropPipeline(hash, entry)
	}

	p := pipeline.ForCache(cache)
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return nil, fmt.Errorf("renderer: pipeline %s: %w", p.PipelineKey(), err)
	}
	merged := mergeBindGroupLayouts(cache.Vertex.BindGroupLayoutDescriptors(), cache.Pixel.BindGroupLayoutDescriptors())
	entry := &pipelineEntry{
		cache:        cache,
		pipeline:     p,
		textureGroup: merged[r.textureGroup],
		pass:         bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(p.PipelineKey() + " Pass")),
	}
	r.pipelines[hash] = entry
	r.logger.Debug("renderer: created pipeline", "pipeline", p.PipelineKey())
	return entry, nil
}

func (r *renderer) dropPipeline(hash uint32, entry *pipelineEntry) {
	prefix := entry.pipeline.PipelineKey() + "|"
	for _, providers := range []map[string]bind_group_provider.BindGroupProvider{r.materials, r.bindings} {
		for key, p := range providers {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				p.Release()
				delete(providers, key)
				delete(r.bound, key)
			}
		}
	}
	entry.pass.Release()
	entry.pipeline.Release()
	delete(r.pipelines, hash)
}

func (r *renderer) materialFor(entry *pipelineEntry, data []byte) (bind_group_provider.BindGroupProvider, error) {
	key := entry.pipeline.PipelineKey() + "|" + string(data)
	if p, ok := r.materials[key]; ok {
		return p, nil
	}
	p := bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(entry.pipeline.PipelineKey() + " Material"))
	if err := r.backend.WriteUniform(p, entry.pipeline, int(hlms.MaterialBufferSlot), data); err != nil {
		return nil, fmt.Errorf("renderer: material buffer: %w", err)
	}
	r.materials[key] = p
	return p, nil
}

func (r *renderer) texturesFor(entry *pipelineEntry, d drawCall) (bind_group_provider.BindGroupProvider, error) {
	if len(entry.textureGroup.Entries) == 0 {
		return nil, nil
	}
	slots, err := textureBindings(entry.textureGroup, d.textures)
	if err != nil {
		return nil, err
	}

	resolved := make([]resolvedBinding, len(slots))
	var textures []*wgpuTexture
	key := entry.pipeline.PipelineKey() + "|"
	for i, sb := range slots {
		resolved[i].binding = sb.binding
		if sb.isSampler {
			s, err := r.gpuSampler(sb.sampler)
			if err != nil {
				return nil, err
			}
			resolved[i].sampler = s
			key += fmt.Sprintf("%d:%s,", sb.binding, sb.sampler)
			continue
		}
		gt, err := r.textures.GPUTexture(sb.texture)
		if err != nil {
			return nil, fmt.Errorf("renderer: %s: %w", sb.texture, err)
		}
		wt, ok := gt.(*wgpuTexture)
		if !ok {
			return nil, fmt.Errorf("renderer: %s: %w", sb.texture, texture.ErrTypeMismatch)
		}
		resolved[i].view = wt.view
		textures = append(textures, wt)
		key += fmt.Sprintf("%d:%s,", sb.binding, sb.texture)
	}

	if p, ok := r.bindings[key]; ok {
		return p, nil
	}
	p := bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(entry.pipeline.PipelineKey() + " Textures"))
	if err := r.backend.BindTextures(p, entry.pipeline, r.textureGroup, resolved); err != nil {
		return nil, fmt.Errorf("renderer: texture bind group: %w", err)
	}
	r.bindings[key] = p
	r.bound[key] = textures
	return p, nil
}

// releaseTexture drops every texture bind group that references t. The manager calls
// it through the uploader when t is paged out or destroyed.
func (r *renderer) releaseTexture(t *wgpuTexture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, textures := range r.bound {
		if !slices.Contains(textures, t) {
			continue
		}
		if p, ok := r.bindings[key]; ok {
			p.Release()
			delete(r.bindings, key)
		}
		delete(r.bound, key)
	}
}

func (r *renderer) gpuSampler(h sampler.Handle) (*wgpu.Sampler, error) {
	if s, ok := r.gpuSamplers[h]; ok {
		return s, nil
	}
	block, ok := r.samplers.Block(h)
	if !ok {
		return nil, fmt.Errorf("renderer: %s: %w", h, texture.ErrInvalidHandle)
	}
	s, err := r.backend.CreateSampler(block, h.String())
	if err != nil {
		return nil, err
	}
	r.gpuSamplers[h] = s
	return s, nil
}

func (r *renderer) releaseSampler(h sampler.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.gpuSamplers[h]; ok {
		if s != nil {
			s.Release()
		}
		delete(r.gpuSamplers, h)
	}
}

func (r *renderer) meshFor(id uint64, m model.Model) (bind_group_provider.BindGroupProvider, error) {
	p, ok := r.meshes[id]
	if ok && p.Key() == m {
		return p, nil
	}
	if !ok {
		p = bind_group_provider.NewBindGroupProvider(bind_group_provider.WithLabel(fmt.Sprintf("%s #%d", m.Name(), id)))
		r.meshes[id] = p
	}
	if err := r.backend.UploadMesh(p, m.VertexData(), m.IndexData(), m.IndexCount()); err != nil {
		return nil, fmt.Errorf("renderer: mesh %d: %w", id, err)
	}
	p.SetKey(m)
	return p, nil
}

func (r *renderer) Release() {
	r.textures.Release()

	r.mu.Lock()
	for hash, entry := range r.pipelines {
		r.dropPipeline(hash, entry)
	}
	for id, p := range r.meshes {
		p.Release()
		delete(r.meshes, id)
	}
	for h, s := range r.gpuSamplers {
		if s != nil {
			s.Release()
		}
		delete(r.gpuSamplers, h)
	}
	r.mu.Unlock()

	r.backend.Release()
}

// gpuUploader creates manager textures on the WebGPU device.
type gpuUploader struct {
	backend   wgpuRendererBackend
	onRelease func(*wgpuTexture)
}

var _ texture.Uploader = &gpuUploader{}

func (u *gpuUploader) Upload(staging common.TextureStagingData) (texture.GPUTexture, error) {
	return u.backend.CreateTexture(staging)
}

func (u *gpuUploader) Release(tex texture.GPUTexture) {
	if t, ok := tex.(*wgpuTexture); ok {
		if u.onRelease != nil {
			u.onRelease(t)
		}
		t.release()
	}
}
