package renderer

import (
	"github.com/Carmen-Shannon/oxy-wind/common"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/sampler"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// WebGPU guarantees support for 1 (off) and 4.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// RendererBackend is the GPU API the Renderer drives. The WebGPU implementation is the only one.
type RendererBackend interface {
	wgpuRendererBackend
}

type wgpuRendererBackend interface {
	// ConfigureSurface (re)creates the swapchain, MSAA and depth targets for a surface size.
	ConfigureSurface(width, height int)

	// SetPresentMode selects the present mode used by the next ConfigureSurface.
	SetPresentMode(mode PresentMode)

	// CreateTexture uploads staging pixels into a new 2D or 3D texture.
	CreateTexture(staging common.TextureStagingData) (*wgpuTexture, error)

	// CreateSampler creates a GPU sampler for a sampler block.
	CreateSampler(block sampler.Block, label string) (*wgpu.Sampler, error)

	// RegisterRenderPipeline creates the GPU pipeline of a pipeline description.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// WriteUniform writes data to the provider's buffer at a binding, creating the buffer and a
	// bind group over it with the pipeline's layout of the given group when needed.
	WriteUniform(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, group int, data []byte) error

	// BindTextures creates the bind group of the texture group from resolved bindings.
	BindTextures(provider bind_group_provider.BindGroupProvider, p pipeline.Pipeline, group int, bindings []resolvedBinding) error

	// UploadMesh creates the vertex and index buffers of a mesh.
	UploadMesh(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	BeginFrame(clear common.ColourValue) error

	// Draw encodes one indexed draw in the current render pass.
	Draw(p pipeline.Pipeline, mesh bind_group_provider.BindGroupProvider, groups []bind_group_provider.BindGroupProvider)

	// EndFrame ends the render pass and submits the frame's commands.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()

	// Release frees the device, surface and targets.
	Release()
}
