// Package pipeline describes the fixed-function render state of a generated shader permutation.
package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string
	hash        uint32

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is nil until the render system creates the GPU object.
	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline defines the render state and shaders of one permutation together with the GPU
// pipeline created from them.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for labels and logging.
	PipelineKey() string

	// Hash returns the permutation hash the pipeline was built for.
	Hash() uint32

	// Shader retrieves the shader associated with the specified stage, or nil if not set.
	//
	// Parameters:
	//   - shaderType: the stage (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader for the stage, or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the GPU pipeline, or nil before the render system created it.
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the GPU pipeline created for this description.
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// DepthTestEnabled reports whether fragments are depth tested.
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether fragments write depth.
	DepthWriteEnabled() bool

	// BlendEnabled reports whether BlendState is applied to the colour target.
	BlendEnabled() bool

	// CullMode returns the face culling mode.
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology.
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the winding order of front faces.
	FrontFace() wgpu.FrontFace

	// WriteMask returns the colour write mask.
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state used when BlendEnabled is true.
	BlendState() *wgpu.BlendState

	// Release frees the GPU pipeline, if any.
	Release()
}

var _ Pipeline = &pipeline{}

// AlphaBlending is the premultiplied-free "over" blend used by transparent permutations.
var AlphaBlending = &wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// NewPipeline creates a pipeline description with depth testing and writing on, no culling,
// a triangle list topology and counter-clockwise front faces.
//
// Parameters:
//   - pipelineKey: the unique key of the pipeline
//   - hash: the permutation hash
//   - opts: variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the pipeline description
func NewPipeline(pipelineKey string, hash uint32, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		hash:              hash,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ForCache derives the pipeline of a generated permutation. Permutations with the alpha
// blend property blend over the target and leave depth untouched.
//
// Parameters:
//   - cache: the permutation
//   - opts: options applied after the derived state
//
// Returns:
//   - Pipeline: the pipeline description
func ForCache(cache *hlms.Cache, opts ...PipelineBuilderOption) Pipeline {
	derived := []PipelineBuilderOption{
		WithVertexShader(cache.Vertex),
		WithFragmentShader(cache.Pixel),
	}
	if cache.Properties != nil && cache.Properties.Get(hlms.PropertyAlphaBlend) != 0 {
		derived = append(derived, WithBlendEnabled(true), WithBlendState(AlphaBlending), WithDepthWriteEnabled(false))
	}
	return NewPipeline(fmt.Sprintf("pbs_%08x", cache.Hash), cache.Hash, append(derived, opts...)...)
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Hash() uint32 {
	return p.hash
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
