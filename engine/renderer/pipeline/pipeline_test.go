package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-wind/engine/hlms"
	"github.com/Carmen-Shannon/oxy-wind/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func testCache(blend bool) *hlms.Cache {
	props := shader.NewPropertySet()
	if blend {
		props.Set(hlms.PropertyAlphaBlend, 1)
	}
	return &hlms.Cache{
		Hash:       0xbeef,
		Properties: props,
		Vertex:     shader.NewShader("vs", shader.ShaderTypeVertex, "@vertex fn vs_main() {}", nil),
		Pixel:      shader.NewShader("ps", shader.ShaderTypeFragment, "@fragment fn fs_main() {}", nil),
	}
}

func TestForCache_Opaque(t *testing.T) {
	c := testCache(false)
	p := ForCache(c)
	assert.Equal(t, "pbs_0000beef", p.PipelineKey())
	assert.Equal(t, uint32(0xbeef), p.Hash())
	assert.Same(t, c.Vertex, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, c.Pixel, p.Shader(shader.ShaderTypeFragment))
	assert.Nil(t, p.Shader(shader.ShaderTypeCompute))
	assert.False(t, p.BlendEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Nil(t, p.RenderPipeline())
}

func TestForCache_Transparent(t *testing.T) {
	p := ForCache(testCache(true), WithCullMode(wgpu.CullModeBack))
	assert.True(t, p.BlendEnabled())
	assert.Same(t, AlphaBlending, p.BlendState())
	assert.False(t, p.DepthWriteEnabled())
	assert.True(t, p.DepthTestEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
}
