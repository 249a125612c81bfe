package material

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMaterial_Defaults(t *testing.T) {
	m := NewMaterial()
	assert.Equal(t, [4]float32{1, 1, 1, 1}, m.BaseColor())
	assert.Equal(t, float32(0), m.Metallic())
	assert.Equal(t, float32(1), m.Roughness())
	assert.Empty(t, m.DiffuseTexture())
	assert.False(t, m.Transparent())
}

func TestNewMaterial_Options(t *testing.T) {
	m := NewMaterial(
		WithName("grass"),
		WithBaseColor([4]float32{0.2, 0.6, 0.1, 1}),
		WithMetallic(2),
		WithRoughness(-1),
		WithDiffuseTexture("grass_d.png"),
		WithNormalTexture("grass_n.png"),
		WithMetallicRoughnessTexture("grass_mr.png"),
		WithTransparent(true),
	)
	assert.Equal(t, "grass", m.Name())
	assert.Equal(t, float32(1), m.Metallic(), "metallic is clamped")
	assert.Equal(t, float32(0), m.Roughness(), "roughness is clamped")
	assert.Equal(t, "grass_d.png", m.DiffuseTexture())
	assert.Equal(t, "grass_n.png", m.NormalTexture())
	assert.Equal(t, "grass_mr.png", m.MetallicRoughnessTexture())
	assert.Equal(t, MaterialFlagTransparent, m.Params().Flags)
}

func TestGPUMaterialParams_Marshal(t *testing.T) {
	p := NewMaterial(WithBaseColor([4]float32{0.5, 0.25, 1, 1}), WithMetallic(0.75)).Params()
	assert.Equal(t, 32, p.Size())

	buf := p.Marshal()
	assert.Len(t, buf, p.Size())
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(0.75), math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[20:24])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[24:28]))

	assert.True(t, strings.Contains(GPUMaterialParamsSource, "struct MaterialParams"))
}
