package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestPropertySet_Hash(t *testing.T) {
	a := NewPropertySet()
	a.Set("diffuse_map", 1)
	a.Set("hlms_skeleton", 0)

	b := NewPropertySet()
	b.Set("hlms_skeleton", 0)
	b.Set("diffuse_map", 1)
	assert.Equal(t, a.Hash(), b.Hash(), "insertion order must not matter")

	b.Set("wind_enabled", 1)
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := b.Clone()
	c.Delete("wind_enabled")
	assert.Equal(t, a.Hash(), c.Hash())
	assert.True(t, b.Has("wind_enabled"), "clone must be independent")

	assert.Equal(t, []string{"diffuse_map", "hlms_skeleton"}, a.Names())
	assert.True(t, a.Has("hlms_skeleton"))
	assert.Equal(t, int32(0), a.Get("missing"))
	assert.Equal(t, "{diffuse_map=1 hlms_skeleton=0}", a.String())
}

func TestTextureRegisters(t *testing.T) {
	r := NewTextureRegisters()
	r.Set(ShaderTypeVertex, "texPerlinNoise", 14)
	r.Set(ShaderTypeVertex, "texWindFactor", 15)
	r.Set(ShaderTypeFragment, "texDiffuse", 0)

	slot, ok := r.Slot(ShaderTypeVertex, "texWindFactor")
	require.True(t, ok)
	assert.Equal(t, uint32(15), slot)

	_, ok = r.Slot(ShaderTypeFragment, "texPerlinNoise")
	assert.False(t, ok, "registers are per stage")

	all := r.All(ShaderTypeVertex)
	assert.Equal(t, map[string]uint32{"texPerlinNoise": 14, "texWindFactor": 15}, all)
	all["x"] = 1
	_, ok = r.Slot(ShaderTypeVertex, "x")
	assert.False(t, ok, "All returns a copy")

	before := r.Hash()
	r.Set(ShaderTypeVertex, "texWindFactor", 16)
	assert.NotEqual(t, before, r.Hash())
}

func TestPreProcessor_PropertyBlocks(t *testing.T) {
	src := `a
//@oxy:property wind_enabled
wind
//@oxy:property !hlms_skeleton
static
//@oxy:else
skinned
//@oxy:end
//@oxy:else
calm
//@oxy:end
z`
	tests := []struct {
		name  string
		props map[string]int32
		want  []string
	}{
		{name: "nothing set", want: []string{"a", "calm", "z"}},
		{name: "wind static", props: map[string]int32{"wind_enabled": 1}, want: []string{"a", "wind", "static", "z"}},
		{name: "wind skinned", props: map[string]int32{"wind_enabled": 1, "hlms_skeleton": 1}, want: []string{"a", "wind", "skinned", "z"}},
		{name: "skinned without wind", props: map[string]int32{"hlms_skeleton": 1}, want: []string{"a", "calm", "z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := NewPropertySet()
			for k, v := range tt.props {
				props.Set(k, v)
			}
			out, err := NewPreProcessor().Process(src, props, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(out))
		})
	}
}

func TestPreProcessor_PiecesAndValues(t *testing.T) {
	lib := NewLibrary()
	lib.Define("Displace", "pos += wind;\n//@oxy:insert Inner")
	lib.Define("Inner", "// inner from library")

	src := `//@oxy:piece Inner
inner from template
//@oxy:endpiece
fn main() {
//@oxy:insert Displace
let slots =
//@oxy:value reserved
;
}`
	props := NewPropertySet()
	props.Set("reserved", 2)
	out, err := NewPreProcessor(WithLibrary(lib)).Process(src, props, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"fn main() {", "pos += wind;", "inner from template", "let slots =", "2", ";", "}"}, lines(out))
}

func TestPreProcessor_TexReg(t *testing.T) {
	regs := NewTextureRegisters()
	regs.Set(ShaderTypeVertex, "texPerlinNoise", 14)

	p := NewPreProcessor(WithTextureGroup(3))
	out, err := p.Process("//@oxy:texreg vertex texPerlinNoise texture_3d<f32> samplerPerlinNoise", nil, regs)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"@group(3) @binding(14) var texPerlinNoise: texture_3d<f32>;",
		"@group(3) @binding(30) var samplerPerlinNoise: sampler;",
	}, lines(out))

	decls := p.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, uint32(14), decls[0].Slot)
	assert.Equal(t, ShaderTypeVertex, decls[0].Stage)

	_, err = p.Process("//@oxy:texreg vertex texWindFactor texture_2d<f32>", nil, regs)
	assert.ErrorContains(t, err, "texWindFactor")

	out, err = p.Process("//@oxy:property wind_enabled\n//@oxy:texreg vertex texWindFactor texture_2d<f32>\n//@oxy:end", nil, regs)
	require.NoError(t, err, "inactive texreg must not be resolved")
	assert.Empty(t, lines(out))
	assert.Empty(t, p.Declarations())
}

func TestPreProcessor_Include(t *testing.T) {
	p := NewPreProcessor(WithStruct("wind_pass_params", Struct{Source: "struct WindPassParams { t: f32, }", Type: "WindPassParams"}))
	out, err := p.Process("//@oxy:include wind_pass_params", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "struct WindPassParams { t: f32, }", out)

	_, err = p.Process("//@oxy:include missing", nil, nil)
	assert.Error(t, err)
}

func TestPreProcessor_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "unterminated block", src: "//@oxy:property a\nx"},
		{name: "stray end", src: "//@oxy:end"},
		{name: "stray else", src: "//@oxy:else"},
		{name: "double else", src: "//@oxy:property a\n//@oxy:else\n//@oxy:else\n//@oxy:end"},
		{name: "unknown annotation", src: "//@oxy:loop 3"},
		{name: "bad arity", src: "//@oxy:insert"},
		{name: "unknown piece", src: "//@oxy:insert Nope"},
		{name: "unterminated piece", src: "//@oxy:piece P\nx"},
		{name: "nested piece", src: "//@oxy:piece A\n//@oxy:piece B\n//@oxy:endpiece\n//@oxy:endpiece"},
		{name: "recursive piece", src: "//@oxy:piece Loop\n//@oxy:insert Loop\n//@oxy:endpiece\n//@oxy:insert Loop"},
		{name: "bad stage", src: "//@oxy:texreg geometry t texture_2d<f32>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(tt.src, nil, nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadLibrary_LaterFoldersOverride(t *testing.T) {
	common := fstest.MapFS{
		"a.wgsl":     {Data: []byte("//@oxy:piece Shared\ncommon\n//@oxy:endpiece\n//@oxy:piece OnlyCommon\nc\n//@oxy:endpiece")},
		"notes.txt":  {Data: []byte("//@oxy:piece Ignored\nx\n//@oxy:endpiece")},
		"sub/b.wgsl": {Data: []byte("top-level text is ignored")},
	}
	wind := fstest.MapFS{
		"wind.wgsl": {Data: []byte("//@oxy:piece Shared\nwind\n//@oxy:endpiece")},
	}

	lib, err := LoadLibrary(common, wind)
	require.NoError(t, err)
	assert.Equal(t, []string{"OnlyCommon", "Shared"}, lib.Names())

	body, ok := lib.Piece("Shared")
	require.True(t, ok)
	assert.Equal(t, "wind", body)
	assert.Equal(t, "folder[1]/wind.wgsl", lib.Origin("Shared"))

	_, err = LoadLibrary(fstest.MapFS{"bad.wgsl": {Data: []byte("//@oxy:piece Open")}})
	assert.Error(t, err)
}

func TestNewShader_Layouts(t *testing.T) {
	src := `@group(0) @binding(0) var<uniform> pass: PassParams;
@group(2) @binding(15) var texWindFactor: texture_2d<f32>;
@group(2) @binding(14) var texPerlinNoise: texture_3d<f32>;
@group(2) @binding(30) var samplerPerlinNoise: sampler;
@vertex
fn vs_main() {}`
	s := NewShader("wind_vs", ShaderTypeVertex, src, nil)
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, "wind_vs", s.Module().Label)
	assert.Equal(t, "texPerlinNoise", s.BindGroupVarName(2, 14))

	layouts := s.BindGroupLayoutDescriptors()
	require.Len(t, layouts, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, layouts[0].Entries[0].Buffer.Type)

	g2 := layouts[2].Entries
	require.Len(t, g2, 3)
	assert.Equal(t, uint32(14), g2[0].Binding, "entries are sorted by binding")
	assert.Equal(t, wgpu.TextureViewDimension3D, g2[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, g2[0].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, g2[1].Texture.ViewDimension)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, g2[2].Sampler.Type)
	assert.Equal(t, wgpu.ShaderStageVertex, g2[2].Visibility)

	assert.Panics(t, func() { NewShader("empty", ShaderTypeVertex, "", nil) })
}

func TestParseShaderType(t *testing.T) {
	for in, want := range map[string]ShaderType{"vertex": ShaderTypeVertex, "pixel": ShaderTypeFragment, "fragment": ShaderTypeFragment} {
		got, err := ParseShaderType(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseShaderType("hull")
	assert.Error(t, err)
}
