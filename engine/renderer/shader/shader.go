package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader runs at.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment (pixel) shader type, used in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "pixel"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ParseShaderType converts a stage name used in annotations into a ShaderType.
// "pixel" and "fragment" both name the fragment stage.
//
// Parameters:
//   - s: the stage name
//
// Returns:
//   - ShaderType: the parsed stage
//   - error: an error if the name is unknown
func ParseShaderType(s string) (ShaderType, error) {
	switch s {
	case "vertex":
		return ShaderTypeVertex, nil
	case "pixel", "fragment":
		return ShaderTypeFragment, nil
	case "compute":
		return ShaderTypeCompute, nil
	default:
		return 0, fmt.Errorf("unknown shader stage %q", s)
	}
}

// shader is the implementation of the Shader interface.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	declarations               []Annotation
	module                     *wgpu.ShaderModuleDescriptor
}

// Shader is a generated WGSL shader for one pipeline stage, together with the metadata the
// renderer needs to build pipeline and bind group layouts for it.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the generated WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name, or empty if the source declares none for its stage
	EntryPoint() string

	// BindGroupLayoutDescriptors retrieves the bind group layouts declared by the source.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name bound at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if nothing is bound there
	BindGroupVarName(group, binding int) string

	// Module returns the wgpu.ShaderModuleDescriptor for this shader.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the shader module descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Declarations returns the texture register annotations expanded while generating the source.
	//
	// Returns:
	//   - []Annotation: the texreg annotations in source order
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader wraps generated WGSL source. Empty source is a programmer error and panics.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels and caching
//   - shaderType: the pipeline stage of the shader
//   - source: the pre-processed WGSL source
//   - declarations: the annotations collected by the pre-processor
//
// Returns:
//   - Shader: the new shader
func NewShader(key string, shaderType ShaderType, source string, declarations []Annotation) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s has no source", key))
	}
	visibility := wgpu.ShaderStageNone
	switch shaderType {
	case ShaderTypeVertex:
		visibility = wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		visibility = wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		visibility = wgpu.ShaderStageCompute
	}

	s := &shader{
		key:          key,
		source:       source,
		shaderType:   shaderType,
		entryPoint:   parseEntryPoint(source, shaderType),
		declarations: declarations,
		module: &wgpu.ShaderModuleDescriptor{
			Label: key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
				Code: source,
			},
		},
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(source, visibility)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.bindingVarNames[group][binding]
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}
