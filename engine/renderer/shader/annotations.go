// annotations.go defines the annotation types and parser for the Oxy WGSL template
// pre-processor. Annotations are single-line WGSL comments prefixed with @oxy: that
// select blocks by property, splice library pieces, inject registered struct sources
// and declare texture bindings from the texture register table.
package shader

import (
	"fmt"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// AnnotationTypeProperty opens a block that is kept only when the property is non-zero.
	// A leading '!' inverts the test. Blocks nest and are closed by end.
	//
	// Syntax: //@oxy:property <name> | //@oxy:property !<name>
	//
	// Example: //@oxy:property wind_enabled
	AnnotationTypeProperty AnnotationType = "property"

	// AnnotationTypeElse switches the innermost property block to its alternative branch.
	//
	// Syntax: //@oxy:else
	AnnotationTypeElse AnnotationType = "else"

	// AnnotationTypeEnd closes the innermost property block.
	//
	// Syntax: //@oxy:end
	AnnotationTypeEnd AnnotationType = "end"

	// AnnotationTypePiece starts the definition of a named piece. Pieces are collected
	// before expansion and produce no output where they are defined.
	//
	// Syntax: //@oxy:piece <name>
	//
	// Example: //@oxy:piece WindVertexDisplacement
	AnnotationTypePiece AnnotationType = "piece"

	// AnnotationTypeEndPiece ends the piece definition opened by piece.
	//
	// Syntax: //@oxy:endpiece
	AnnotationTypeEndPiece AnnotationType = "endpiece"

	// AnnotationTypeInsert expands a named piece at the annotation site. Inserted pieces
	// are expanded recursively and may use every other annotation.
	//
	// Syntax: //@oxy:insert <name>
	AnnotationTypeInsert AnnotationType = "insert"

	// AnnotationTypeInclude injects the WGSL source of a registered struct at the
	// annotation site. Structs are registered with WithStruct.
	//
	// Syntax: //@oxy:include <struct_key>
	//
	// Example: //@oxy:include wind_pass_params
	AnnotationTypeInclude AnnotationType = "include"

	// AnnotationTypeTexReg declares a texture variable at the slot assigned to it in the
	// texture register table for the given stage, producing
	// @group(<g>) @binding(<slot>) var <name>: <type>;
	// When a sampler name is given, the paired sampler is declared at
	// @binding(<slot> + SamplerBindingOffset) in the same group.
	// It is an error if no slot is assigned.
	//
	// Syntax: //@oxy:texreg <stage> <name> <wgsl_type> [<sampler_name>]
	//
	// Example: //@oxy:texreg vertex texPerlinNoise texture_3d<f32> samplerPerlinNoise
	AnnotationTypeTexReg AnnotationType = "texreg"

	// AnnotationTypeValue emits the decimal value of a property.
	//
	// Syntax: //@oxy:value <name>
	AnnotationTypeValue AnnotationType = "value"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL template line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - property: [0] = property name, optionally prefixed with '!'
	//   - piece, insert, include, value: [0] = name
	//   - texreg: [0] = stage, [1] = variable name, [2] = WGSL type, [3] = sampler name (optional)
	//   - else, end, endpiece: none
	Args []string

	// Line is the 1-based line number in the source where this annotation was found.
	Line int

	// Stage is the parsed stage of a texreg annotation.
	Stage ShaderType

	// Slot is the binding slot resolved for a texreg annotation during expansion.
	Slot uint32
}

// SamplerBindingOffset is added to a texture's slot to get the binding of its paired sampler.
const SamplerBindingOffset = 16

// annotationArity holds the minimum and maximum argument count per annotation type.
var annotationArity = map[AnnotationType][2]int{
	AnnotationTypeProperty: {1, 1},
	AnnotationTypeElse:     {0, 0},
	AnnotationTypeEnd:      {0, 0},
	AnnotationTypePiece:    {1, 1},
	AnnotationTypeEndPiece: {0, 0},
	AnnotationTypeInsert:   {1, 1},
	AnnotationTypeInclude:  {1, 1},
	AnnotationTypeTexReg:   {3, 4},
	AnnotationTypeValue:    {1, 1},
}

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that are not annotations.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	comment, ok := strings.CutPrefix(trimmed, "//")
	if !ok {
		return nil, nil
	}
	after, ok := strings.CutPrefix(strings.TrimSpace(comment), annotationPrefix)
	if !ok {
		return nil, nil
	}

	fields := strings.Fields(after)
	if len(fields) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	typ := AnnotationType(fields[0])
	arity, known := annotationArity[typ]
	if !known {
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, fields[0])
	}

	args := fields[1:]
	if len(args) < arity[0] || len(args) > arity[1] {
		if arity[0] == arity[1] {
			return nil, fmt.Errorf("line %d: @oxy %s annotation requires %d argument(s), got %d", lineNum, typ, arity[0], len(args))
		}
		return nil, fmt.Errorf("line %d: @oxy %s annotation requires %d to %d arguments, got %d", lineNum, typ, arity[0], arity[1], len(args))
	}

	a := &Annotation{Type: typ, Args: args, Line: lineNum}
	if typ == AnnotationTypeTexReg {
		stage, err := ParseShaderType(args[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: @oxy texreg annotation: %w", lineNum, err)
		}
		a.Stage = stage
	}
	return a, nil
}
