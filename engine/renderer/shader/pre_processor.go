// pre_processor.go implements the Oxy WGSL template pre-processor. It expands
// @oxy: annotations in data-folder templates and library pieces into plain WGSL for
// one shader permutation, selected by a PropertySet and a TextureRegisters table.
//
// The pre-processor resolves names against two registries:
//   - the piece Library: named WGSL fragments spliced in by @oxy:insert
//   - the struct registry: embedded WGSL struct sources injected by @oxy:include
package shader

import (
	"fmt"
	"strconv"
	"strings"
)

// maxInsertDepth bounds piece nesting so that a piece inserting itself fails instead of looping.
const maxInsertDepth = 16

// Struct pairs a WGSL struct source (embedded from a .wgsl asset file) with its WGSL type name.
type Struct struct {
	// Source is the raw WGSL struct definition text injected by @oxy:include.
	Source string

	// Type is the WGSL type name declared by Source (e.g. "WindPassParams").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structs      map[string]Struct
	library      *Library
	textureGroup int

	// declarations accumulates the texreg annotations expanded during a Process call.
	declarations []Annotation
}

// PreProcessor expands annotated WGSL templates into the source of one shader permutation.
type PreProcessor interface {
	// Process expands every annotation in source. Piece definitions in source are
	// collected first and take precedence over library pieces of the same name for the
	// duration of the call. The declarations list is reset at the start of each call.
	//
	// Parameters:
	//   - source: the annotated template
	//   - props: the permutation properties; nil means no properties are set
	//   - regs: the texture register table; nil means no registers are assigned
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error for malformed annotations, unknown pieces or structs, unbalanced
	//     blocks or unassigned texture registers
	Process(source string, props *PropertySet, regs *TextureRegisters) (string, error)

	// Declarations returns the texreg annotations expanded during the most recent call to
	// Process, in output order, with Slot resolved.
	//
	// Returns:
	//   - []Annotation: the declarations collected during the last Process call
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor.
//
// Parameters:
//   - options: a variadic list of PreProcessorBuilderOption functions
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor(options ...PreProcessorBuilderOption) PreProcessor {
	p := &preProcessor{
		structs:      make(map[string]Struct),
		textureGroup: DefaultTextureGroup,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

type expansion struct {
	props  *PropertySet
	regs   *TextureRegisters
	pieces map[string]string
	out    []string
}

type condFrame struct {
	parent  bool
	cond    bool
	active  bool
	sawElse bool
	line    int
}

func (p *preProcessor) Process(source string, props *PropertySet, regs *TextureRegisters) (string, error) {
	p.declarations = p.declarations[:0]
	if props == nil {
		props = NewPropertySet()
	}
	if regs == nil {
		regs = NewTextureRegisters()
	}

	body, pieces, err := extractPieces(source, "template")
	if err != nil {
		return "", err
	}
	x := &expansion{props: props, regs: regs, pieces: pieces}
	if err := p.expand(body, "template", 0, x); err != nil {
		return "", err
	}
	return strings.Join(x.out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}

func (p *preProcessor) piece(x *expansion, name string) (string, bool) {
	if src, ok := x.pieces[name]; ok {
		return src, true
	}
	if p.library != nil {
		return p.library.Piece(name)
	}
	return "", false
}

func (p *preProcessor) expand(src, origin string, depth int, x *expansion) error {
	if depth > maxInsertDepth {
		return fmt.Errorf("%s: pieces nested deeper than %d", origin, maxInsertDepth)
	}

	var stack []condFrame
	active := true
	for i, line := range strings.Split(src, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return fmt.Errorf("%s: %w", origin, err)
		}
		if a == nil {
			if active {
				x.out = append(x.out, line)
			}
			continue
		}

		switch a.Type {
		case AnnotationTypeProperty:
			name, negate := strings.CutPrefix(a.Args[0], "!")
			cond := x.props.Get(name) != 0
			if negate {
				cond = !cond
			}
			stack = append(stack, condFrame{parent: active, cond: cond, active: active && cond, line: a.Line})
			active = active && cond
		case AnnotationTypeElse:
			if len(stack) == 0 {
				return fmt.Errorf("%s: line %d: @oxy:else without @oxy:property", origin, a.Line)
			}
			f := &stack[len(stack)-1]
			if f.sawElse {
				return fmt.Errorf("%s: line %d: second @oxy:else for the block opened on line %d", origin, a.Line, f.line)
			}
			f.sawElse = true
			f.active = f.parent && !f.cond
			active = f.active
		case AnnotationTypeEnd:
			if len(stack) == 0 {
				return fmt.Errorf("%s: line %d: @oxy:end without @oxy:property", origin, a.Line)
			}
			active = stack[len(stack)-1].parent
			stack = stack[:len(stack)-1]
		case AnnotationTypePiece, AnnotationTypeEndPiece:
			return fmt.Errorf("%s: line %d: @oxy:%s is only valid at the top level of a template or library file", origin, a.Line, a.Type)
		case AnnotationTypeInsert:
			if !active {
				continue
			}
			body, ok := p.piece(x, a.Args[0])
			if !ok {
				return fmt.Errorf("%s: line %d: unknown piece %q", origin, a.Line, a.Args[0])
			}
			if err := p.expand(body, "piece "+a.Args[0], depth+1, x); err != nil {
				return err
			}
		case AnnotationTypeInclude:
			if !active {
				continue
			}
			st, ok := p.structs[a.Args[0]]
			if !ok {
				return fmt.Errorf("%s: line %d: unknown struct %q in @oxy:include", origin, a.Line, a.Args[0])
			}
			x.out = append(x.out, st.Source)
		case AnnotationTypeTexReg:
			if !active {
				continue
			}
			slot, ok := x.regs.Slot(a.Stage, a.Args[1])
			if !ok {
				return fmt.Errorf("%s: line %d: no %s texture register assigned for %q", origin, a.Line, a.Stage, a.Args[1])
			}
			a.Slot = slot
			x.out = append(x.out, fmt.Sprintf("@group(%d) @binding(%d) var %s: %s;", p.textureGroup, slot, a.Args[1], a.Args[2]))
			if len(a.Args) == 4 {
				x.out = append(x.out, fmt.Sprintf("@group(%d) @binding(%d) var %s: sampler;", p.textureGroup, slot+SamplerBindingOffset, a.Args[3]))
			}
			p.declarations = append(p.declarations, *a)
		case AnnotationTypeValue:
			if active {
				x.out = append(x.out, strconv.Itoa(int(x.props.Get(a.Args[0]))))
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%s: line %d: @oxy:property block is never closed", origin, stack[len(stack)-1].line)
	}
	return nil
}

// extractPieces removes top-level piece definitions from source.
//
// Parameters:
//   - source: the annotated text
//   - origin: a name for error messages
//
// Returns:
//   - string: the source without piece definitions
//   - map[string]string: the piece bodies keyed by name
//   - error: an error for nested, unterminated or duplicate pieces
func extractPieces(source, origin string) (string, map[string]string, error) {
	pieces := make(map[string]string)
	var body, piece []string
	current, start := "", 0

	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", origin, err)
		}
		switch {
		case a != nil && a.Type == AnnotationTypePiece:
			if current != "" {
				return "", nil, fmt.Errorf("%s: line %d: piece %q opened inside piece %q", origin, a.Line, a.Args[0], current)
			}
			if _, dup := pieces[a.Args[0]]; dup {
				return "", nil, fmt.Errorf("%s: line %d: piece %q defined twice", origin, a.Line, a.Args[0])
			}
			current, start, piece = a.Args[0], a.Line, nil
		case a != nil && a.Type == AnnotationTypeEndPiece:
			if current == "" {
				return "", nil, fmt.Errorf("%s: line %d: @oxy:endpiece without @oxy:piece", origin, a.Line)
			}
			pieces[current] = strings.Join(piece, "\n")
			current = ""
		case current != "":
			piece = append(piece, line)
		default:
			body = append(body, line)
		}
	}
	if current != "" {
		return "", nil, fmt.Errorf("%s: line %d: piece %q is never closed", origin, start, current)
	}
	return strings.Join(body, "\n"), pieces, nil
}
