package shader

import (
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"strconv"
)

// PropertySet holds the named integer properties that select a shader permutation.
// A property that was never set reads as 0, and conditional blocks treat 0 as false.
type PropertySet struct {
	props map[string]int32
}

// NewPropertySet creates an empty PropertySet.
func NewPropertySet() *PropertySet {
	return &PropertySet{props: make(map[string]int32)}
}

// Set assigns a property value.
func (p *PropertySet) Set(name string, value int32) {
	p.props[name] = value
}

// Get returns the value of a property, or 0 if it is unset.
func (p *PropertySet) Get(name string) int32 {
	return p.props[name]
}

// Has reports whether a property has been set, even to 0.
func (p *PropertySet) Has(name string) bool {
	_, ok := p.props[name]
	return ok
}

// Delete removes a property.
func (p *PropertySet) Delete(name string) {
	delete(p.props, name)
}

// Names returns the set property names in sorted order.
func (p *PropertySet) Names() []string {
	return slices.Sorted(maps.Keys(p.props))
}

// Len returns the number of set properties.
func (p *PropertySet) Len() int {
	return len(p.props)
}

// Clone returns an independent copy of the set.
func (p *PropertySet) Clone() *PropertySet {
	return &PropertySet{props: maps.Clone(p.props)}
}

// Hash returns the FNV-1a hash of the sorted name=value pairs. Two sets with the same
// contents always hash the same regardless of insertion order.
//
// Returns:
//   - uint32: the permutation hash
func (p *PropertySet) Hash() uint32 {
	h := fnv.New32a()
	for _, name := range p.Names() {
		h.Write([]byte(name))
		h.Write([]byte{'='})
		h.Write(strconv.AppendInt(nil, int64(p.props[name]), 10))
		h.Write([]byte{';'})
	}
	return h.Sum32()
}

func (p *PropertySet) String() string {
	s := "{"
	for i, name := range p.Names() {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", name, p.props[name])
	}
	return s + "}"
}

// TextureRegisters maps texture variable names to binding slots, per shader stage.
type TextureRegisters struct {
	stages map[ShaderType]map[string]uint32
}

// NewTextureRegisters creates an empty register table.
func NewTextureRegisters() *TextureRegisters {
	return &TextureRegisters{stages: make(map[ShaderType]map[string]uint32)}
}

// Set assigns a texture variable to a slot at the given stage, replacing any previous slot.
func (r *TextureRegisters) Set(stage ShaderType, name string, slot uint32) {
	m := r.stages[stage]
	if m == nil {
		m = make(map[string]uint32)
		r.stages[stage] = m
	}
	m[name] = slot
}

// Slot returns the slot assigned to a texture variable at the given stage.
func (r *TextureRegisters) Slot(stage ShaderType, name string) (uint32, bool) {
	slot, ok := r.stages[stage][name]
	return slot, ok
}

// All returns a copy of the name to slot assignments for a stage.
func (r *TextureRegisters) All(stage ShaderType) map[string]uint32 {
	return maps.Clone(r.stages[stage])
}

// Hash returns an FNV-1a hash of every stage's assignments, for cache keys.
func (r *TextureRegisters) Hash() uint32 {
	h := fnv.New32a()
	for _, stage := range slices.Sorted(maps.Keys(r.stages)) {
		m := r.stages[stage]
		h.Write([]byte(stage.String()))
		for _, name := range slices.Sorted(maps.Keys(m)) {
			h.Write([]byte(name))
			h.Write(strconv.AppendUint(nil, uint64(m[name]), 10))
		}
	}
	return h.Sum32()
}
