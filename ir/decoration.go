package ir

import (
	"sort"

	"github.com/gogpu/spvcross/spirv"
)

// Bitset is a set of small enum values. Values below 64 live in a word;
// larger ones (vendor decorations, extended builtins) in a map.
type Bitset struct {
	lower  uint64
	higher map[uint32]struct{}
}

// Set adds bit to the set.
func (b *Bitset) Set(bit uint32) {
	if bit < 64 {
		b.lower |= 1 << bit
		return
	}
	if b.higher == nil {
		b.higher = make(map[uint32]struct{})
	}
	b.higher[bit] = struct{}{}
}

// Clear removes bit from the set.
func (b *Bitset) Clear(bit uint32) {
	if bit < 64 {
		b.lower &^= 1 << bit
		return
	}
	delete(b.higher, bit)
}

// Get reports whether bit is present.
func (b Bitset) Get(bit uint32) bool {
	if bit < 64 {
		return b.lower&(1<<bit) != 0
	}
	_, ok := b.higher[bit]
	return ok
}

// Empty reports whether no bit is set.
func (b Bitset) Empty() bool { return b.lower == 0 && len(b.higher) == 0 }

// Bits returns the present bits in ascending order.
func (b Bitset) Bits() []uint32 {
	var out []uint32
	for i := uint32(0); i < 64; i++ {
		if b.lower&(1<<i) != 0 {
			out = append(out, i)
		}
	}
	high := make([]uint32, 0, len(b.higher))
	for bit := range b.higher {
		high = append(high, bit)
	}
	sort.Slice(high, func(i, j int) bool { return high[i] < high[j] })
	return append(out, high...)
}

// Merge adds every bit of other.
func (b *Bitset) Merge(other Bitset) {
	b.lower |= other.lower
	for bit := range other.higher {
		b.Set(bit)
	}
}

// Clone returns an independent copy.
func (b Bitset) Clone() Bitset {
	out := Bitset{lower: b.lower}
	if len(b.higher) > 0 {
		out.higher = make(map[uint32]struct{}, len(b.higher))
		for bit := range b.higher {
			out.higher[bit] = struct{}{}
		}
	}
	return out
}

// ExtendedDecoration is a backend-private annotation stored next to the
// SPIR-V decorations of an ID or member.
type ExtendedDecoration uint8

// Extended decorations.
const (
	// ExtPhysicalTypePacked marks a member emitted with a tightly packed
	// vector type.
	ExtPhysicalTypePacked ExtendedDecoration = iota
	// ExtPhysicalTypeID holds the type a member is physically declared
	// with when it differs from the logical one.
	ExtPhysicalTypeID
	// ExtPaddingTarget holds the number of filler bytes emitted in front
	// of a member.
	ExtPaddingTarget
	// ExtInterfaceOrigID holds the variable a synthesized interface member
	// was created from.
	ExtInterfaceOrigID
	// ExtInterfaceMemberIndex holds the member of a synthesized interface
	// block that replaces a variable.
	ExtInterfaceMemberIndex
	// ExtResourceIndexPrimary holds the allocated binding slot.
	ExtResourceIndexPrimary
	// ExtResourceIndexSecondary holds the sampler slot of a combined
	// image-sampler.
	ExtResourceIndexSecondary
	// ExtRowMajorTranspose marks a matrix member declared transposed.
	ExtRowMajorTranspose

	extendedCount
)

// Extended holds the extended decorations of one ID or member.
type Extended struct {
	flags  uint32
	values [extendedCount]uint32
}

// Decoration holds every decoration of one ID or struct member.
type Decoration struct {
	Name  string
	Flags Bitset

	BuiltIn              spirv.BuiltIn
	Location             uint32
	Component            uint32
	Index                uint32
	Binding              uint32
	DescriptorSet        uint32
	Offset               uint32
	ArrayStride          uint32
	MatrixStride         uint32
	SpecID               uint32
	InputAttachmentIndex uint32

	Extended Extended
}

// Has reports whether the decoration is present.
func (d *Decoration) Has(dec spirv.Decoration) bool { return d.Flags.Get(uint32(dec)) }

// Set records dec with its literal value.
func (d *Decoration) Set(dec spirv.Decoration, value uint32) {
	d.Flags.Set(uint32(dec))
	switch dec {
	case spirv.DecorationBuiltIn:
		d.BuiltIn = spirv.BuiltIn(value)
	case spirv.DecorationLocation:
		d.Location = value
	case spirv.DecorationComponent:
		d.Component = value
	case spirv.DecorationIndex:
		d.Index = value
	case spirv.DecorationBinding:
		d.Binding = value
	case spirv.DecorationDescriptorSet:
		d.DescriptorSet = value
	case spirv.DecorationOffset:
		d.Offset = value
	case spirv.DecorationArrayStride:
		d.ArrayStride = value
	case spirv.DecorationMatrixStride:
		d.MatrixStride = value
	case spirv.DecorationSpecID:
		d.SpecID = value
	case spirv.DecorationInputAttachmentIndex:
		d.InputAttachmentIndex = value
	}
}

// Get returns the literal value of dec, or zero for flag decorations.
func (d *Decoration) Get(dec spirv.Decoration) uint32 {
	if !d.Has(dec) {
		return 0
	}
	switch dec {
	case spirv.DecorationBuiltIn:
		return uint32(d.BuiltIn)
	case spirv.DecorationLocation:
		return d.Location
	case spirv.DecorationComponent:
		return d.Component
	case spirv.DecorationIndex:
		return d.Index
	case spirv.DecorationBinding:
		return d.Binding
	case spirv.DecorationDescriptorSet:
		return d.DescriptorSet
	case spirv.DecorationOffset:
		return d.Offset
	case spirv.DecorationArrayStride:
		return d.ArrayStride
	case spirv.DecorationMatrixStride:
		return d.MatrixStride
	case spirv.DecorationSpecID:
		return d.SpecID
	case spirv.DecorationInputAttachmentIndex:
		return d.InputAttachmentIndex
	}
	return 1
}

// Unset removes dec and resets its value.
func (d *Decoration) Unset(dec spirv.Decoration) {
	d.Set(dec, 0)
	d.Flags.Clear(uint32(dec))
}

// HasExtended reports whether the extended decoration is present.
func (d *Decoration) HasExtended(ext ExtendedDecoration) bool {
	return d.Extended.flags&(1<<ext) != 0
}

// SetExtended records an extended decoration.
func (d *Decoration) SetExtended(ext ExtendedDecoration, value uint32) {
	d.Extended.flags |= 1 << ext
	d.Extended.values[ext] = value
}

// GetExtended returns the value of an extended decoration.
func (d *Decoration) GetExtended(ext ExtendedDecoration) uint32 {
	if !d.HasExtended(ext) {
		return 0
	}
	return d.Extended.values[ext]
}

// UnsetExtended removes an extended decoration.
func (d *Decoration) UnsetExtended(ext ExtendedDecoration) {
	d.Extended.flags &^= 1 << ext
	d.Extended.values[ext] = 0
}

func (d Decoration) clone() Decoration {
	d.Flags = d.Flags.Clone()
	return d
}

// Meta is the decoration table entry of one ID.
type Meta struct {
	Decoration Decoration
	Members    []Decoration
}

// Member returns the decorations of member i, growing the list on demand.
func (m *Meta) Member(i int) *Decoration {
	for len(m.Members) <= i {
		m.Members = append(m.Members, Decoration{})
	}
	return &m.Members[i]
}

// MetaFor returns the decoration entry of id, creating it when missing.
func (m *Module) MetaFor(id ID) *Meta {
	meta, ok := m.Meta[id]
	if !ok {
		meta = &Meta{}
		m.Meta[id] = meta
	}
	return meta
}

// Decorate records a decoration on id.
func (m *Module) Decorate(id ID, dec spirv.Decoration, value uint32) {
	m.MetaFor(id).Decoration.Set(dec, value)
}

// MemberDecorate records a decoration on a struct member.
func (m *Module) MemberDecorate(id ID, member int, dec spirv.Decoration, value uint32) {
	m.MetaFor(id).Member(member).Set(dec, value)
}

// HasDecoration reports whether id carries dec.
func (m *Module) HasDecoration(id ID, dec spirv.Decoration) bool {
	meta, ok := m.Meta[id]
	return ok && meta.Decoration.Has(dec)
}

// DecorationValue returns the literal of dec on id.
func (m *Module) DecorationValue(id ID, dec spirv.Decoration) uint32 {
	meta, ok := m.Meta[id]
	if !ok {
		return 0
	}
	return meta.Decoration.Get(dec)
}

// HasMemberDecoration reports whether member of id carries dec.
func (m *Module) HasMemberDecoration(id ID, member int, dec spirv.Decoration) bool {
	meta, ok := m.Meta[id]
	return ok && member < len(meta.Members) && meta.Members[member].Has(dec)
}

// MemberDecorationValue returns the literal of dec on a member of id.
func (m *Module) MemberDecorationValue(id ID, member int, dec spirv.Decoration) uint32 {
	meta, ok := m.Meta[id]
	if !ok || member >= len(meta.Members) {
		return 0
	}
	return meta.Members[member].Get(dec)
}

// Name returns the debug name of id.
func (m *Module) Name(id ID) string {
	if meta, ok := m.Meta[id]; ok {
		return meta.Decoration.Name
	}
	return ""
}

// SetName sets the debug name of id.
func (m *Module) SetName(id ID, name string) { m.MetaFor(id).Decoration.Name = name }

// MemberName returns the debug name of a struct member.
func (m *Module) MemberName(id ID, member int) string {
	meta, ok := m.Meta[id]
	if !ok || member >= len(meta.Members) {
		return ""
	}
	return meta.Members[member].Name
}

// SetMemberName sets the debug name of a struct member.
func (m *Module) SetMemberName(id ID, member int, name string) {
	m.MetaFor(id).Member(member).Name = name
}
