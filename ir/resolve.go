package ir

import "github.com/gogpu/spvcross/spirv"

// TypeOf returns the type ID of any value-producing ID: variables (their
// pointer type), constants, undefs, instruction results and parameters.
func (m *Module) TypeOf(id ID) ID {
	switch m.Kind(id) {
	case KindVariable:
		return m.Variables[id].Type
	case KindConstant:
		return m.Constants[id].Type
	case KindUndef:
		return m.Undefs[id]
	case KindValue:
		return m.Values[id]
	}
	return 0
}

// PointeeType returns the type pointed to by the pointer-typed value id.
func (m *Module) PointeeType(id ID) ID {
	t := m.Type(m.TypeOf(id))
	if t == nil || !t.Pointer {
		return 0
	}
	return t.Parent
}

// ElementType returns the type reached by indexing typeID with index. For
// structs, index must be an integer constant selecting the member.
func (m *Module) ElementType(typeID, index ID) ID {
	t := m.Type(typeID)
	if t == nil {
		return 0
	}
	switch {
	case t.IsArray():
		return t.Parent
	case t.Base == BaseStruct:
		c := m.Constant(index)
		if c == nil {
			return 0
		}
		members := m.Type(t.Self).MemberTypes
		i := int(c.ScalarU32())
		if i >= len(members) {
			return 0
		}
		return members[i]
	case t.Columns > 1, t.VecSize > 1:
		return t.Parent
	}
	return 0
}

// MemberTypeAt returns the type reached from typeID by a list of literal
// composite indices, as used by OpCompositeExtract.
func (m *Module) MemberTypeAt(typeID ID, indices []uint32) ID {
	cur := typeID
	for _, i := range indices {
		t := m.Type(cur)
		if t == nil {
			return 0
		}
		switch {
		case t.IsArray(), t.Columns > 1, t.VecSize > 1:
			cur = t.Parent
		case t.Base == BaseStruct:
			members := m.Type(t.Self).MemberTypes
			if int(i) >= len(members) {
				return 0
			}
			cur = members[i]
		default:
			return 0
		}
	}
	return cur
}

// ArrayDimension resolves dimension i of t to a literal. Dimensions sized
// by specialization constants resolve to the constant's default value;
// ok is false when the size cannot be determined.
func (m *Module) ArrayDimension(t *Type, i int) (size uint32, literal bool, ok bool) {
	if t.ArrayLiteral[i] {
		return t.Array[i], true, true
	}
	c := m.Constant(ID(t.Array[i]))
	if c == nil {
		return 0, false, false
	}
	return c.ScalarU32(), false, true
}

// literalTails gives, for instructions whose trailing operands are not all
// IDs, how many leading operands are IDs.
var literalTails = map[spirv.OpCode]int{
	spirv.OpCompositeExtract: 1,
	spirv.OpCompositeInsert:  2,
	spirv.OpVectorShuffle:    2,
	spirv.OpLoad:             1,
	spirv.OpStore:            2,
	spirv.OpCopyMemory:       2,
	spirv.OpArrayLength:      1,
}

// imageFixedOperands gives the number of ID operands before the optional
// image-operands mask.
var imageFixedOperands = map[spirv.OpCode]int{
	spirv.OpImageSampleImplicitLod:     2,
	spirv.OpImageSampleExplicitLod:     2,
	spirv.OpImageSampleDrefImplicitLod: 3,
	spirv.OpImageSampleDrefExplicitLod: 3,
	spirv.OpImageFetch:                 2,
	spirv.OpImageRead:                  2,
	spirv.OpImageGather:                3,
	spirv.OpImageWrite:                 3,
}

// IDOperands returns the operands of in that reference other IDs.
func (in *Instruction) IDOperands() []ID {
	if n, ok := literalTails[in.Op]; ok {
		return toIDs(in.Args[:min(n, len(in.Args))])
	}
	if n, ok := imageFixedOperands[in.Op]; ok {
		if len(in.Args) <= n {
			return toIDs(in.Args)
		}
		// Skip the mask literal.
		return append(toIDs(in.Args[:n]), toIDs(in.Args[n+1:])...)
	}
	if in.Op == spirv.OpExtInst {
		if len(in.Args) < 2 {
			return nil
		}
		return toIDs(in.Args[2:])
	}
	return toIDs(in.Args)
}

func toIDs(words []uint32) []ID {
	out := make([]ID, len(words))
	for i, w := range words {
		out[i] = ID(w)
	}
	return out
}

// ImageOperands splits the optional image operands of an image
// instruction into the mask and the IDs following it.
func (in *Instruction) ImageOperands() (spirv.ImageOperands, []ID) {
	n, ok := imageFixedOperands[in.Op]
	if !ok || len(in.Args) <= n {
		return 0, nil
	}
	return spirv.ImageOperands(in.Args[n]), toIDs(in.Args[n+1:])
}

// HasSideEffects reports whether the instruction writes memory, calls a
// function or synchronizes. Such instructions are never reordered.
func (in *Instruction) HasSideEffects() bool {
	switch in.Op {
	case spirv.OpStore, spirv.OpCopyMemory, spirv.OpFunctionCall, spirv.OpImageWrite,
		spirv.OpControlBarrier, spirv.OpMemoryBarrier:
		return true
	}
	return in.Op.IsAtomic()
}

// ReadsMemory reports whether the result of the instruction depends on
// memory that a side effect may change.
func (in *Instruction) ReadsMemory() bool {
	switch in.Op {
	case spirv.OpLoad, spirv.OpImageRead, spirv.OpImageFetch, spirv.OpArrayLength:
		return true
	}
	return false
}
