package cross

import (
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// PackingStandard is a buffer layout rule set.
type PackingStandard uint8

// Packing standards. The EnhancedLayout variants accept any member offset
// that is at least the natural one and suitably aligned, as allowed by
// explicit offset qualifiers.
const (
	PackingStd140 PackingStandard = iota
	PackingStd430
	PackingStd140EnhancedLayout
	PackingStd430EnhancedLayout
	PackingHLSLCbuffer
	PackingHLSLCbufferPackOffset
	PackingScalar
	PackingScalarEnhancedLayout
)

// String returns the name of the standard.
func (p PackingStandard) String() string {
	switch p {
	case PackingStd140:
		return "std140"
	case PackingStd430:
		return "std430"
	case PackingStd140EnhancedLayout:
		return "std140-enhanced"
	case PackingStd430EnhancedLayout:
		return "std430-enhanced"
	case PackingHLSLCbuffer:
		return "hlsl-cbuffer"
	case PackingHLSLCbufferPackOffset:
		return "hlsl-cbuffer-packoffset"
	case PackingScalar:
		return "scalar"
	case PackingScalarEnhancedLayout:
		return "scalar-enhanced"
	default:
		return "unknown"
	}
}

func (p PackingStandard) isVec4Padded() bool {
	switch p {
	case PackingStd140, PackingStd140EnhancedLayout, PackingHLSLCbuffer, PackingHLSLCbufferPackOffset:
		return true
	}
	return false
}

func (p PackingStandard) isHLSL() bool {
	return p == PackingHLSLCbuffer || p == PackingHLSLCbufferPackOffset
}

func (p PackingStandard) isScalar() bool {
	return p == PackingScalar || p == PackingScalarEnhancedLayout
}

func (p PackingStandard) hasFlexibleOffset() bool {
	switch p {
	case PackingStd140EnhancedLayout, PackingStd430EnhancedLayout,
		PackingHLSLCbufferPackOffset, PackingScalarEnhancedLayout:
		return true
	}
	return false
}

func alignUp(v, a uint32) uint32 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

func rowMajor(flags ir.Bitset) bool { return flags.Get(uint32(spirv.DecorationRowMajor)) }

// PackingAlignment returns the base alignment of t under the standard.
// flags are the decorations of the member holding t (RowMajor matters).
func (c *Compiler) PackingAlignment(t *ir.Type, flags ir.Bitset, p PackingStandard) uint32 {
	if t.IsArray() {
		minimum := uint32(1)
		if p.isVec4Padded() {
			minimum = 16
		}
		return max(minimum, c.PackingAlignment(c.ir.Type(t.Parent), flags, p))
	}
	if t.Base == ir.BaseStruct {
		align := uint32(1)
		st := c.ir.Type(t.Self)
		for i, mt := range st.MemberTypes {
			align = max(align, c.PackingAlignment(c.ir.Type(mt), c.MemberDecorationBitset(t.Self, i), p))
		}
		if p.isVec4Padded() {
			align = max(align, 16)
		}
		return align
	}

	base := t.ScalarSize()
	if p.isScalar() {
		return base
	}
	if t.Columns == 1 {
		if p.isHLSL() {
			return base
		}
		switch t.VecSize {
		case 1:
			return base
		case 2:
			return 2 * base
		default:
			return 4 * base
		}
	}
	// Matrices align like an array of their major vectors.
	if p.isVec4Padded() {
		return 4 * base
	}
	if rowMajor(flags) {
		if t.Columns == 3 {
			return 4 * base
		}
		return t.Columns * base
	}
	if t.VecSize == 3 {
		return 4 * base
	}
	return t.VecSize * base
}

// PackingArrayStride returns the element stride of array type t.
func (c *Compiler) PackingArrayStride(t *ir.Type, flags ir.Bitset, p PackingStandard) uint32 {
	elem := c.ir.Type(t.Parent)
	size := c.PackingSize(elem, flags, p)
	return alignUp(size, c.PackingAlignment(t, flags, p))
}

// PackingSize returns the size t occupies under the standard. Runtime
// arrays have size zero.
func (c *Compiler) PackingSize(t *ir.Type, flags ir.Bitset, p PackingStandard) uint32 {
	if t.IsArray() {
		n, _, _ := c.ir.ArrayDimension(t, len(t.Array)-1)
		size := n * c.PackingArrayStride(t, flags, p)
		// HLSL lets the next member share the tail of the last element.
		if p.isHLSL() && n > 0 && t.Base != ir.BaseStruct && len(t.Array) == 1 && t.Columns == 1 {
			size -= (4 - t.VecSize) * t.ScalarSize()
		}
		return size
	}
	if t.Base == ir.BaseStruct {
		var size uint32
		padAlign := uint32(1)
		st := c.ir.Type(t.Self)
		for i, mt := range st.MemberTypes {
			mflags := c.MemberDecorationBitset(t.Self, i)
			member := c.ir.Type(mt)
			packed := c.PackingAlignment(member, mflags, p)
			align := max(packed, padAlign)
			// A member following a struct is aligned to that struct's base
			// alignment.
			if member.Base == ir.BaseStruct {
				padAlign = packed
			} else {
				padAlign = 1
			}
			size = alignUp(size, align)
			size += c.PackingSize(member, mflags, p)
		}
		return size
	}

	base := t.ScalarSize()
	if p.isScalar() {
		return t.VecSize * t.Columns * base
	}
	if t.Columns == 1 {
		return t.VecSize * base
	}
	var size uint32
	if rowMajor(flags) {
		if p.isVec4Padded() || t.Columns == 3 {
			size = t.VecSize * 4 * base
		} else {
			size = t.VecSize * t.Columns * base
		}
		if p.isHLSL() {
			size = (t.VecSize-1)*4*base + t.Columns*base
		}
		return size
	}
	if p.isVec4Padded() || t.VecSize == 3 {
		size = t.Columns * 4 * base
	} else {
		size = t.Columns * t.VecSize * base
	}
	if p.isHLSL() {
		size = (t.Columns-1)*4*base + t.VecSize*base
	}
	return size
}

// BufferIsPackingStandard reports whether the declared offsets and strides
// of a struct match what the standard produces.
func (c *Compiler) BufferIsPackingStandard(structID ir.ID, p PackingStandard) bool {
	return c.bufferIsPackingStandard(c.structOf(structID), p)
}

func (c *Compiler) bufferIsPackingStandard(structID ir.ID, p PackingStandard) bool {
	st := c.ir.Type(structID)
	var offset uint32
	padAlign := uint32(1)
	for i, mt := range st.MemberTypes {
		member := c.ir.Type(mt)
		mflags := c.MemberDecorationBitset(structID, i)
		packedAlign := c.PackingAlignment(member, mflags, p)

		last := i == len(st.MemberTypes)-1
		var packedSize uint32
		if !(last && member.IsRuntimeArray()) {
			packedSize = c.PackingSize(member, mflags, p)
		}

		// HLSL: vectors may not straddle a 16-byte boundary.
		if p.isHLSL() && packedSize > 0 {
			if offset/16 != (offset+packedSize-1)/16 {
				packedAlign = max(packedAlign, 16)
			}
		}

		actual := c.MemberOffset(structID, i)
		align := max(packedAlign, padAlign)
		offset = alignUp(offset, align)
		if member.Base == ir.BaseStruct {
			padAlign = packedAlign
		} else {
			padAlign = 1
		}

		if p.hasFlexibleOffset() {
			if actual < offset || actual%packedAlign != 0 {
				return false
			}
		} else if actual != offset {
			return false
		}

		if member.IsArray() && c.PackingArrayStride(member, mflags, p) != c.MemberArrayStride(structID, i) {
			return false
		}
		if member.IsMatrix() && c.HasMemberDecoration(structID, i, spirv.DecorationMatrixStride) {
			if c.packedMatrixStride(member, mflags, p) != c.MemberMatrixStride(structID, i) {
				return false
			}
		}
		if member.Base == ir.BaseStruct && !c.bufferIsPackingStandard(member.Self, p) {
			return false
		}
		offset = actual + packedSize
	}
	return true
}

func (c *Compiler) packedMatrixStride(t *ir.Type, flags ir.Bitset, p PackingStandard) uint32 {
	base := t.ScalarSize()
	n := t.VecSize
	if rowMajor(flags) {
		n = t.Columns
	}
	switch {
	case p.isScalar():
		return n * base
	case p.isVec4Padded(), n == 3:
		return 4 * base
	default:
		return n * base
	}
}

// MemberOffset returns the declared Offset of member i.
func (c *Compiler) MemberOffset(structID ir.ID, i int) uint32 {
	return c.MemberDecoration(structID, i, spirv.DecorationOffset)
}

// MemberArrayStride returns the declared ArrayStride of the array type of
// member i.
func (c *Compiler) MemberArrayStride(structID ir.ID, i int) uint32 {
	members := c.MemberTypes(structID)
	if i >= len(members) {
		return 0
	}
	return c.ir.DecorationValue(members[i], spirv.DecorationArrayStride)
}

// MemberMatrixStride returns the declared MatrixStride of member i.
func (c *Compiler) MemberMatrixStride(structID ir.ID, i int) uint32 {
	return c.MemberDecoration(structID, i, spirv.DecorationMatrixStride)
}

// DeclaredStructSize returns the size of a struct implied by its declared
// offsets: the end of the last member. A trailing runtime array
// contributes nothing.
func (c *Compiler) DeclaredStructSize(structID ir.ID) (uint32, error) {
	st := c.ir.Type(c.structOf(structID))
	if st == nil || st.Base != ir.BaseStruct {
		return 0, Invalid("type %d is not a struct", structID)
	}
	n := len(st.MemberTypes)
	if n == 0 {
		return 0, nil
	}
	last := n - 1
	offset := c.MemberOffset(st.Self, last)
	if c.ir.Type(st.MemberTypes[last]).IsRuntimeArray() {
		return offset, nil
	}
	size, err := c.DeclaredStructMemberSize(st.Self, last)
	if err != nil {
		return 0, err
	}
	return offset + size, nil
}

// DeclaredStructSizeRuntimeArray returns the struct size with its trailing
// runtime array holding n elements.
func (c *Compiler) DeclaredStructSizeRuntimeArray(structID ir.ID, n uint32) (uint32, error) {
	size, err := c.DeclaredStructSize(structID)
	if err != nil {
		return 0, err
	}
	st := c.ir.Type(c.structOf(structID))
	last := len(st.MemberTypes) - 1
	if last < 0 || !c.ir.Type(st.MemberTypes[last]).IsRuntimeArray() {
		return size, nil
	}
	return size + n*c.MemberArrayStride(st.Self, last), nil
}

// DeclaredStructMemberSize returns the size of member i implied by its
// declared strides.
func (c *Compiler) DeclaredStructMemberSize(structID ir.ID, i int) (uint32, error) {
	structID = c.structOf(structID)
	members := c.MemberTypes(structID)
	if i >= len(members) {
		return 0, Errorf(ErrInvalidArgument, "struct %d has no member %d", structID, i)
	}
	t := c.ir.Type(members[i])
	switch {
	case t.IsArray():
		n, _, ok := c.ir.ArrayDimension(t, len(t.Array)-1)
		if !ok {
			return 0, Invalid("member %d of struct %d has an unresolvable array size", i, structID)
		}
		stride := c.MemberArrayStride(structID, i)
		if stride == 0 {
			return 0, Invalid("member %d of struct %d has no ArrayStride", i, structID)
		}
		return stride * n, nil
	case t.Base == ir.BaseStruct:
		return c.DeclaredStructSize(t.Self)
	case t.Columns == 1:
		return t.VecSize * t.ScalarSize(), nil
	default:
		stride := c.MemberMatrixStride(structID, i)
		if stride == 0 {
			return 0, Invalid("matrix member %d of struct %d has no MatrixStride", i, structID)
		}
		if c.HasMemberDecoration(structID, i, spirv.DecorationRowMajor) {
			return stride * t.VecSize, nil
		}
		return stride * t.Columns, nil
	}
}
