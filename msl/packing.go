package msl

import (
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// memberLayout is the Metal placement of one buffer struct member.
type memberLayout struct {
	offset uint32
	size   uint32
	align  uint32
	// pad is the number of filler bytes declared in front of the member.
	pad uint32
	// packed selects packed_ vectors, for the member or its elements.
	packed bool
	// widened declares array elements or matrix columns as 4-component
	// vectors so that a 16-byte stride is reproduced.
	widened bool
	// transposed declares a row-major matrix with rows and columns
	// swapped.
	transposed bool
}

// structLayout is the Metal layout of a struct reachable from a buffer.
type structLayout struct {
	members []memberLayout
	size    uint32
	align   uint32
	// tail is the filler after the last member that brings the struct to
	// the stride of the arrays holding it.
	tail uint32
}

// layouter reconciles declared buffer offsets with Metal's natural layout.
type layouter struct {
	cc  *cross.Compiler
	m   *ir.Module
	log *zap.Logger

	layouts  map[ir.ID]*structLayout
	required map[ir.ID]uint32
}

const unbounded = ^uint32(0)

func newLayouter(cc *cross.Compiler) *layouter {
	return &layouter{
		cc:       cc,
		m:        cc.Module(),
		log:      cc.Logger(),
		layouts:  make(map[ir.ID]*structLayout),
		required: make(map[ir.ID]uint32),
	}
}

func alignUp(v, a uint32) uint32 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}

// vectorLayout returns the size and alignment of an n-component vector.
// Three-component vectors occupy four components.
func vectorLayout(n, scalar uint32) (size, align uint32) {
	switch n {
	case 1:
		return scalar, scalar
	case 2:
		return 2 * scalar, 2 * scalar
	}
	return 4 * scalar, 4 * scalar
}

func isVec3(t *ir.Type) bool {
	return t.Columns == 1 && t.VecSize == 3 && t.Base != ir.BaseStruct
}

// isBufferStorage reports storage classes whose structs follow explicit
// layouts.
func isBufferStorage(s spirv.StorageClass) bool {
	switch s {
	case spirv.StorageClassUniform, spirv.StorageClassStorageBuffer, spirv.StorageClassPushConstant:
		return true
	}
	return false
}

// run lays out every struct reachable from a buffer variable.
func (l *layouter) run() error {
	for _, id := range l.m.Declarations {
		v := l.m.Variable(id)
		if v == nil || !isBufferStorage(v.Storage) {
			continue
		}
		t := l.m.Type(l.cc.VariableType(id))
		if t == nil || t.Base != ir.BaseStruct {
			continue
		}
		if _, err := l.layout(t.Self); err != nil {
			return err
		}
	}
	return nil
}

// layout computes the layout of a struct.
func (l *layouter) layout(structID ir.ID) (*structLayout, error) {
	if sl, ok := l.layouts[structID]; ok {
		if sl == nil {
			return nil, cross.Invalid("struct %d contains itself", structID)
		}
		return sl, nil
	}
	l.layouts[structID] = nil

	st := l.m.Type(structID)
	sl := &structLayout{members: make([]memberLayout, len(st.MemberTypes)), align: 1}
	var off uint32
	for i, mt := range st.MemberTypes {
		t := l.m.Type(mt)
		ml, err := l.member(structID, i, mt)
		if err != nil {
			return nil, err
		}
		explicit := l.cc.HasMemberDecoration(structID, i, spirv.DecorationOffset)
		decl := alignUp(off, ml.align)
		if explicit {
			decl = l.cc.MemberOffset(structID, i)
		}
		bound := unbounded
		switch {
		case i+1 < len(st.MemberTypes) && l.cc.HasMemberDecoration(structID, i+1, spirv.DecorationOffset):
			bound = l.cc.MemberOffset(structID, i+1)
		case i+1 == len(st.MemberTypes) && l.required[structID] > 0:
			bound = l.required[structID]
		}

		if isVec3(t) && !t.IsArray() && (decl%ml.align != 0 || (bound != unbounded && decl+ml.size > bound)) {
			ml.packed = true
			ml.size = 3 * t.ScalarSize()
			ml.align = t.ScalarSize()
		}
		switch {
		case decl%ml.align != 0:
			return nil, cross.Unsupported("member %d of struct %s at offset %d cannot be aligned to %d bytes",
				i, l.structName(structID), decl, ml.align)
		case decl < off:
			return nil, cross.Unsupported("member %d of struct %s at offset %d overlaps the previous member",
				i, l.structName(structID), decl)
		case bound != unbounded && decl+ml.size > bound:
			return nil, cross.Unsupported("member %d of struct %s needs %d bytes but only %d are available",
				i, l.structName(structID), ml.size, bound-decl)
		}
		if alignUp(off, ml.align) != decl {
			ml.pad = decl - off
		}
		ml.offset = decl
		off = decl + ml.size
		sl.align = max(sl.align, ml.align)
		sl.members[i] = ml
	}

	sl.size = alignUp(off, sl.align)
	if req := l.required[structID]; req > 0 && req != sl.size {
		if req < sl.size || alignUp(req, sl.align) != req {
			return nil, cross.Unsupported("struct %s of %d bytes cannot be laid out with an array stride of %d",
				l.structName(structID), sl.size, req)
		}
		sl.tail = req - off
		sl.size = req
	}
	l.layouts[structID] = sl
	l.log.Debug("laid out buffer struct",
		zap.String("struct", l.structName(structID)),
		zap.Uint32("size", sl.size),
		zap.Uint32("align", sl.align))
	return sl, nil
}

// member computes the natural placement of member i before offsets are
// reconciled.
func (l *layouter) member(structID ir.ID, i int, mt ir.ID) (memberLayout, error) {
	t := l.m.Type(mt)
	rowMajor := t.Columns > 1 && l.cc.HasMemberDecoration(structID, i, spirv.DecorationRowMajor)
	var ml memberLayout

	switch {
	case t.IsArray():
		if rowMajor {
			return ml, cross.Unsupported("arrays of row-major matrices in struct %s are not supported", l.structName(structID))
		}
		n, literal, ok := l.m.ArrayDimension(t, len(t.Array)-1)
		if !ok || !literal {
			return ml, cross.Unsupported("member %d of struct %s has an array size that is not a literal", i, l.structName(structID))
		}
		elem := l.m.Type(t.Parent)
		stride := l.m.DecorationValue(mt, spirv.DecorationArrayStride)
		if elem.Base == ir.BaseStruct && !elem.IsArray() && stride != 0 {
			if err := l.require(elem.Self, stride); err != nil {
				return ml, err
			}
		}
		es, ea, err := l.natural(elem, false)
		if err != nil {
			return ml, err
		}
		if elem.IsArray() {
			if inner := l.m.DecorationValue(t.Parent, spirv.DecorationArrayStride); inner != 0 {
				in, _, _ := l.m.ArrayDimension(elem, len(elem.Array)-1)
				if in > 0 && inner*in != es {
					return ml, cross.Unsupported("nested array strides of struct %s are not supported", l.structName(structID))
				}
			}
		}
		natural := alignUp(es, ea)
		if stride != 0 && stride != natural {
			w := elem.ScalarSize()
			switch {
			case isVec3(elem) && !elem.IsArray() && stride == 3*w:
				ml.packed = true
				ea = w
			case elem.Columns == 1 && !elem.IsArray() && elem.Base != ir.BaseStruct && stride == 4*w && natural < stride:
				ml.widened = true
				ea = 4 * w
			default:
				return ml, cross.Unsupported("array stride %d of member %d of struct %s cannot be represented",
					stride, i, l.structName(structID))
			}
			natural = stride
		}
		ml.size = n * natural
		ml.align = ea

	case t.Base == ir.BaseStruct:
		sl, err := l.layout(t.Self)
		if err != nil {
			return ml, err
		}
		ml.size, ml.align = sl.size, sl.align

	case t.Columns > 1:
		cols, rows := t.Columns, t.VecSize
		if rowMajor {
			cols, rows = rows, cols
			ml.transposed = true
		}
		cs, ca := vectorLayout(rows, t.ScalarSize())
		stride := alignUp(cs, ca)
		if declared := l.cc.MemberMatrixStride(structID, i); declared != 0 && declared != stride {
			w := t.ScalarSize()
			if rowMajor || declared != 4*w || stride > declared {
				return ml, cross.Unsupported("matrix stride %d of member %d of struct %s cannot be represented",
					declared, i, l.structName(structID))
			}
			ml.widened = true
			ca = 4 * w
			stride = declared
		}
		ml.size = cols * stride
		ml.align = ca

	default:
		ml.size, ml.align = vectorLayout(t.VecSize, t.ScalarSize())
	}
	return ml, nil
}

// natural returns the Metal size and alignment of t.
func (l *layouter) natural(t *ir.Type, rowMajor bool) (size, align uint32, err error) {
	switch {
	case t.IsArray():
		es, ea, err := l.natural(l.m.Type(t.Parent), rowMajor)
		if err != nil {
			return 0, 0, err
		}
		n, _, ok := l.m.ArrayDimension(t, len(t.Array)-1)
		if !ok {
			return 0, 0, cross.Unsupported("array size of type %d cannot be resolved", t.Self)
		}
		return n * alignUp(es, ea), ea, nil
	case t.Base == ir.BaseStruct:
		sl, err := l.layout(t.Self)
		if err != nil {
			return 0, 0, err
		}
		return sl.size, sl.align, nil
	case t.Columns > 1:
		cols, rows := t.Columns, t.VecSize
		if rowMajor {
			cols, rows = rows, cols
		}
		cs, ca := vectorLayout(rows, t.ScalarSize())
		return cols * alignUp(cs, ca), ca, nil
	}
	size, align = vectorLayout(t.VecSize, t.ScalarSize())
	return size, align, nil
}

// require records the stride an array imposes on its struct elements.
func (l *layouter) require(structID ir.ID, stride uint32) error {
	if prev, ok := l.required[structID]; ok && prev != stride {
		return cross.Unsupported("struct %s is used with array strides %d and %d",
			l.structName(structID), prev, stride)
	}
	if sl := l.layouts[structID]; sl != nil && sl.size != stride && l.required[structID] == 0 {
		return cross.Unsupported("struct %s of %d bytes is used with array stride %d",
			l.structName(structID), sl.size, stride)
	}
	l.required[structID] = stride
	return nil
}

func (l *layouter) structName(id ir.ID) string {
	if n := l.m.Name(id); n != "" {
		return n
	}
	return "_" + strconv.FormatUint(uint64(id), 10)
}

// apply records the chosen layouts as extended decorations on the working
// module: filler sizes, packed and widened physical types, and transposed
// row-major matrices.
func (l *layouter) apply() {
	ids := make([]ir.ID, 0, len(l.layouts))
	for id := range l.layouts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		sl := l.layouts[id]
		meta := l.m.MetaFor(id)
		if sl.tail > 0 {
			meta.Decoration.SetExtended(ir.ExtPaddingTarget, sl.tail)
		}
		st := l.m.Type(id)
		for i, ml := range sl.members {
			d := meta.Member(i)
			t := l.m.Type(st.MemberTypes[i])
			if ml.pad > 0 {
				d.SetExtended(ir.ExtPaddingTarget, ml.pad)
			}
			if ml.packed {
				d.SetExtended(ir.ExtPhysicalTypePacked, 1)
			}
			switch {
			case ml.widened && t.IsArray():
				d.SetExtended(ir.ExtPhysicalTypeID, uint32(numericType(l.m, t.Base, t.Width, 4, 1)))
			case ml.widened:
				d.SetExtended(ir.ExtPhysicalTypeID, uint32(numericType(l.m, t.Base, t.Width, 4, t.Columns)))
			case ml.transposed:
				d.SetExtended(ir.ExtRowMajorTranspose, 1)
				d.SetExtended(ir.ExtPhysicalTypeID, uint32(numericType(l.m, t.Base, t.Width, t.Columns, t.VecSize)))
			}
		}
	}
}

// memberDecoration returns the decorations of member i of a struct
// without creating them.
func memberDecoration(m *ir.Module, structID ir.ID, i int) *ir.Decoration {
	meta, ok := m.Meta[structID]
	if !ok || i < 0 || i >= len(meta.Members) {
		return nil
	}
	return &meta.Members[i]
}

// PhysicalMemberOffset returns the byte offset Metal places member i of a
// buffer struct at. It equals the declared Offset whenever compilation
// succeeds.
func (c *Compiler) PhysicalMemberOffset(structID ir.ID, i int) (uint32, error) {
	sl, err := c.physicalLayout(structID)
	if err != nil {
		return 0, err
	}
	if i < 0 || i >= len(sl.members) {
		return 0, cross.Errorf(cross.ErrInvalidArgument, "struct %d has no member %d", structID, i)
	}
	return sl.members[i].offset, nil
}

// PhysicalStructSize returns the size of a buffer struct as declared in
// the generated source, filler included.
func (c *Compiler) PhysicalStructSize(structID ir.ID) (uint32, error) {
	sl, err := c.physicalLayout(structID)
	if err != nil {
		return 0, err
	}
	return sl.size, nil
}

func (c *Compiler) physicalLayout(structID ir.ID) (*structLayout, error) {
	t := c.Type(structID)
	if t == nil || t.Base != ir.BaseStruct {
		return nil, cross.Errorf(cross.ErrInvalidArgument, "type %d is not a struct", structID)
	}
	l := newLayouter(c.Compiler)
	if err := l.run(); err != nil {
		return nil, err
	}
	sl, err := l.layout(t.Self)
	if err != nil {
		return nil, err
	}
	return sl, nil
}
