package msl

import (
	"strconv"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// scalarTypeName returns the MSL name of the component type of t.
func scalarTypeName(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return "bool"
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return "half"
		case 64:
			return "double"
		}
		return "float"
	case ir.BaseInt:
		switch t.Width {
		case 8:
			return "char"
		case 16:
			return "short"
		case 64:
			return "long"
		}
		return "int"
	case ir.BaseUInt:
		switch t.Width {
		case 8:
			return "uchar"
		case 16:
			return "ushort"
		case 64:
			return "ulong"
		}
		return "uint"
	}
	return "void"
}

// numericTypeName spells a scalar, vector or matrix type. Metal names
// matrices columns first: floatCxR.
func numericTypeName(t *ir.Type) string {
	scalar := scalarTypeName(t)
	switch {
	case t.Columns > 1:
		return scalar + strconv.Itoa(int(t.Columns)) + "x" + strconv.Itoa(int(t.VecSize))
	case t.VecSize > 1:
		return scalar + strconv.Itoa(int(t.VecSize))
	}
	return scalar
}

// packedTypeName spells the tightly packed variant of a vector type.
func packedTypeName(t *ir.Type) string {
	return "packed_" + numericTypeName(t)
}

// atomicTypeName returns the atomic type matching an integer type.
func atomicTypeName(t *ir.Type) string {
	if t.Base == ir.BaseInt {
		return "atomic_int"
	}
	return "atomic_uint"
}

// addressSpaceName returns the MSL address space of a storage class.
func addressSpaceName(m *ir.Module, storage spirv.StorageClass, pointee ir.ID) string {
	switch storage {
	case spirv.StorageClassStorageBuffer:
		return "device"
	case spirv.StorageClassUniform:
		if t := m.Type(pointee); t != nil && m.HasDecoration(t.Self, spirv.DecorationBufferBlock) {
			return "device"
		}
		return "constant"
	case spirv.StorageClassPushConstant, spirv.StorageClassUniformConstant:
		return "constant"
	case spirv.StorageClassWorkgroup:
		return "threadgroup"
	}
	return "thread"
}

// imageAccess is the access qualifier of a storage texture.
type imageAccess uint8

const (
	accessReadWrite imageAccess = iota
	accessRead
	accessWrite
)

// textureTypeName spells the texture type of an image or sampled image.
func textureTypeName(m *ir.Module, t *ir.Type, access imageAccess) string {
	img := t.Image
	sampled := "float"
	if st := m.Type(img.SampledType); st != nil {
		sampled = scalarTypeName(st)
	}

	var name string
	if img.Depth {
		switch img.Dim {
		case spirv.DimCube:
			name = "depthcube"
		default:
			name = "depth2d"
		}
	} else {
		switch img.Dim {
		case spirv.Dim1D:
			name = "texture1d"
		case spirv.Dim3D:
			name = "texture3d"
		case spirv.DimCube:
			name = "texturecube"
		case spirv.DimBuffer:
			name = "texture_buffer"
		default:
			name = "texture2d"
		}
	}
	if img.MS {
		name += "_ms"
	}
	if img.Arrayed {
		name += "_array"
	}

	args := sampled
	if img.Sampled == 2 {
		switch access {
		case accessRead:
			args += ", access::read"
		case accessWrite:
			args += ", access::write"
		default:
			args += ", access::read_write"
		}
	}
	return name + "<" + args + ">"
}

// accessOf derives the storage texture access of a variable from its
// NonReadable and NonWritable decorations.
func accessOf(m *ir.Module, id ir.ID) imageAccess {
	switch {
	case m.HasDecoration(id, spirv.DecorationNonReadable):
		return accessWrite
	case m.HasDecoration(id, spirv.DecorationNonWritable):
		return accessRead
	}
	return accessReadWrite
}

// coordinateCount is the number of coordinate components an image
// dimensionality takes, excluding the array layer.
func coordinateCount(dim spirv.Dim) int {
	switch dim {
	case spirv.Dim1D, spirv.DimBuffer:
		return 1
	case spirv.Dim3D, spirv.DimCube:
		return 3
	}
	return 2
}

// locationCount is the number of consecutive locations a stage interface
// value of type t occupies.
func locationCount(m *ir.Module, t *ir.Type) uint32 {
	switch {
	case t.IsArray():
		n, _, _ := m.ArrayDimension(t, len(t.Array)-1)
		return n * locationCount(m, m.Type(t.Parent))
	case t.Base == ir.BaseStruct:
		var total uint32
		for _, mt := range m.Type(t.Self).MemberTypes {
			total += locationCount(m, m.Type(mt))
		}
		return total
	case t.Columns > 1:
		return t.Columns
	}
	return 1
}

// findType returns an existing declaration matching want, or declares it
// on the working module.
func findType(m *ir.Module, want ir.Type) ir.ID {
	for _, id := range m.Declarations {
		t := m.Types[id]
		if t == nil || t.Pointer || t.IsArray() || t.Base != want.Base || t.Base == ir.BaseStruct {
			continue
		}
		if t.Width == want.Width && t.VecSize == want.VecSize && t.Columns == want.Columns {
			return id
		}
	}
	return m.DeclareType(&want)
}

// numericType returns the ID of the numeric type base x width with the
// given vector size and column count.
func numericType(m *ir.Module, base ir.BaseType, width, vec, cols uint32) ir.ID {
	if cols > 1 {
		col := numericType(m, base, width, vec, 1)
		return findType(m, ir.Type{Base: base, Width: width, VecSize: vec, Columns: cols, Parent: col})
	}
	if vec > 1 {
		comp := numericType(m, base, width, 1, 1)
		return findType(m, ir.Type{Base: base, Width: width, VecSize: vec, Columns: 1, Parent: comp})
	}
	return findType(m, ir.Type{Base: base, Width: width, VecSize: 1, Columns: 1})
}
