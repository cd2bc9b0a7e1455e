package reflection

import (
	"fmt"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// structKey names a struct in the types table.
func structKey(id ir.ID) string { return fmt.Sprintf("_%d", id) }

func scalarName(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return "bool"
	case ir.BaseInt:
		switch t.Width {
		case 8:
			return "int8_t"
		case 16:
			return "int16_t"
		case 64:
			return "int64_t"
		}
		return "int"
	case ir.BaseUInt:
		switch t.Width {
		case 8:
			return "uint8_t"
		case 16:
			return "uint16_t"
		case 64:
			return "uint64_t"
		}
		return "uint"
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return "float16_t"
		case 64:
			return "double"
		}
		return "float"
	}
	return "void"
}

// vectorPrefix returns the prefix of vector and matrix names, such as
// "i" in ivec4 or "d" in dmat3.
func vectorPrefix(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return "b"
	case ir.BaseInt:
		switch t.Width {
		case 16:
			return "i16"
		case 64:
			return "i64"
		}
		return "i"
	case ir.BaseUInt:
		switch t.Width {
		case 16:
			return "u16"
		case 64:
			return "u64"
		}
		return "u"
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return "f16"
		case 64:
			return "d"
		}
	}
	return ""
}

func dimName(img ir.ImageType) string {
	switch img.Dim {
	case spirv.Dim1D:
		return "1D"
	case spirv.Dim3D:
		return "3D"
	case spirv.DimCube:
		return "Cube"
	case spirv.DimRect:
		return "2DRect"
	case spirv.DimBuffer:
		return "Buffer"
	}
	return "2D"
}

func (r *reflector) imageName(t *ir.Type) string {
	img := t.Image
	prefix := ""
	if st := r.m.Type(img.SampledType); st != nil && st.IsInteger() {
		prefix = vectorPrefix(st)[:1]
	}
	if img.Dim == spirv.DimSubpassData {
		if img.MS {
			return prefix + "subpassInputMS"
		}
		return prefix + "subpassInput"
	}
	var kind string
	switch {
	case t.Base == ir.BaseSampledImage:
		kind = "sampler"
	case img.Sampled == 2:
		kind = "image"
	default:
		kind = "texture"
	}
	name := prefix + kind + dimName(img)
	if img.MS {
		name += "MS"
	}
	if img.Arrayed {
		name += "Array"
	}
	if img.Depth && t.Base == ir.BaseSampledImage {
		name += "Shadow"
	}
	return name
}

// typeName spells a type the way GLSL declares it, without array
// dimensions. Structs are referenced by their types table key.
func (r *reflector) typeName(id ir.ID) string {
	t := r.m.Type(id)
	if t == nil {
		return "void"
	}
	switch t.Base {
	case ir.BaseStruct:
		return structKey(t.Self)
	case ir.BaseImage, ir.BaseSampledImage:
		return r.imageName(t)
	case ir.BaseSampler:
		return "sampler"
	case ir.BaseAccelerationStructure:
		return "accelerationStructureEXT"
	case ir.BaseVoid, ir.BaseUnknown:
		return "void"
	}
	switch {
	case t.Columns > 1 && t.Columns == t.VecSize:
		return fmt.Sprintf("%smat%d", vectorPrefix(t), t.Columns)
	case t.Columns > 1:
		return fmt.Sprintf("%smat%dx%d", vectorPrefix(t), t.Columns, t.VecSize)
	case t.VecSize > 1:
		return fmt.Sprintf("%svec%d", vectorPrefix(t), t.VecSize)
	}
	return scalarName(t)
}

// formatNames spell storage image formats as GLSL layout qualifiers.
var formatNames = map[spirv.ImageFormat]string{
	spirv.ImageFormatRgba32f:    "rgba32f",
	spirv.ImageFormatRgba16f:    "rgba16f",
	spirv.ImageFormatR32f:       "r32f",
	spirv.ImageFormatRgba8:      "rgba8",
	spirv.ImageFormatRgba8Snorm: "rgba8_snorm",
	spirv.ImageFormatRg32f:      "rg32f",
	spirv.ImageFormatRg16f:      "rg16f",
	spirv.ImageFormatR16f:       "r16f",
	spirv.ImageFormatRgba32i:    "rgba32i",
	spirv.ImageFormatRgba16i:    "rgba16i",
	spirv.ImageFormatRgba8i:     "rgba8i",
	spirv.ImageFormatR32i:       "r32i",
	spirv.ImageFormatRgba32ui:   "rgba32ui",
	spirv.ImageFormatRgba16ui:   "rgba16ui",
	spirv.ImageFormatRgba8ui:    "rgba8ui",
	spirv.ImageFormatR32ui:      "r32ui",
}

// modeNames are the short stage names of entry points.
var modeNames = map[spirv.ExecutionModel]string{
	spirv.ExecutionModelVertex:                 "vert",
	spirv.ExecutionModelTessellationControl:    "tesc",
	spirv.ExecutionModelTessellationEvaluation: "tese",
	spirv.ExecutionModelGeometry:               "geom",
	spirv.ExecutionModelFragment:               "frag",
	spirv.ExecutionModelGLCompute:              "comp",
	spirv.ExecutionModelKernel:                 "kernel",
}
