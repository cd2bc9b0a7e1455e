// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// HLSL type name constants.
const (
	hlslTypeBool  = "bool"
	hlslTypeInt   = "int"
	hlslTypeUint  = "uint"
	hlslTypeFloat = "float"
)

// scalarToHLSL returns the HLSL name for the component type of t.
// Ref: https://docs.microsoft.com/en-us/windows/win32/direct3dhlsl/dx-graphics-hlsl-scalar
func scalarToHLSL(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return hlslTypeBool
	case ir.BaseInt:
		switch t.Width {
		case 16:
			return "int16_t"
		case 64:
			return "int64_t"
		}
		return hlslTypeInt
	case ir.BaseUInt:
		switch t.Width {
		case 16:
			return "uint16_t"
		case 64:
			return "uint64_t"
		}
		return hlslTypeUint
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return "half"
		case 64:
			return "double"
		}
		return hlslTypeFloat
	}
	return "void"
}

// numericToHLSL spells a scalar, vector or matrix type. A SPIR-V matrix
// of C columns of R rows is declared floatCxR: each column becomes an
// HLSL row, so indexing a matrix selects the same vector in both
// languages.
func numericToHLSL(t *ir.Type) string {
	switch {
	case t.Columns > 1:
		return fmt.Sprintf("%s%dx%d", scalarToHLSL(t), t.Columns, t.VecSize)
	case t.VecSize > 1:
		return fmt.Sprintf("%s%d", scalarToHLSL(t), t.VecSize)
	}
	return scalarToHLSL(t)
}

// imageDimSuffix spells the dimensionality part of texture type names.
func imageDimSuffix(img ir.ImageType) string {
	var s string
	switch img.Dim {
	case spirv.Dim1D:
		s = "1D"
	case spirv.Dim3D:
		s = "3D"
	case spirv.DimCube:
		s = "Cube"
	default:
		s = "2D"
	}
	if img.MS {
		s += "MS"
	}
	if img.Arrayed && img.Dim != spirv.Dim3D {
		s += "Array"
	}
	return s
}

// storageFormats maps storage image formats to the typed UAV element
// they are declared with.
var storageFormats = map[spirv.ImageFormat]string{
	spirv.ImageFormatRgba32f:    "float4",
	spirv.ImageFormatRgba16f:    "float4",
	spirv.ImageFormatR32f:       "float",
	spirv.ImageFormatRgba8:      "unorm float4",
	spirv.ImageFormatRgba8Snorm: "snorm float4",
	spirv.ImageFormatRg32f:      "float2",
	spirv.ImageFormatRg16f:      "float2",
	spirv.ImageFormatR16f:       "float",
	spirv.ImageFormatRgba32i:    "int4",
	spirv.ImageFormatRgba16i:    "int4",
	spirv.ImageFormatRgba8i:     "int4",
	spirv.ImageFormatR32i:       "int",
	spirv.ImageFormatRgba32ui:   "uint4",
	spirv.ImageFormatRgba16ui:   "uint4",
	spirv.ImageFormatRgba8ui:    "uint4",
	spirv.ImageFormatR32ui:      "uint",
}

// texelType returns the template argument of a texture: the storage
// format's element, or a four-component vector of the sampled type.
func texelType(m *ir.Module, img ir.ImageType) string {
	if img.Sampled == 2 {
		if s, ok := storageFormats[img.Format]; ok {
			return s
		}
	}
	base := hlslTypeFloat
	if st := m.Type(img.SampledType); st != nil {
		base = scalarToHLSL(st)
	}
	return base + "4"
}

// imageToHLSL returns the HLSL object type of an image or sampler.
// Storage images become read-write views unless readOnly is set; samplers
// become comparison samplers when comparison is set.
func imageToHLSL(m *ir.Module, t *ir.Type, readOnly, comparison bool) string {
	if t.Base == ir.BaseSampler {
		if comparison {
			return "SamplerComparisonState"
		}
		return "SamplerState"
	}
	img := t.Image
	prefix := ""
	if img.Sampled == 2 && !readOnly {
		prefix = "RW"
	}
	if img.Dim == spirv.DimBuffer {
		return prefix + "Buffer<" + texelType(m, img) + ">"
	}
	return prefix + "Texture" + imageDimSuffix(img) + "<" + texelType(m, img) + ">"
}

// imageCoordinates counts the size components of an image: its
// dimensionality plus one for arrayed images.
func imageCoordinates(img ir.ImageType) int {
	n := 2
	switch img.Dim {
	case spirv.Dim1D, spirv.DimBuffer:
		n = 1
	case spirv.Dim3D:
		n = 3
	}
	if img.Arrayed {
		n++
	}
	return n
}

// builtinDesc describes a builtin as a static global copied from or to a
// stage struct member carrying a system-value semantic.
type builtinDesc struct {
	name     string
	semantic string
	// base and vec give the HLSL type of the stage member; BaseUnknown
	// keeps the declared type.
	base ir.BaseType
	vec  uint32
}

var builtins = map[spirv.BuiltIn]builtinDesc{
	spirv.BuiltInPosition:             {name: "gl_Position", semantic: "SV_Position"},
	spirv.BuiltInFragCoord:            {name: "gl_FragCoord", semantic: "SV_Position", base: ir.BaseFloat, vec: 4},
	spirv.BuiltInVertexID:             {name: "gl_VertexIndex", semantic: "SV_VertexID", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInVertexIndex:          {name: "gl_VertexIndex", semantic: "SV_VertexID", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInInstanceID:           {name: "gl_InstanceIndex", semantic: "SV_InstanceID", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInInstanceIndex:        {name: "gl_InstanceIndex", semantic: "SV_InstanceID", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInFrontFacing:          {name: "gl_FrontFacing", semantic: "SV_IsFrontFace", base: ir.BaseBool, vec: 1},
	spirv.BuiltInFragDepth:            {name: "gl_FragDepth", semantic: "SV_Depth", base: ir.BaseFloat, vec: 1},
	spirv.BuiltInSampleID:             {name: "gl_SampleID", semantic: "SV_SampleIndex", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInSampleMask:           {name: "gl_SampleMask", semantic: "SV_Coverage", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInLayer:                {name: "gl_Layer", semantic: "SV_RenderTargetArrayIndex", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInViewportIndex:        {name: "gl_ViewportIndex", semantic: "SV_ViewportArrayIndex", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInPrimitiveID:          {name: "gl_PrimitiveID", semantic: "SV_PrimitiveID", base: ir.BaseUInt, vec: 1},
	spirv.BuiltInGlobalInvocationID:   {name: "gl_GlobalInvocationID", semantic: "SV_DispatchThreadID", base: ir.BaseUInt, vec: 3},
	spirv.BuiltInLocalInvocationID:    {name: "gl_LocalInvocationID", semantic: "SV_GroupThreadID", base: ir.BaseUInt, vec: 3},
	spirv.BuiltInWorkgroupID:          {name: "gl_WorkGroupID", semantic: "SV_GroupID", base: ir.BaseUInt, vec: 3},
	spirv.BuiltInLocalInvocationIndex: {name: "gl_LocalInvocationIndex", semantic: "SV_GroupIndex", base: ir.BaseUInt, vec: 1},
	// Point size has no Direct3D equivalent; writes go to a static that
	// is never output.
	spirv.BuiltInPointSize: {name: "gl_PointSize"},
}

// interpolationModifier spells the HLSL interpolation modifier of the
// decorations has reports.
func interpolationModifier(has func(spirv.Decoration) bool) string {
	var mods []string
	switch {
	case has(spirv.DecorationFlat):
		mods = append(mods, "nointerpolation")
	case has(spirv.DecorationNoPerspective):
		mods = append(mods, "noperspective")
	}
	switch {
	case has(spirv.DecorationCentroid):
		mods = append(mods, "centroid")
	case has(spirv.DecorationSample):
		mods = append(mods, "sample")
	}
	out := ""
	for _, m := range mods {
		out += m + " "
	}
	return out
}
