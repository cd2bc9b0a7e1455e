// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// glslTypeSampler is the GLSL type name for samplers.
const glslTypeSampler = "sampler"

// scalarToGLSL returns the GLSL name for the component type of t.
func scalarToGLSL(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return "bool"
	case ir.BaseInt:
		if t.Width == 64 {
			return "int64_t" // Requires extension
		}
		return "int"
	case ir.BaseUInt:
		if t.Width == 64 {
			return "uint64_t" // Requires extension
		}
		return "uint"
	case ir.BaseFloat:
		switch t.Width {
		case 16:
			return "float16_t" // Requires extension
		case 64:
			return "double"
		}
		return "float"
	}
	return "void"
}

// vectorPrefix returns the prefix of vector and matrix type names.
func vectorPrefix(t *ir.Type) string {
	switch t.Base {
	case ir.BaseBool:
		return "b"
	case ir.BaseInt:
		return "i"
	case ir.BaseUInt:
		return "u"
	case ir.BaseFloat:
		if t.Width == 64 {
			return "d"
		}
	}
	return ""
}

// numericToGLSL spells a scalar, vector or matrix type. GLSL names
// matrices columns first: matCxR, or matN when square.
func numericToGLSL(t *ir.Type) string {
	switch {
	case t.Columns > 1:
		if t.Columns == t.VecSize {
			return fmt.Sprintf("%smat%d", vectorPrefix(t), t.Columns)
		}
		return fmt.Sprintf("%smat%dx%d", vectorPrefix(t), t.Columns, t.VecSize)
	case t.VecSize > 1:
		return fmt.Sprintf("%svec%d", vectorPrefix(t), t.VecSize)
	}
	return scalarToGLSL(t)
}

// imageDimSuffix spells the dimensionality part of sampler and image
// type names.
func imageDimSuffix(img ir.ImageType) string {
	var s string
	switch img.Dim {
	case spirv.Dim1D:
		s = "1D"
	case spirv.Dim3D:
		s = "3D"
	case spirv.DimCube:
		s = "Cube"
	case spirv.DimRect:
		s = "2DRect"
	case spirv.DimBuffer:
		return "Buffer"
	case spirv.DimSubpassData:
		if img.MS {
			return "MS"
		}
		return ""
	default:
		s = "2D"
	}
	if img.MS {
		s += "MS"
	}
	if img.Arrayed {
		s += "Array"
	}
	return s
}

// imageToGLSL returns the GLSL name for an image, sampled image or
// sampler. separate selects the Vulkan texture types for images that are
// combined with a sampler at the use site.
func imageToGLSL(m *ir.Module, t *ir.Type, separate bool) string {
	if t.Base == ir.BaseSampler {
		return glslTypeSampler
	}
	img := t.Image
	prefix := ""
	if st := m.Type(img.SampledType); st != nil {
		switch st.Base {
		case ir.BaseInt:
			prefix = "i"
		case ir.BaseUInt:
			prefix = "u"
		}
	}
	dim := imageDimSuffix(img)
	switch {
	case img.Dim == spirv.DimSubpassData:
		return prefix + "subpassInput" + dim
	case img.Sampled == 2:
		return prefix + "image" + dim
	case t.Base == ir.BaseImage && separate:
		return prefix + "texture" + dim
	}
	name := prefix + glslTypeSampler + dim
	if img.Depth && img.Dim != spirv.DimBuffer && !img.MS {
		name += "Shadow"
	}
	return name
}

// imageFormats maps storage image formats to layout qualifiers.
var imageFormats = map[spirv.ImageFormat]string{
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

// builtinInfo describes how a builtin is spelled in GLSL.
type builtinInfo struct {
	name string
	// signed marks builtins GLSL declares as int; SPIR-V may declare
	// them uint.
	signed bool
}

var builtins = map[spirv.BuiltIn]builtinInfo{
	spirv.BuiltInPosition:             {name: "gl_Position"},
	spirv.BuiltInPointSize:            {name: "gl_PointSize"},
	spirv.BuiltInClipDistance:         {name: "gl_ClipDistance"},
	spirv.BuiltInCullDistance:         {name: "gl_CullDistance"},
	spirv.BuiltInVertexID:             {name: "gl_VertexID", signed: true},
	spirv.BuiltInInstanceID:           {name: "gl_InstanceID", signed: true},
	spirv.BuiltInPrimitiveID:          {name: "gl_PrimitiveID", signed: true},
	spirv.BuiltInLayer:                {name: "gl_Layer", signed: true},
	spirv.BuiltInViewportIndex:        {name: "gl_ViewportIndex", signed: true},
	spirv.BuiltInFragCoord:            {name: "gl_FragCoord"},
	spirv.BuiltInPointCoord:           {name: "gl_PointCoord"},
	spirv.BuiltInFrontFacing:          {name: "gl_FrontFacing"},
	spirv.BuiltInSampleID:             {name: "gl_SampleID", signed: true},
	spirv.BuiltInSamplePosition:       {name: "gl_SamplePosition"},
	spirv.BuiltInFragDepth:            {name: "gl_FragDepth"},
	spirv.BuiltInHelperInvocation:     {name: "gl_HelperInvocation"},
	spirv.BuiltInNumWorkgroups:        {name: "gl_NumWorkGroups"},
	spirv.BuiltInWorkgroupSize:        {name: "gl_WorkGroupSize"},
	spirv.BuiltInWorkgroupID:          {name: "gl_WorkGroupID"},
	spirv.BuiltInLocalInvocationID:    {name: "gl_LocalInvocationID"},
	spirv.BuiltInGlobalInvocationID:   {name: "gl_GlobalInvocationID"},
	spirv.BuiltInLocalInvocationIndex: {name: "gl_LocalInvocationIndex"},
	spirv.BuiltInViewIndex:            {name: "gl_ViewIndex", signed: true},
}

// builtinName returns the GLSL spelling of a builtin. Storage tells
// inputs from outputs for the sample mask, and vulkan selects the Vulkan
// names of the vertex and instance indices.
func builtinName(b spirv.BuiltIn, storage spirv.StorageClass, vulkan bool) (builtinInfo, bool) {
	switch b {
	case spirv.BuiltInSampleMask:
		if storage == spirv.StorageClassInput {
			return builtinInfo{name: "gl_SampleMaskIn", signed: true}, true
		}
		return builtinInfo{name: "gl_SampleMask", signed: true}, true
	case spirv.BuiltInVertexIndex:
		if vulkan {
			return builtinInfo{name: "gl_VertexIndex", signed: true}, true
		}
		return builtinInfo{name: "gl_VertexID", signed: true}, true
	case spirv.BuiltInInstanceIndex:
		if vulkan {
			return builtinInfo{name: "gl_InstanceIndex", signed: true}, true
		}
		return builtinInfo{name: "(gl_InstanceID + " + baseInstanceUniform + ")", signed: true}, true
	case spirv.BuiltInBaseVertex:
		if vulkan {
			return builtinInfo{name: "gl_BaseVertex", signed: true}, true
		}
		return builtinInfo{name: "gl_BaseVertexARB", signed: true}, true
	case spirv.BuiltInBaseInstance:
		if vulkan {
			return builtinInfo{name: "gl_BaseInstance", signed: true}, true
		}
		return builtinInfo{name: "gl_BaseInstanceARB", signed: true}, true
	case spirv.BuiltInDrawIndex:
		if vulkan {
			return builtinInfo{name: "gl_DrawID", signed: true}, true
		}
		return builtinInfo{name: "gl_DrawIDARB", signed: true}, true
	}
	info, ok := builtins[b]
	return info, ok
}

// baseInstanceUniform emulates the Vulkan instance index on OpenGL, where
// gl_InstanceID does not include the base instance.
const baseInstanceUniform = "SPIRV_Cross_BaseInstance"
