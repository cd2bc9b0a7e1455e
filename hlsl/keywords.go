// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"sort"
	"strings"
)

// reservedWords are the FXC and DXC keywords, intrinsic functions and
// object type names that user identifiers must not shadow.
var reservedWords = []string{
	"AppendStructuredBuffer", "asm", "asm_fragment", "BlendState", "bool", "break",
	"Buffer", "ByteAddressBuffer", "case", "cbuffer", "centroid", "class", "column_major",
	"compile", "compile_fragment", "CompileShader", "const", "continue", "ComputeShader",
	"ConsumeStructuredBuffer", "default", "DepthStencilState", "DepthStencilView",
	"discard", "do", "double", "DomainShader", "dword", "else", "export", "extern", "false",
	"float", "for", "fxgroup", "GeometryShader", "groupshared", "half", "Hullshader", "if",
	"in", "inline", "inout", "InputPatch", "int", "interface", "line", "lineadj", "linear",
	"LineStream", "matrix", "min10float", "min12int", "min16float", "min16int", "min16uint",
	"namespace", "nointerpolation", "noperspective", "NULL", "out", "OutputPatch",
	"packoffset", "pass", "pixelfragment", "PixelShader", "point", "PointStream", "precise",
	"RasterizerState", "RenderTargetView", "return", "register", "row_major", "RWBuffer",
	"RWByteAddressBuffer", "RWStructuredBuffer", "RWTexture1D", "RWTexture1DArray",
	"RWTexture2D", "RWTexture2DArray", "RWTexture3D", "sample", "sampler", "SamplerState",
	"SamplerComparisonState", "shared", "snorm", "stateblock", "stateblock_state", "static",
	"string", "struct", "switch", "StructuredBuffer", "tbuffer", "technique", "technique10",
	"technique11", "texture", "Texture1D", "Texture1DArray", "Texture2D", "Texture2DArray",
	"Texture2DMS", "Texture2DMSArray", "Texture3D", "TextureCube", "TextureCubeArray",
	"true", "typedef", "triangle", "triangleadj", "TriangleStream", "uint", "uniform",
	"unorm", "unsigned", "vector", "vertexfragment", "VertexShader", "void", "volatile",
	"while", "auto", "catch", "char", "const_cast", "delete", "dynamic_cast", "enum",
	"explicit", "friend", "goto", "long", "mutable", "new", "operator", "private",
	"protected", "public", "reinterpret_cast", "short", "signed", "sizeof", "static_cast",
	"template", "this", "throw", "try", "typename", "union", "using", "virtual", "abort",
	"abs", "acos", "all", "AllMemoryBarrier", "AllMemoryBarrierWithGroupSync", "any",
	"asdouble", "asfloat", "asin", "asint", "asuint", "atan", "atan2", "ceil",
	"CheckAccessFullyMapped", "clamp", "clip", "cos", "cosh", "countbits", "cross",
	"D3DCOLORtoUBYTE4", "ddx", "ddx_coarse", "ddx_fine", "ddy", "ddy_coarse", "ddy_fine",
	"degrees", "determinant", "DeviceMemoryBarrier", "DeviceMemoryBarrierWithGroupSync",
	"distance", "dot", "dst", "errorf", "EvaluateAttributeAtSample",
	"EvaluateAttributeCentroid", "EvaluateAttributeSnapped", "exp", "exp2", "f16tof32",
	"f32tof16", "faceforward", "firstbithigh", "firstbitlow", "floor", "fma", "fmod",
	"frac", "frexp", "fwidth", "GetRenderTargetSampleCount",
	"GetRenderTargetSamplePosition", "GroupMemoryBarrier",
	"GroupMemoryBarrierWithGroupSync", "InterlockedAdd", "InterlockedAnd",
	"InterlockedCompareExchange", "InterlockedCompareStore", "InterlockedExchange",
	"InterlockedMax", "InterlockedMin", "InterlockedOr", "InterlockedXor", "isfinite",
	"isinf", "isnan", "ldexp", "length", "lerp", "lit", "log", "log10", "log2", "mad",
	"max", "min", "modf", "msad4", "mul", "noise", "normalize", "pow", "printf",
	"Process2DQuadTessFactorsAvg", "Process2DQuadTessFactorsMax",
	"Process2DQuadTessFactorsMin", "ProcessIsolineTessFactors", "ProcessQuadTessFactorsAvg",
	"ProcessQuadTessFactorsMax", "ProcessQuadTessFactorsMin", "ProcessTriTessFactorsAvg",
	"ProcessTriTessFactorsMax", "ProcessTriTessFactorsMin", "radians", "rcp", "reflect",
	"refract", "reversebits", "round", "rsqrt", "saturate", "sign", "sin", "sincos", "sinh",
	"smoothstep", "sqrt", "step", "tan", "tanh", "tex1D", "tex1Dbias", "tex1Dgrad",
	"tex1Dlod", "tex1Dproj", "tex2D", "tex2Dbias", "tex2Dgrad", "tex2Dlod", "tex2Dproj",
	"tex3D", "tex3Dbias", "tex3Dgrad", "tex3Dlod", "tex3Dproj", "texCUBE", "texCUBEbias",
	"texCUBEgrad", "texCUBElod", "texCUBEproj", "transpose", "trunc", "_Alignas",
	"_Alignof", "_Atomic", "_Bool", "_Complex", "_Generic", "_Imaginary", "_Noreturn",
	"_Static_assert", "_Thread_local", "wchar_t", "_Decimal32", "_Decimal64", "_Decimal128",
	"typeof", "L__FUNCTION__", "_asm", "typeid", "nullptr", "constexpr", "decltype",
	"noexcept", "static_assert", "thread_local", "alignas", "alignof", "char16_t",
	"char32_t", "co_await", "co_return", "co_yield", "concept", "requires", "char8_t",
	"consteval", "constinit", "WaveIsFirstLane", "WaveGetLaneIndex", "WaveGetLaneCount",
	"WaveActiveAnyTrue", "WaveActiveAllTrue", "WaveActiveAllEqual", "WaveActiveBallot",
	"WaveReadLaneAt", "WaveReadLaneFirst", "WaveActiveCountBits", "WaveActiveSum",
	"WaveActiveProduct", "WaveActiveBitAnd", "WaveActiveBitOr", "WaveActiveBitXor",
	"WaveActiveMin", "WaveActiveMax", "WavePrefixCountBits", "WavePrefixSum",
	"WavePrefixProduct", "WaveMatch", "WaveMultiPrefixBitAnd", "WaveMultiPrefixBitOr",
	"WaveMultiPrefixBitXor", "WaveMultiPrefixCountBits", "WaveMultiPrefixProduct",
	"WaveMultiPrefixSum", "QuadReadLaneAt", "QuadReadAcrossX", "QuadReadAcrossY",
	"QuadReadAcrossDiagonal", "QuadAny", "QuadAll", "TraceRay", "ReportHit", "CallShader",
	"IgnoreHit", "AcceptHitAndEndSearch", "DispatchRaysIndex", "DispatchRaysDimensions",
	"WorldRayOrigin", "WorldRayDirection", "ObjectRayOrigin", "ObjectRayDirection",
	"RayTMin", "RayTCurrent", "PrimitiveIndex", "InstanceID", "InstanceIndex",
	"GeometryIndex", "HitKind", "RayFlags", "ObjectToWorld", "ObjectToWorld3x4",
	"ObjectToWorld4x3", "WorldToObject", "WorldToObject3x4", "WorldToObject4x3",
	"SetMeshOutputCounts", "DispatchMesh", "IsHelperLane", "AllocateRayQuery",
	"CreateResourceFromHeap", "RWTexture2DMS", "RWTexture2DMSArray", "RWTextureCube",
	"RWTextureCubeArray", "FeedbackTexture2D", "FeedbackTexture2DArray",
	"RasterizerOrderedTexture1D", "RasterizerOrderedTexture2D",
	"RasterizerOrderedTexture3D", "RasterizerOrderedTexture1DArray",
	"RasterizerOrderedTexture2DArray", "RasterizerOrderedBuffer",
	"RasterizerOrderedByteAddressBuffer", "RasterizerOrderedStructuredBuffer",
	"ConstantBuffer", "TextureBuffer", "RaytracingAccelerationStructure", "RayQuery",
	"RayDesc", "globallycoherent", "indices", "vertices", "primitives", "payload",
	"attributes", "SV_Position", "SV_Target", "SV_Depth", "SV_VertexID", "SV_InstanceID",
	"SV_PrimitiveID", "SV_IsFrontFace", "SV_SampleIndex", "SV_Coverage", "SV_ClipDistance",
	"SV_CullDistance", "SV_DispatchThreadID", "SV_GroupID", "SV_GroupIndex",
	"SV_GroupThreadID", "SV_GSInstanceID", "SV_InsideTessFactor", "SV_OutputControlPointID",
	"SV_RenderTargetArrayIndex", "SV_TessFactor", "SV_ViewportArrayIndex", "SV_StencilRef",
	"SV_Barycentrics", "SV_ShadingRate", "SV_CullPrimitive",
}

// caseInsensitiveKeywords are legacy effect keywords matched regardless
// of case.
var caseInsensitiveKeywords = map[string]struct{}{
	"asm": {}, "decl": {}, "pass": {}, "technique": {},
	"texture1d": {}, "texture2d": {}, "texture3d": {}, "texturecube": {},
}

// typeShorthands lists every scalar, vector and matrix type name.
var typeShorthands = func() []string {
	scalars := []string{
		"bool", "int", "uint", "dword", "half", "float", "double",
		"min10float", "min16float", "min12int", "min16int", "min16uint",
		"int16_t", "int32_t", "int64_t", "uint16_t", "uint32_t", "uint64_t",
		"float16_t", "float32_t", "float64_t",
	}
	out := append([]string{"int8_t4_packed", "uint8_t4_packed"}, scalars...)
	for _, base := range scalars {
		for i := 1; i <= 4; i++ {
			out = append(out, base+string(rune('0'+i)))
			for j := 1; j <= 4; j++ {
				out = append(out, base+string(rune('0'+i))+"x"+string(rune('0'+j)))
			}
		}
	}
	return out
}()

// generatedNames are identifiers the writer synthesizes around the entry
// point.
var generatedNames = []string{
	"main", "stage_input", "stage_output",
	inputStructName, outputStructName,
}

// reservedPrefixes are escaped in user names: "gl_" belongs to builtin
// statics and "SPIRV_Cross_" to synthesized declarations.
var reservedPrefixes = []string{"gl_", "SPIRV_Cross_", "spv"}

// keywordList returns every reserved word in sorted order.
func keywordList() []string {
	seen := make(map[string]struct{}, len(reservedWords)+len(typeShorthands))
	for _, list := range [][]string{reservedWords, typeShorthands} {
		for _, k := range list {
			seen[k] = struct{}{}
		}
	}
	for k := range caseInsensitiveKeywords {
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsReserved reports whether name cannot be used as an HLSL identifier.
func IsReserved(name string) bool {
	if _, ok := caseInsensitiveKeywords[strings.ToLower(name)]; ok {
		return true
	}
	for _, list := range [][]string{reservedWords, typeShorthands} {
		for _, k := range list {
			if k == name {
				return true
			}
		}
	}
	return false
}
