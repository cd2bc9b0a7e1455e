package msl

// mslKeywords contains C++14 keywords, Metal address spaces and attribute
// names, and standard library identifiers that cannot be redeclared in a
// translation unit built with "using namespace metal".
var mslKeywords = []string{
	// C++ keywords
	"alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor",
	"bool", "break", "case", "catch", "char", "char16_t", "char32_t", "class",
	"compl", "const", "const_cast", "constexpr", "continue", "decltype",
	"default", "delete", "do", "double", "dynamic_cast", "else", "enum",
	"explicit", "export", "extern", "false", "float", "for", "friend", "goto",
	"if", "inline", "int", "long", "mutable", "namespace", "new", "noexcept",
	"not", "not_eq", "nullptr", "operator", "or", "or_eq", "private",
	"protected", "public", "register", "reinterpret_cast", "return", "short",
	"signed", "sizeof", "static", "static_assert", "static_cast", "struct",
	"switch", "template", "this", "thread_local", "throw", "true", "try",
	"typedef", "typeid", "typename", "union", "unsigned", "using", "virtual",
	"void", "volatile", "wchar_t", "while", "xor", "xor_eq",

	// Metal address spaces and function qualifiers
	"device", "constant", "thread", "threadgroup", "threadgroup_imageblock",
	"ray_data", "object_data", "vertex", "fragment", "kernel", "stage_in",
	"visible", "patch",

	// Metal scalar and vector types
	"half", "uchar", "ushort", "uint", "ulong", "size_t", "ptrdiff_t",
	"bool2", "bool3", "bool4", "char2", "char3", "char4",
	"uchar2", "uchar3", "uchar4", "short2", "short3", "short4",
	"ushort2", "ushort3", "ushort4", "int2", "int3", "int4",
	"uint2", "uint3", "uint4", "long2", "long3", "long4",
	"ulong2", "ulong3", "ulong4", "half2", "half3", "half4",
	"float2", "float3", "float4",
	"half2x2", "half2x3", "half2x4", "half3x2", "half3x3", "half3x4",
	"half4x2", "half4x3", "half4x4",
	"float2x2", "float2x3", "float2x4", "float3x2", "float3x3", "float3x4",
	"float4x2", "float4x3", "float4x4",
	"packed_float2", "packed_float3", "packed_float4",
	"packed_int2", "packed_int3", "packed_int4",
	"packed_uint2", "packed_uint3", "packed_uint4",
	"packed_half2", "packed_half3", "packed_half4",
	"atomic_int", "atomic_uint", "atomic_bool",

	// Textures and samplers
	"texture1d", "texture1d_array", "texture2d", "texture2d_array",
	"texture2d_ms", "texture2d_ms_array", "texture3d", "texturecube",
	"texturecube_array", "texture_buffer", "depth2d", "depth2d_array",
	"depth2d_ms", "depth2d_ms_array", "depthcube", "depthcube_array",
	"sampler", "access", "array", "vec", "matrix", "metal",

	// Standard library functions commonly shadowed by user names
	"abs", "acos", "all", "any", "asin", "atan", "atan2", "ceil", "clamp",
	"cos", "cross", "degrees", "determinant", "distance", "dot", "exp",
	"exp2", "floor", "fma", "fmax", "fmin", "fmod", "fract", "length", "log",
	"log2", "max", "min", "mix", "normalize", "pow", "radians", "reflect",
	"refract", "rint", "round", "rsqrt", "select", "sign", "sin", "smoothstep",
	"sqrt", "step", "tan", "transpose", "trunc", "popcount", "reverse_bits",
	"as_type", "discard_fragment", "threadgroup_barrier", "mem_flags",
	"memory_order_relaxed", "main",
}

// reservedPrefixes are escaped in user names so they never collide with
// helpers and builtin identifiers.
var reservedPrefixes = []string{"spv", "gl_"}
