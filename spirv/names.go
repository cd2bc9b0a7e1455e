package spirv

import "strconv"

var builtInNames = map[BuiltIn]string{
	BuiltInPosition:             "Position",
	BuiltInPointSize:            "PointSize",
	BuiltInClipDistance:         "ClipDistance",
	BuiltInCullDistance:         "CullDistance",
	BuiltInVertexID:             "VertexId",
	BuiltInInstanceID:           "InstanceId",
	BuiltInPrimitiveID:          "PrimitiveId",
	BuiltInInvocationID:         "InvocationId",
	BuiltInLayer:                "Layer",
	BuiltInViewportIndex:        "ViewportIndex",
	BuiltInFragCoord:            "FragCoord",
	BuiltInPointCoord:           "PointCoord",
	BuiltInFrontFacing:          "FrontFacing",
	BuiltInSampleID:             "SampleId",
	BuiltInSamplePosition:       "SamplePosition",
	BuiltInSampleMask:           "SampleMask",
	BuiltInFragDepth:            "FragDepth",
	BuiltInHelperInvocation:     "HelperInvocation",
	BuiltInNumWorkgroups:        "NumWorkgroups",
	BuiltInWorkgroupSize:        "WorkgroupSize",
	BuiltInWorkgroupID:          "WorkgroupId",
	BuiltInLocalInvocationID:    "LocalInvocationId",
	BuiltInGlobalInvocationID:   "GlobalInvocationId",
	BuiltInLocalInvocationIndex: "LocalInvocationIndex",
	BuiltInVertexIndex:          "VertexIndex",
	BuiltInInstanceIndex:        "InstanceIndex",
	BuiltInBaseVertex:           "BaseVertex",
	BuiltInBaseInstance:         "BaseInstance",
	BuiltInDrawIndex:            "DrawIndex",
	BuiltInViewIndex:            "ViewIndex",
}

var executionModelNames = map[ExecutionModel]string{
	ExecutionModelVertex:                 "Vertex",
	ExecutionModelTessellationControl:    "TessellationControl",
	ExecutionModelTessellationEvaluation: "TessellationEvaluation",
	ExecutionModelGeometry:               "Geometry",
	ExecutionModelFragment:               "Fragment",
	ExecutionModelGLCompute:              "GLCompute",
	ExecutionModelKernel:                 "Kernel",
}

var storageClassNames = map[StorageClass]string{
	StorageClassUniformConstant: "UniformConstant",
	StorageClassInput:           "Input",
	StorageClassUniform:         "Uniform",
	StorageClassOutput:          "Output",
	StorageClassWorkgroup:       "Workgroup",
	StorageClassCrossWorkgroup:  "CrossWorkgroup",
	StorageClassPrivate:         "Private",
	StorageClassFunction:        "Function",
	StorageClassGeneric:         "Generic",
	StorageClassPushConstant:    "PushConstant",
	StorageClassAtomicCounter:   "AtomicCounter",
	StorageClassImage:           "Image",
	StorageClassStorageBuffer:   "StorageBuffer",
}

var decorationNames = map[Decoration]string{
	DecorationRelaxedPrecision:     "RelaxedPrecision",
	DecorationSpecID:               "SpecId",
	DecorationBlock:                "Block",
	DecorationBufferBlock:          "BufferBlock",
	DecorationRowMajor:             "RowMajor",
	DecorationColMajor:             "ColMajor",
	DecorationArrayStride:          "ArrayStride",
	DecorationMatrixStride:         "MatrixStride",
	DecorationBuiltIn:              "BuiltIn",
	DecorationNoPerspective:        "NoPerspective",
	DecorationFlat:                 "Flat",
	DecorationPatch:                "Patch",
	DecorationCentroid:             "Centroid",
	DecorationSample:               "Sample",
	DecorationInvariant:            "Invariant",
	DecorationRestrict:             "Restrict",
	DecorationVolatile:             "Volatile",
	DecorationCoherent:             "Coherent",
	DecorationNonWritable:          "NonWritable",
	DecorationNonReadable:          "NonReadable",
	DecorationLocation:             "Location",
	DecorationComponent:            "Component",
	DecorationIndex:                "Index",
	DecorationBinding:              "Binding",
	DecorationDescriptorSet:        "DescriptorSet",
	DecorationOffset:               "Offset",
	DecorationInputAttachmentIndex: "InputAttachmentIndex",
	DecorationNonUniform:           "NonUniform",
}

var opNames = map[OpCode]string{
	OpUndef:                 "OpUndef",
	OpExtInst:               "OpExtInst",
	OpFunctionCall:          "OpFunctionCall",
	OpVariable:              "OpVariable",
	OpLoad:                  "OpLoad",
	OpStore:                 "OpStore",
	OpCopyMemory:            "OpCopyMemory",
	OpAccessChain:           "OpAccessChain",
	OpInBoundsAccessChain:   "OpInBoundsAccessChain",
	OpArrayLength:           "OpArrayLength",
	OpVectorShuffle:         "OpVectorShuffle",
	OpCompositeConstruct:    "OpCompositeConstruct",
	OpCompositeExtract:      "OpCompositeExtract",
	OpCompositeInsert:       "OpCompositeInsert",
	OpSampledImage:          "OpSampledImage",
	OpImageRead:             "OpImageRead",
	OpImageWrite:            "OpImageWrite",
	OpBitcast:               "OpBitcast",
	OpControlBarrier:        "OpControlBarrier",
	OpMemoryBarrier:         "OpMemoryBarrier",
	OpAtomicCompareExchange: "OpAtomicCompareExchange",
	OpPhi:                   "OpPhi",
	OpLoopMerge:             "OpLoopMerge",
	OpSelectionMerge:        "OpSelectionMerge",
	OpBranch:                "OpBranch",
	OpBranchConditional:     "OpBranchConditional",
	OpSwitch:                "OpSwitch",
	OpKill:                  "OpKill",
	OpReturn:                "OpReturn",
	OpReturnValue:           "OpReturnValue",
	OpUnreachable:           "OpUnreachable",
}

var (
	builtInByName        = invert(builtInNames)
	executionModelByName = invert(executionModelNames)
	storageClassByName   = invert(storageClassNames)
	decorationByName     = invert(decorationNames)
)

func invert[K comparable](m map[K]string) map[string]K {
	out := make(map[string]K, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

func nameOr[K comparable](m map[K]string, k K, prefix string, raw uint32) string {
	if s, ok := m[k]; ok {
		return s
	}
	return prefix + strconv.FormatUint(uint64(raw), 10)
}

// String returns the registry name of the builtin.
func (b BuiltIn) String() string { return nameOr(builtInNames, b, "BuiltIn", uint32(b)) }

// String returns the registry name of the execution model.
func (m ExecutionModel) String() string {
	return nameOr(executionModelNames, m, "ExecutionModel", uint32(m))
}

// String returns the registry name of the storage class.
func (s StorageClass) String() string {
	return nameOr(storageClassNames, s, "StorageClass", uint32(s))
}

// String returns the registry name of the decoration.
func (d Decoration) String() string { return nameOr(decorationNames, d, "Decoration", uint32(d)) }

// String returns the registry name of the opcode, or "Op<n>" for opcodes
// without a table entry.
func (op OpCode) String() string { return nameOr(opNames, op, "Op", uint32(op)) }

// ParseBuiltIn looks up a builtin by registry name.
func ParseBuiltIn(name string) (BuiltIn, bool) {
	b, ok := builtInByName[name]
	return b, ok
}

// ParseExecutionModel looks up an execution model by registry name.
func ParseExecutionModel(name string) (ExecutionModel, bool) {
	m, ok := executionModelByName[name]
	return m, ok
}

// ParseStorageClass looks up a storage class by registry name.
func ParseStorageClass(name string) (StorageClass, bool) {
	s, ok := storageClassByName[name]
	return s, ok
}

// ParseDecoration looks up a decoration by registry name.
func ParseDecoration(name string) (Decoration, bool) {
	d, ok := decorationByName[name]
	return d, ok
}
