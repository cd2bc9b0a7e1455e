package spirv

// MagicNumber is the first word of every SPIR-V binary.
const MagicNumber = 0x07230203

// ExtInstSetGLSL450 is the import name of the GLSL.std.450 instruction set.
const ExtInstSetGLSL450 = "GLSL.std.450"

// OpCode represents a SPIR-V opcode.
type OpCode uint16

// Opcodes understood by the compiler.
const (
	OpNop                        OpCode = 0
	OpUndef                      OpCode = 1
	OpSource                     OpCode = 3
	OpName                       OpCode = 5
	OpMemberName                 OpCode = 6
	OpExtInstImport              OpCode = 11
	OpExtInst                    OpCode = 12
	OpMemoryModel                OpCode = 14
	OpEntryPoint                 OpCode = 15
	OpExecutionMode              OpCode = 16
	OpCapability                 OpCode = 17
	OpTypeVoid                   OpCode = 19
	OpTypeBool                   OpCode = 20
	OpTypeInt                    OpCode = 21
	OpTypeFloat                  OpCode = 22
	OpTypeVector                 OpCode = 23
	OpTypeMatrix                 OpCode = 24
	OpTypeImage                  OpCode = 25
	OpTypeSampler                OpCode = 26
	OpTypeSampledImage           OpCode = 27
	OpTypeArray                  OpCode = 28
	OpTypeRuntimeArray           OpCode = 29
	OpTypeStruct                 OpCode = 30
	OpTypePointer                OpCode = 32
	OpTypeFunction               OpCode = 33
	OpConstantTrue               OpCode = 41
	OpConstantFalse              OpCode = 42
	OpConstant                   OpCode = 43
	OpConstantComposite          OpCode = 44
	OpConstantNull               OpCode = 46
	OpSpecConstantTrue           OpCode = 48
	OpSpecConstantFalse          OpCode = 49
	OpSpecConstant               OpCode = 50
	OpSpecConstantComposite      OpCode = 51
	OpFunction                   OpCode = 54
	OpFunctionParameter          OpCode = 55
	OpFunctionEnd                OpCode = 56
	OpFunctionCall               OpCode = 57
	OpVariable                   OpCode = 59
	OpLoad                       OpCode = 61
	OpStore                      OpCode = 62
	OpCopyMemory                 OpCode = 63
	OpAccessChain                OpCode = 65
	OpInBoundsAccessChain        OpCode = 66
	OpArrayLength                OpCode = 68
	OpDecorate                   OpCode = 71
	OpMemberDecorate             OpCode = 72
	OpVectorExtractDynamic       OpCode = 77
	OpVectorInsertDynamic        OpCode = 78
	OpVectorShuffle              OpCode = 79
	OpCompositeConstruct         OpCode = 80
	OpCompositeExtract           OpCode = 81
	OpCompositeInsert            OpCode = 82
	OpCopyObject                 OpCode = 83
	OpTranspose                  OpCode = 84
	OpSampledImage               OpCode = 86
	OpImageSampleImplicitLod     OpCode = 87
	OpImageSampleExplicitLod     OpCode = 88
	OpImageSampleDrefImplicitLod OpCode = 89
	OpImageSampleDrefExplicitLod OpCode = 90
	OpImageFetch                 OpCode = 95
	OpImageGather                OpCode = 96
	OpImageRead                  OpCode = 98
	OpImageWrite                 OpCode = 99
	OpImage                      OpCode = 100
	OpImageQuerySizeLod          OpCode = 103
	OpImageQuerySize             OpCode = 104
	OpImageQueryLevels           OpCode = 106
	OpConvertFToU                OpCode = 109
	OpConvertFToS                OpCode = 110
	OpConvertSToF                OpCode = 111
	OpConvertUToF                OpCode = 112
	OpUConvert                   OpCode = 113
	OpSConvert                   OpCode = 114
	OpFConvert                   OpCode = 115
	OpBitcast                    OpCode = 124
	OpSNegate                    OpCode = 126
	OpFNegate                    OpCode = 127
	OpIAdd                       OpCode = 128
	OpFAdd                       OpCode = 129
	OpISub                       OpCode = 130
	OpFSub                       OpCode = 131
	OpIMul                       OpCode = 132
	OpFMul                       OpCode = 133
	OpUDiv                       OpCode = 134
	OpSDiv                       OpCode = 135
	OpFDiv                       OpCode = 136
	OpUMod                       OpCode = 137
	OpSRem                       OpCode = 138
	OpSMod                       OpCode = 139
	OpFRem                       OpCode = 140
	OpFMod                       OpCode = 141
	OpVectorTimesScalar          OpCode = 142
	OpMatrixTimesScalar          OpCode = 143
	OpVectorTimesMatrix          OpCode = 144
	OpMatrixTimesVector          OpCode = 145
	OpMatrixTimesMatrix          OpCode = 146
	OpOuterProduct               OpCode = 147
	OpDot                        OpCode = 148
	OpAny                        OpCode = 154
	OpAll                        OpCode = 155
	OpIsNan                      OpCode = 156
	OpIsInf                      OpCode = 157
	OpLogicalEqual               OpCode = 164
	OpLogicalNotEqual            OpCode = 165
	OpLogicalOr                  OpCode = 166
	OpLogicalAnd                 OpCode = 167
	OpLogicalNot                 OpCode = 168
	OpSelect                     OpCode = 169
	OpIEqual                     OpCode = 170
	OpINotEqual                  OpCode = 171
	OpUGreaterThan               OpCode = 172
	OpSGreaterThan               OpCode = 173
	OpUGreaterThanEqual          OpCode = 174
	OpSGreaterThanEqual          OpCode = 175
	OpULessThan                  OpCode = 176
	OpSLessThan                  OpCode = 177
	OpULessThanEqual             OpCode = 178
	OpSLessThanEqual             OpCode = 179
	OpFOrdEqual                  OpCode = 180
	OpFUnordEqual                OpCode = 181
	OpFOrdNotEqual               OpCode = 182
	OpFUnordNotEqual             OpCode = 183
	OpFOrdLessThan               OpCode = 184
	OpFUnordLessThan             OpCode = 185
	OpFOrdGreaterThan            OpCode = 186
	OpFUnordGreaterThan          OpCode = 187
	OpFOrdLessThanEqual          OpCode = 188
	OpFUnordLessThanEqual        OpCode = 189
	OpFOrdGreaterThanEqual       OpCode = 190
	OpFUnordGreaterThanEqual     OpCode = 191
	OpShiftRightLogical          OpCode = 194
	OpShiftRightArithmetic       OpCode = 195
	OpShiftLeftLogical           OpCode = 196
	OpBitwiseOr                  OpCode = 197
	OpBitwiseXor                 OpCode = 198
	OpBitwiseAnd                 OpCode = 199
	OpNot                        OpCode = 200
	OpBitReverse                 OpCode = 204
	OpBitCount                   OpCode = 205
	OpDPdx                       OpCode = 207
	OpDPdy                       OpCode = 208
	OpFwidth                     OpCode = 209
	OpControlBarrier             OpCode = 224
	OpMemoryBarrier              OpCode = 225
	OpAtomicLoad                 OpCode = 227
	OpAtomicStore                OpCode = 228
	OpAtomicExchange             OpCode = 229
	OpAtomicCompareExchange      OpCode = 230
	OpAtomicCompareExchangeWeak  OpCode = 231
	OpAtomicIIncrement           OpCode = 232
	OpAtomicIDecrement           OpCode = 233
	OpAtomicIAdd                 OpCode = 234
	OpAtomicISub                 OpCode = 235
	OpAtomicSMin                 OpCode = 236
	OpAtomicUMin                 OpCode = 237
	OpAtomicSMax                 OpCode = 238
	OpAtomicUMax                 OpCode = 239
	OpAtomicAnd                  OpCode = 240
	OpAtomicOr                   OpCode = 241
	OpAtomicXor                  OpCode = 242
	OpPhi                        OpCode = 245
	OpLoopMerge                  OpCode = 246
	OpSelectionMerge             OpCode = 247
	OpLabel                      OpCode = 248
	OpBranch                     OpCode = 249
	OpBranchConditional          OpCode = 250
	OpSwitch                     OpCode = 251
	OpKill                       OpCode = 252
	OpReturn                     OpCode = 253
	OpReturnValue                OpCode = 254
	OpUnreachable                OpCode = 255
)

// IsAtomic reports whether the opcode is one of the OpAtomic* family.
func (op OpCode) IsAtomic() bool {
	return op >= OpAtomicLoad && op <= OpAtomicXor
}

// IsImageSample reports whether the opcode samples through a sampled image.
func (op OpCode) IsImageSample() bool {
	switch op {
	case OpImageSampleImplicitLod, OpImageSampleExplicitLod,
		OpImageSampleDrefImplicitLod, OpImageSampleDrefExplicitLod,
		OpImageGather:
		return true
	}
	return false
}

// ImageOperands is the optional operand mask of image instructions.
type ImageOperands uint32

// Image operand mask bits.
const (
	ImageOperandsBias        ImageOperands = 0x1
	ImageOperandsLod         ImageOperands = 0x2
	ImageOperandsGrad        ImageOperands = 0x4
	ImageOperandsConstOffset ImageOperands = 0x8
	ImageOperandsOffset      ImageOperands = 0x10
	ImageOperandsSample      ImageOperands = 0x40
)
