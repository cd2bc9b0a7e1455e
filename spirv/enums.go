package spirv

// Decoration represents a SPIR-V decoration.
type Decoration uint32

// Decorations tracked by the decoration table.
const (
	DecorationRelaxedPrecision     Decoration = 0
	DecorationSpecID               Decoration = 1
	DecorationBlock                Decoration = 2
	DecorationBufferBlock          Decoration = 3
	DecorationRowMajor             Decoration = 4
	DecorationColMajor             Decoration = 5
	DecorationArrayStride          Decoration = 6
	DecorationMatrixStride         Decoration = 7
	DecorationBuiltIn              Decoration = 11
	DecorationNoPerspective        Decoration = 13
	DecorationFlat                 Decoration = 14
	DecorationPatch                Decoration = 15
	DecorationCentroid             Decoration = 16
	DecorationSample               Decoration = 17
	DecorationInvariant            Decoration = 18
	DecorationRestrict             Decoration = 19
	DecorationVolatile             Decoration = 21
	DecorationCoherent             Decoration = 23
	DecorationNonWritable          Decoration = 24
	DecorationNonReadable          Decoration = 25
	DecorationLocation             Decoration = 30
	DecorationComponent            Decoration = 31
	DecorationIndex                Decoration = 32
	DecorationBinding              Decoration = 33
	DecorationDescriptorSet        Decoration = 34
	DecorationOffset               Decoration = 35
	DecorationInputAttachmentIndex Decoration = 43
	DecorationNonUniform           Decoration = 5300
)

// BuiltIn identifies a language-defined special value.
type BuiltIn uint32

// Builtins.
const (
	BuiltInPosition             BuiltIn = 0
	BuiltInPointSize            BuiltIn = 1
	BuiltInClipDistance         BuiltIn = 3
	BuiltInCullDistance         BuiltIn = 4
	BuiltInVertexID             BuiltIn = 5
	BuiltInInstanceID           BuiltIn = 6
	BuiltInPrimitiveID          BuiltIn = 7
	BuiltInInvocationID         BuiltIn = 8
	BuiltInLayer                BuiltIn = 9
	BuiltInViewportIndex        BuiltIn = 10
	BuiltInFragCoord            BuiltIn = 15
	BuiltInPointCoord           BuiltIn = 16
	BuiltInFrontFacing          BuiltIn = 17
	BuiltInSampleID             BuiltIn = 18
	BuiltInSamplePosition       BuiltIn = 19
	BuiltInSampleMask           BuiltIn = 20
	BuiltInFragDepth            BuiltIn = 22
	BuiltInHelperInvocation     BuiltIn = 23
	BuiltInNumWorkgroups        BuiltIn = 24
	BuiltInWorkgroupSize        BuiltIn = 25
	BuiltInWorkgroupID          BuiltIn = 26
	BuiltInLocalInvocationID    BuiltIn = 27
	BuiltInGlobalInvocationID   BuiltIn = 28
	BuiltInLocalInvocationIndex BuiltIn = 29
	BuiltInVertexIndex          BuiltIn = 42
	BuiltInInstanceIndex        BuiltIn = 43
	BuiltInBaseVertex           BuiltIn = 4424
	BuiltInBaseInstance         BuiltIn = 4425
	BuiltInDrawIndex            BuiltIn = 4426
	BuiltInViewIndex            BuiltIn = 4440
)

// StorageClass is the SPIR-V storage class of a pointer or variable.
type StorageClass uint32

// Storage classes.
const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassInput           StorageClass = 1
	StorageClassUniform         StorageClass = 2
	StorageClassOutput          StorageClass = 3
	StorageClassWorkgroup       StorageClass = 4
	StorageClassCrossWorkgroup  StorageClass = 5
	StorageClassPrivate         StorageClass = 6
	StorageClassFunction        StorageClass = 7
	StorageClassGeneric         StorageClass = 8
	StorageClassPushConstant    StorageClass = 9
	StorageClassAtomicCounter   StorageClass = 10
	StorageClassImage           StorageClass = 11
	StorageClassStorageBuffer   StorageClass = 12
)

// ExecutionModel is the pipeline stage of an entry point.
type ExecutionModel uint32

// Execution models.
const (
	ExecutionModelVertex                 ExecutionModel = 0
	ExecutionModelTessellationControl    ExecutionModel = 1
	ExecutionModelTessellationEvaluation ExecutionModel = 2
	ExecutionModelGeometry               ExecutionModel = 3
	ExecutionModelFragment               ExecutionModel = 4
	ExecutionModelGLCompute              ExecutionModel = 5
	ExecutionModelKernel                 ExecutionModel = 6
)

// ExecutionMode declares a per-entry-point execution property.
type ExecutionMode uint32

// Execution modes.
const (
	ExecutionModeInvocations        ExecutionMode = 0
	ExecutionModePixelCenterInteger ExecutionMode = 6
	ExecutionModeOriginUpperLeft    ExecutionMode = 7
	ExecutionModeOriginLowerLeft    ExecutionMode = 8
	ExecutionModeEarlyFragmentTests ExecutionMode = 9
	ExecutionModeDepthReplacing     ExecutionMode = 12
	ExecutionModeDepthGreater       ExecutionMode = 14
	ExecutionModeDepthLess          ExecutionMode = 15
	ExecutionModeDepthUnchanged     ExecutionMode = 16
	ExecutionModeLocalSize          ExecutionMode = 17
	ExecutionModeLocalSizeHint      ExecutionMode = 18
	ExecutionModeLocalSizeID        ExecutionMode = 38
)

// Dim is the dimensionality of an image type.
type Dim uint32

// Image dimensionalities.
const (
	Dim1D          Dim = 0
	Dim2D          Dim = 1
	Dim3D          Dim = 2
	DimCube        Dim = 3
	DimRect        Dim = 4
	DimBuffer      Dim = 5
	DimSubpassData Dim = 6
)

// ImageFormat is the texel format of a storage image.
type ImageFormat uint32

// Image formats.
const (
	ImageFormatUnknown    ImageFormat = 0
	ImageFormatRgba32f    ImageFormat = 1
	ImageFormatRgba16f    ImageFormat = 2
	ImageFormatR32f       ImageFormat = 3
	ImageFormatRgba8      ImageFormat = 4
	ImageFormatRgba8Snorm ImageFormat = 5
	ImageFormatRg32f      ImageFormat = 6
	ImageFormatRg16f      ImageFormat = 7
	ImageFormatR16f       ImageFormat = 9
	ImageFormatRgba32i    ImageFormat = 21
	ImageFormatRgba16i    ImageFormat = 22
	ImageFormatRgba8i     ImageFormat = 23
	ImageFormatR32i       ImageFormat = 24
	ImageFormatRgba32ui   ImageFormat = 30
	ImageFormatRgba16ui   ImageFormat = 31
	ImageFormatRgba8ui    ImageFormat = 32
	ImageFormatR32ui      ImageFormat = 33
)

// GLSLstd450 is an instruction number in the GLSL.std.450 extended set.
type GLSLstd450 uint32

// GLSL.std.450 instructions.
const (
	GLSLstd450Round         GLSLstd450 = 1
	GLSLstd450RoundEven     GLSLstd450 = 2
	GLSLstd450Trunc         GLSLstd450 = 3
	GLSLstd450FAbs          GLSLstd450 = 4
	GLSLstd450SAbs          GLSLstd450 = 5
	GLSLstd450FSign         GLSLstd450 = 6
	GLSLstd450SSign         GLSLstd450 = 7
	GLSLstd450Floor         GLSLstd450 = 8
	GLSLstd450Ceil          GLSLstd450 = 9
	GLSLstd450Fract         GLSLstd450 = 10
	GLSLstd450Radians       GLSLstd450 = 11
	GLSLstd450Degrees       GLSLstd450 = 12
	GLSLstd450Sin           GLSLstd450 = 13
	GLSLstd450Cos           GLSLstd450 = 14
	GLSLstd450Tan           GLSLstd450 = 15
	GLSLstd450Asin          GLSLstd450 = 16
	GLSLstd450Acos          GLSLstd450 = 17
	GLSLstd450Atan          GLSLstd450 = 18
	GLSLstd450Sinh          GLSLstd450 = 19
	GLSLstd450Cosh          GLSLstd450 = 20
	GLSLstd450Tanh          GLSLstd450 = 21
	GLSLstd450Atan2         GLSLstd450 = 25
	GLSLstd450Pow           GLSLstd450 = 26
	GLSLstd450Exp           GLSLstd450 = 27
	GLSLstd450Log           GLSLstd450 = 28
	GLSLstd450Exp2          GLSLstd450 = 29
	GLSLstd450Log2          GLSLstd450 = 30
	GLSLstd450Sqrt          GLSLstd450 = 31
	GLSLstd450InverseSqrt   GLSLstd450 = 32
	GLSLstd450Determinant   GLSLstd450 = 33
	GLSLstd450MatrixInverse GLSLstd450 = 34
	GLSLstd450FMin          GLSLstd450 = 37
	GLSLstd450UMin          GLSLstd450 = 38
	GLSLstd450SMin          GLSLstd450 = 39
	GLSLstd450FMax          GLSLstd450 = 40
	GLSLstd450UMax          GLSLstd450 = 41
	GLSLstd450SMax          GLSLstd450 = 42
	GLSLstd450FClamp        GLSLstd450 = 43
	GLSLstd450UClamp        GLSLstd450 = 44
	GLSLstd450SClamp        GLSLstd450 = 45
	GLSLstd450FMix          GLSLstd450 = 46
	GLSLstd450Step          GLSLstd450 = 48
	GLSLstd450SmoothStep    GLSLstd450 = 49
	GLSLstd450Fma           GLSLstd450 = 50
	GLSLstd450Ldexp         GLSLstd450 = 53
	GLSLstd450Length        GLSLstd450 = 66
	GLSLstd450Distance      GLSLstd450 = 67
	GLSLstd450Cross         GLSLstd450 = 68
	GLSLstd450Normalize     GLSLstd450 = 69
	GLSLstd450FaceForward   GLSLstd450 = 70
	GLSLstd450Reflect       GLSLstd450 = 71
	GLSLstd450Refract       GLSLstd450 = 72
	GLSLstd450FindILsb      GLSLstd450 = 73
	GLSLstd450FindSMsb      GLSLstd450 = 74
	GLSLstd450FindUMsb      GLSLstd450 = 75
	GLSLstd450NMin          GLSLstd450 = 79
	GLSLstd450NMax          GLSLstd450 = 80
	GLSLstd450NClamp        GLSLstd450 = 81
)
