package capi

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/glsl"
	"github.com/gogpu/spvcross/hlsl"
	"github.com/gogpu/spvcross/msl"
	"github.com/gogpu/spvcross/reflection"
)

// Option names a compiler option. The high bits tell which backends
// understand it.
type Option uint32

const (
	optionCommonBit Option = 0x1000000
	optionGLSLBit   Option = 0x2000000
	optionHLSLBit   Option = 0x4000000
	optionMSLBit    Option = 0x8000000
	optionJSONBit   Option = 0x10000000
)

// Compiler options. Common options apply to the GLSL and HLSL backends.
const (
	OptionUnknown Option = 0

	OptionFlipVertexY    = 1 | optionCommonBit
	OptionFixupClipSpace = 2 | optionCommonBit

	// OptionGLSLVersion is the version number, such as 450 or 310.
	OptionGLSLVersion               = 3 | optionGLSLBit
	OptionGLSLES                    = 4 | optionGLSLBit
	OptionGLSLVulkanSemantics       = 5 | optionGLSLBit
	OptionGLSLSeparateShaderObjects = 6 | optionGLSLBit
	OptionGLSLForceHighPrecision    = 7 | optionGLSLBit
	OptionGLSLTextureBindingBase    = 8 | optionGLSLBit
	OptionGLSLUniformBindingBase    = 9 | optionGLSLBit
	OptionGLSLStorageBindingBase    = 10 | optionGLSLBit

	// OptionHLSLShaderModel is the shader model times ten, such as 51.
	OptionHLSLShaderModel = 11 | optionHLSLBit

	// OptionMSLVersion is encoded as major*10000 + minor*100 + patch.
	OptionMSLVersion                 = 12 | optionMSLBit
	OptionMSLPlatform                = 13 | optionMSLBit
	OptionMSLEnablePointSize         = 14 | optionMSLBit
	OptionMSLEnableDecorationBinding = 15 | optionMSLBit
	OptionMSLPadFragmentOutputs      = 16 | optionMSLBit
	OptionMSLBufferSizeBufferIndex   = 17 | optionMSLBit
	OptionMSLInterfaceSort           = 18 | optionMSLBit

	OptionJSONActiveOnly = 19 | optionJSONBit
)

// optionSpec describes how an option is named, typed and stored.
type optionSpec struct {
	key     string
	boolean bool
	// names maps the string spellings an option document may use.
	names map[string]uint32
	apply func(s *optionSet, v uint32) error
}

var optionSpecs = map[Option]optionSpec{
	OptionFlipVertexY: {key: "common.flip_vertex_y", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.FlipVertexY, s.hlsl.FlipVertexY = v != 0, v != 0
		return nil
	}},
	OptionFixupClipSpace: {key: "common.fixup_clip_space", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.FixupClipSpace, s.hlsl.FixupClipSpace = v != 0, v != 0
		return nil
	}},
	OptionGLSLVersion: {key: "glsl.version", apply: func(s *optionSet, v uint32) error {
		if !glslVersions[v] {
			return fmt.Errorf("unknown GLSL version %d", v)
		}
		s.glsl.LangVersion.Major, s.glsl.LangVersion.Minor = uint8(v/100), uint8(v%100) //nolint:gosec // G115: checked against glslVersions
		return nil
	}},
	OptionGLSLES: {key: "glsl.es", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.LangVersion.ES = v != 0
		return nil
	}},
	OptionGLSLVulkanSemantics: {key: "glsl.vulkan_semantics", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.VulkanSemantics = v != 0
		return nil
	}},
	OptionGLSLSeparateShaderObjects: {key: "glsl.separate_shader_objects", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.SeparateShaderObjects = v != 0
		return nil
	}},
	OptionGLSLForceHighPrecision: {key: "glsl.force_high_precision", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.glsl.ForceHighPrecision = v != 0
		return nil
	}},
	OptionGLSLTextureBindingBase: {key: "glsl.texture_binding_base", apply: func(s *optionSet, v uint32) error {
		s.glsl.TextureBindingBase = v
		return nil
	}},
	OptionGLSLUniformBindingBase: {key: "glsl.uniform_binding_base", apply: func(s *optionSet, v uint32) error {
		s.glsl.UniformBindingBase = v
		return nil
	}},
	OptionGLSLStorageBindingBase: {key: "glsl.storage_binding_base", apply: func(s *optionSet, v uint32) error {
		s.glsl.StorageBindingBase = v
		return nil
	}},
	OptionHLSLShaderModel: {key: "hlsl.shader_model", apply: func(s *optionSet, v uint32) error {
		sm, ok := shaderModels[v]
		if !ok {
			return fmt.Errorf("unknown shader model %d", v)
		}
		s.hlsl.ShaderModel = sm
		return nil
	}},
	OptionMSLVersion: {key: "msl.version", apply: func(s *optionSet, v uint32) error {
		ver := msl.Version{Major: uint8(v / 10000), Minor: uint8(v / 100 % 100)} //nolint:gosec // G115: checked against mslVersions
		if v/10000 > 255 || !mslVersions[ver] {
			return fmt.Errorf("unknown MSL version %d", v)
		}
		s.msl.LangVersion = ver
		return nil
	}},
	OptionMSLPlatform: {key: "msl.platform", names: map[string]uint32{"macos": 0, "ios": 1}, apply: func(s *optionSet, v uint32) error {
		switch msl.Platform(v) { //nolint:gosec // G115: range checked below
		case msl.PlatformMacOS, msl.PlatformIOS:
		default:
			return fmt.Errorf("unknown platform %d", v)
		}
		s.msl.Platform = msl.Platform(v) //nolint:gosec // G115: checked above
		return nil
	}},
	OptionMSLEnablePointSize: {key: "msl.enable_point_size", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.msl.EnablePointSize = v != 0
		return nil
	}},
	OptionMSLEnableDecorationBinding: {key: "msl.enable_decoration_binding", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.msl.EnableDecorationBinding = v != 0
		return nil
	}},
	OptionMSLPadFragmentOutputs: {key: "msl.pad_fragment_outputs", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.msl.PadFragmentOutputs = v != 0
		return nil
	}},
	OptionMSLBufferSizeBufferIndex: {key: "msl.buffer_size_buffer_index", apply: func(s *optionSet, v uint32) error {
		s.msl.BufferSizeBufferIndex = v
		return nil
	}},
	OptionMSLInterfaceSort: {
		key:   "msl.interface_sort",
		names: map[string]uint32{"location": 0, "offset": 1, "name": 2},
		apply: func(s *optionSet, v uint32) error {
			if v > uint32(msl.SortByName) {
				return fmt.Errorf("unknown interface sort %d", v)
			}
			s.msl.InterfaceSort = msl.SortKey(v)
			return nil
		},
	},
	OptionJSONActiveOnly: {key: "json.active_only", boolean: true, apply: func(s *optionSet, v uint32) error {
		s.json.ActiveOnly = v != 0
		return nil
	}},
}

var optionsByKey = func() map[string]Option {
	m := make(map[string]Option, len(optionSpecs))
	for opt, spec := range optionSpecs {
		m[spec.key] = opt
	}
	return m
}()

var glslVersions = map[uint32]bool{
	300: true, 310: true, 320: true, 330: true,
	400: true, 410: true, 420: true, 430: true, 440: true, 450: true, 460: true,
}

var shaderModels = map[uint32]hlsl.ShaderModel{
	50: hlsl.ShaderModel5_0, 51: hlsl.ShaderModel5_1,
	60: hlsl.ShaderModel6_0, 61: hlsl.ShaderModel6_1, 62: hlsl.ShaderModel6_2, 63: hlsl.ShaderModel6_3,
	64: hlsl.ShaderModel6_4, 65: hlsl.ShaderModel6_5, 66: hlsl.ShaderModel6_6, 67: hlsl.ShaderModel6_7,
}

var mslVersions = map[msl.Version]bool{
	msl.Version1_2: true, msl.Version2_0: true, msl.Version2_1: true, msl.Version2_3: true, msl.Version3_0: true,
}

// String returns the option document key of o.
func (o Option) String() string {
	if spec, ok := optionSpecs[o]; ok {
		return spec.key
	}
	return fmt.Sprintf("option(%#x)", uint32(o))
}

// supportMask returns the option bits a backend understands.
func supportMask(b Backend) Option {
	switch b {
	case BackendGLSL:
		return optionCommonBit | optionGLSLBit
	case BackendHLSL:
		return optionCommonBit | optionHLSLBit
	case BackendMSL:
		return optionMSLBit
	case BackendJSON:
		return optionJSONBit
	}
	return 0
}

// optionSet is the snapshot behind a CompilerOptions handle. Only the
// field of backend is installed.
type optionSet struct {
	backend Backend
	glsl    glsl.Options
	hlsl    hlsl.Options
	msl     msl.Options
	json    reflection.Options
}

// set validates one option and stores it in the snapshot.
func (s *optionSet) set(opt Option, v uint32) error {
	spec, ok := optionSpecs[opt]
	if !ok {
		return cross.Errorf(cross.ErrInvalidArgument, "unknown option %#x", uint32(opt))
	}
	if opt&supportMask(s.backend) == 0 {
		return cross.Errorf(cross.ErrInvalidArgument, "option %s is not supported by the %s backend", spec.key, s.backend)
	}
	if spec.boolean && v > 1 {
		return cross.Errorf(cross.ErrInvalidArgument, "option %s is boolean, got %d", spec.key, v)
	}
	if err := spec.apply(s, v); err != nil {
		return &cross.Error{Kind: cross.ErrInvalidArgument, Message: "option " + spec.key, Err: err}
	}
	return nil
}

// validate checks the combinations single options cannot see.
func (s *optionSet) validate() error {
	if s.backend == BackendGLSL {
		v := s.glsl.LangVersion
		n := int(v.Major)*100 + int(v.Minor)
		es := n == 300 || n == 310 || n == 320
		if v.ES != es {
			return cross.Errorf(cross.ErrInvalidArgument, "GLSL version %d is not valid with es=%t", n, v.ES)
		}
	}
	return nil
}

// CreateCompilerOptions snapshots the current options of a compiler.
func (ctx *Context) CreateCompilerOptions(h Compiler) (CompilerOptions, Result) {
	var out CompilerOptions
	res := ctx.call("CreateCompilerOptions", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		s := &optionSet{backend: c.backend}
		switch c.backend {
		case BackendGLSL:
			s.glsl = c.glsl.Options()
		case BackendHLSL:
			s.hlsl = c.hlsl.Options()
		case BackendMSL:
			s.msl = c.msl.Options()
		case BackendJSON:
			s.json = c.json.Options()
		}
		out = CompilerOptions{ctx.arena.add(kindOptions, s)}
		return nil
	})
	if res != Success {
		return CompilerOptions{}, res
	}
	return out, res
}

// CompilerOptionsSetBool sets a boolean option in the snapshot.
func (ctx *Context) CompilerOptionsSetBool(h CompilerOptions, opt Option, value bool) Result {
	var v uint32
	if value {
		v = 1
	}
	return ctx.setOption("CompilerOptionsSetBool", h, opt, v)
}

// CompilerOptionsSetUint sets a numeric option in the snapshot. Boolean
// options accept 0 and 1.
func (ctx *Context) CompilerOptionsSetUint(h CompilerOptions, opt Option, value uint32) Result {
	return ctx.setOption("CompilerOptionsSetUint", h, opt, value)
}

func (ctx *Context) setOption(op string, h CompilerOptions, opt Option, v uint32) Result {
	return ctx.call(op, func() error {
		s, err := lookup[*optionSet](ctx, h.handle, kindOptions)
		if err != nil {
			return err
		}
		return s.set(opt, v)
	})
}

// CompilerInstallCompilerOptions applies a snapshot to a compiler. Nothing
// is applied if the snapshot is inconsistent.
func (ctx *Context) CompilerInstallCompilerOptions(h Compiler, o CompilerOptions) Result {
	return ctx.call("CompilerInstallCompilerOptions", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		s, err := lookup[*optionSet](ctx, o.handle, kindOptions)
		if err != nil {
			return err
		}
		if s.backend != c.backend {
			return cross.Errorf(cross.ErrInvalidArgument, "options are for the %s backend, compiler is %s", s.backend, c.backend)
		}
		if err := s.validate(); err != nil {
			return err
		}
		switch c.backend {
		case BackendGLSL:
			c.glsl.SetOptions(s.glsl)
		case BackendHLSL:
			c.hlsl.SetOptions(s.hlsl)
		case BackendMSL:
			c.msl.SetOptions(s.msl)
		case BackendJSON:
			c.json.SetOptions(s.json)
		}
		ctx.log.Debug("installed compiler options", zap.Stringer("backend", c.backend))
		return nil
	})
}
