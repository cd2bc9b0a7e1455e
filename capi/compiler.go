package capi

import (
	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/glsl"
	"github.com/gogpu/spvcross/hlsl"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/msl"
	"github.com/gogpu/spvcross/reflection"
	"github.com/gogpu/spvcross/spirv"
)

// Backend selects the output language of a compiler.
type Backend uint8

// Backends. BackendNone creates a compiler for reflection queries only.
const (
	BackendNone Backend = iota
	BackendGLSL
	BackendHLSL
	BackendMSL
	BackendJSON
)

// String returns the backend name.
func (b Backend) String() string {
	switch b {
	case BackendNone:
		return "none"
	case BackendGLSL:
		return "glsl"
	case BackendHLSL:
		return "hlsl"
	case BackendMSL:
		return "msl"
	case BackendJSON:
		return "json"
	}
	return "unknown"
}

// CaptureMode selects how a compiler takes the parsed IR.
type CaptureMode uint8

// Capture modes.
const (
	// CaptureCopy gives the compiler a private copy. The parsed IR can
	// build further compilers.
	CaptureCopy CaptureMode = iota
	// CaptureTakeOwnership moves the IR into the compiler. The parsed IR
	// cannot build another compiler.
	CaptureTakeOwnership
)

type parsedIR struct {
	module *ir.Module
	moved  bool
}

// compiler is the arena record of a Compiler handle. Exactly one of the
// backend fields is set, matching backend, except for BackendNone.
type compiler struct {
	backend Backend
	base    *cross.Compiler

	glsl *glsl.Compiler
	hlsl *hlsl.Compiler
	msl  *msl.Compiler
	json *reflection.Compiler
}

// ParseIR adopts an already built module. The module is validated for
// reference integrity; dangling IDs fail with ErrorInvalidSPIRV.
func (ctx *Context) ParseIR(module *ir.Module) (ParsedIR, Result) {
	var out ParsedIR
	res := ctx.call("ParseIR", func() error {
		if module == nil {
			return cross.NewError(cross.ErrInvalidArgument, "module is nil")
		}
		if err := ir.Validate(module); err != nil {
			return &cross.Error{Kind: cross.ErrInvalidInput, Message: "module failed validation", Err: err}
		}
		out = ParsedIR{ctx.arena.add(kindParsedIR, &parsedIR{module: module})}
		return nil
	})
	if res != Success {
		return ParsedIR{}, res
	}
	return out, res
}

// CreateCompiler builds a compiler for backend over parsed.
func (ctx *Context) CreateCompiler(backend Backend, parsed ParsedIR, mode CaptureMode) (Compiler, Result) {
	var out Compiler
	res := ctx.call("CreateCompiler", func() error {
		p, err := lookup[*parsedIR](ctx, parsed.handle, kindParsedIR)
		if err != nil {
			return err
		}
		if p.moved {
			return cross.NewError(cross.ErrInvalidArgument, "parsed IR was moved into another compiler")
		}
		var m *ir.Module
		switch mode {
		case CaptureCopy:
			m = p.module.Clone()
		case CaptureTakeOwnership:
			m = p.module
		default:
			return cross.Errorf(cross.ErrInvalidArgument, "invalid capture mode %d", mode)
		}
		c, err := ctx.newCompiler(backend, m)
		if err != nil {
			return err
		}
		if mode == CaptureTakeOwnership {
			p.moved = true
		}
		ctx.log.Debug("created compiler", zap.Stringer("backend", backend))
		out = Compiler{ctx.arena.add(kindCompiler, c)}
		return nil
	})
	if res != Success {
		return Compiler{}, res
	}
	return out, res
}

func (ctx *Context) newCompiler(backend Backend, m *ir.Module) (*compiler, error) {
	copts := cross.WithLogger(ctx.log)
	c := &compiler{backend: backend}
	var err error
	switch backend {
	case BackendNone:
		c.base, err = cross.New(m, copts)
	case BackendGLSL:
		c.glsl, err = glsl.New(m, glsl.DefaultOptions(), copts)
		if err == nil {
			c.base = c.glsl.Compiler
		}
	case BackendHLSL:
		c.hlsl, err = hlsl.New(m, hlsl.DefaultOptions(), copts)
		if err == nil {
			c.base = c.hlsl.Compiler
		}
	case BackendMSL:
		c.msl, err = msl.New(m, msl.DefaultOptions(), copts)
		if err == nil {
			c.base = c.msl.Compiler
		}
	case BackendJSON:
		c.json, err = reflection.New(m, reflection.DefaultOptions(), copts)
		if err == nil {
			c.base = c.json.Compiler
		}
	default:
		return nil, cross.Errorf(cross.ErrInvalidArgument, "invalid backend %d", backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (ctx *Context) compiler(h Compiler) (*compiler, error) {
	return lookup[*compiler](ctx, h.handle, kindCompiler)
}

// CompilerGetBackend returns the backend of c.
func (ctx *Context) CompilerGetBackend(h Compiler) (Backend, Result) {
	var out Backend
	res := ctx.call("CompilerGetBackend", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.backend
		return nil
	})
	return out, res
}

// Compile translates the module. The returned text is owned by the
// context.
func (ctx *Context) Compile(h Compiler) (string, Result) {
	var out string
	res := ctx.call("Compile", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		var src string
		switch c.backend {
		case BackendGLSL:
			src, err = c.glsl.Compile()
		case BackendHLSL:
			src, err = c.hlsl.Compile()
		case BackendMSL:
			src, err = c.msl.Compile()
		case BackendJSON:
			src, err = c.json.Compile()
		default:
			return cross.NewError(cross.ErrInvalidArgument, "compiler has no output backend")
		}
		if err != nil {
			return err
		}
		ctx.keep(src)
		out = src
		return nil
	})
	if res != Success {
		return "", res
	}
	return out, res
}

// CompilerGetEntryPoints lists the entry points of the module.
func (ctx *Context) CompilerGetEntryPoints(h Compiler) ([]cross.EntryPointInfo, Result) {
	var out []cross.EntryPointInfo
	res := ctx.call("CompilerGetEntryPoints", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.EntryPoints()
		ctx.keep(out)
		return nil
	})
	return out, res
}

// CompilerSetEntryPoint selects the entry point to compile.
func (ctx *Context) CompilerSetEntryPoint(h Compiler, name string, model spirv.ExecutionModel) Result {
	return ctx.call("CompilerSetEntryPoint", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		return c.base.SetEntryPoint(name, model)
	})
}

// CompilerRenameEntryPoint changes the emitted name of an entry point.
func (ctx *Context) CompilerRenameEntryPoint(h Compiler, oldName, newName string, model spirv.ExecutionModel) Result {
	return ctx.call("CompilerRenameEntryPoint", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		return c.base.RenameEntryPoint(oldName, newName, model)
	})
}

// CompilerGetCleansedEntryPointName returns the function name the backend
// emits for an entry point, such as main0 for MSL.
func (ctx *Context) CompilerGetCleansedEntryPointName(h Compiler, name string, model spirv.ExecutionModel) (string, Result) {
	var out string
	res := ctx.call("CompilerGetCleansedEntryPointName", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out, err = c.base.CleansedEntryPointName(name, model)
		return err
	})
	return out, res
}

// CompilerGetExecutionModel returns the stage of the selected entry point.
func (ctx *Context) CompilerGetExecutionModel(h Compiler) (spirv.ExecutionModel, Result) {
	var out spirv.ExecutionModel
	res := ctx.call("CompilerGetExecutionModel", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		if c.base.EntryPoint() == nil {
			return cross.NewError(cross.ErrInvalidArgument, "module has no entry point")
		}
		out = c.base.ExecutionModel()
		return nil
	})
	return out, res
}

// CompilerGetWorkgroupSize returns the local size of the selected compute
// entry point.
func (ctx *Context) CompilerGetWorkgroupSize(h Compiler) ([3]uint32, Result) {
	var out [3]uint32
	res := ctx.call("CompilerGetWorkgroupSize", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.WorkgroupSize()
		return nil
	})
	return out, res
}

// CompilerGetDecoration returns the literal of a decoration, or 0.
func (ctx *Context) CompilerGetDecoration(h Compiler, id ir.ID, dec spirv.Decoration) (uint32, Result) {
	var out uint32
	res := ctx.call("CompilerGetDecoration", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.Decoration(id, dec)
		return nil
	})
	return out, res
}

// CompilerHasDecoration reports whether id carries dec.
func (ctx *Context) CompilerHasDecoration(h Compiler, id ir.ID, dec spirv.Decoration) (bool, Result) {
	var out bool
	res := ctx.call("CompilerHasDecoration", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.HasDecoration(id, dec)
		return nil
	})
	return out, res
}

// CompilerSetDecoration sets a decoration on id.
func (ctx *Context) CompilerSetDecoration(h Compiler, id ir.ID, dec spirv.Decoration, value uint32) Result {
	return ctx.call("CompilerSetDecoration", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		c.base.SetDecoration(id, dec, value)
		return nil
	})
}

// CompilerUnsetDecoration removes a decoration from id.
func (ctx *Context) CompilerUnsetDecoration(h Compiler, id ir.ID, dec spirv.Decoration) Result {
	return ctx.call("CompilerUnsetDecoration", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		c.base.UnsetDecoration(id, dec)
		return nil
	})
}

// CompilerGetMemberDecoration returns the literal of a member decoration.
func (ctx *Context) CompilerGetMemberDecoration(h Compiler, typeID ir.ID, member int, dec spirv.Decoration) (uint32, Result) {
	var out uint32
	res := ctx.call("CompilerGetMemberDecoration", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.MemberDecoration(typeID, member, dec)
		return nil
	})
	return out, res
}

// CompilerGetName returns the debug name of id.
func (ctx *Context) CompilerGetName(h Compiler, id ir.ID) (string, Result) {
	var out string
	res := ctx.call("CompilerGetName", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.Name(id)
		return nil
	})
	return out, res
}

// CompilerSetName renames id.
func (ctx *Context) CompilerSetName(h Compiler, id ir.ID, name string) Result {
	return ctx.call("CompilerSetName", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		c.base.SetName(id, name)
		return nil
	})
}

// CompilerGetMemberName returns the debug name of a struct member.
func (ctx *Context) CompilerGetMemberName(h Compiler, typeID ir.ID, member int) (string, Result) {
	var out string
	res := ctx.call("CompilerGetMemberName", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.MemberName(typeID, member)
		return nil
	})
	return out, res
}

// CompilerGetSpecializationConstants lists the specialization constants
// that carry a SpecId.
func (ctx *Context) CompilerGetSpecializationConstants(h Compiler) ([]cross.SpecializationConstant, Result) {
	var out []cross.SpecializationConstant
	res := ctx.call("CompilerGetSpecializationConstants", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.SpecializationConstants()
		ctx.keep(out)
		return nil
	})
	return out, res
}

// CompilerGetWorkgroupSizeSpecializationConstants returns the constants
// that size the workgroup. Dimensions without one have a zero ID.
func (ctx *Context) CompilerGetWorkgroupSizeSpecializationConstants(h Compiler) (x, y, z cross.SpecializationConstant, res Result) {
	res = ctx.call("CompilerGetWorkgroupSizeSpecializationConstants", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		x, y, z = c.base.WorkgroupSizeSpecializationConstants()
		return nil
	})
	return x, y, z, res
}

// CompilerBuildCombinedImageSamplers pairs separate images and samplers
// used together into combined variables.
func (ctx *Context) CompilerBuildCombinedImageSamplers(h Compiler) Result {
	return ctx.call("CompilerBuildCombinedImageSamplers", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		return c.base.BuildCombinedImageSamplers()
	})
}

// CompilerGetCombinedImageSamplers returns the pairs built so far.
func (ctx *Context) CompilerGetCombinedImageSamplers(h Compiler) ([]cross.CombinedImageSampler, Result) {
	var out []cross.CombinedImageSampler
	res := ctx.call("CompilerGetCombinedImageSamplers", func() error {
		c, err := ctx.compiler(h)
		if err != nil {
			return err
		}
		out = c.base.CombinedImageSamplers()
		ctx.keep(out)
		return nil
	})
	return out, res
}

// CompilerMSLAddResourceBinding overrides the Metal indices of a resource.
func (ctx *Context) CompilerMSLAddResourceBinding(h Compiler, b msl.ResourceBinding) Result {
	return ctx.call("CompilerMSLAddResourceBinding", func() error {
		c, err := ctx.backendCompiler(h, BackendMSL)
		if err != nil {
			return err
		}
		c.msl.AddResourceBinding(b)
		return nil
	})
}

// CompilerMSLIsResourceUsed reports whether the last compile consumed the
// binding added for (stage, set, binding).
func (ctx *Context) CompilerMSLIsResourceUsed(h Compiler, stage spirv.ExecutionModel, set, binding uint32) (bool, Result) {
	var out bool
	res := ctx.call("CompilerMSLIsResourceUsed", func() error {
		c, err := ctx.backendCompiler(h, BackendMSL)
		if err != nil {
			return err
		}
		out = c.msl.IsResourceUsed(stage, set, binding)
		return nil
	})
	return out, res
}

// CompilerHLSLSetResourceBinding maps (set, binding) to a register.
func (ctx *Context) CompilerHLSLSetResourceBinding(h Compiler, set, binding uint32, target hlsl.BindTarget) Result {
	return ctx.call("CompilerHLSLSetResourceBinding", func() error {
		c, err := ctx.backendCompiler(h, BackendHLSL)
		if err != nil {
			return err
		}
		c.hlsl.SetResourceBinding(set, binding, target)
		return nil
	})
}

func (ctx *Context) backendCompiler(h Compiler, want Backend) (*compiler, error) {
	c, err := ctx.compiler(h)
	if err != nil {
		return nil, err
	}
	if c.backend != want {
		return nil, cross.Errorf(cross.ErrInvalidArgument, "compiler backend is %s, not %s", c.backend, want)
	}
	return c, nil
}
