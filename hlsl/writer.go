// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Names of the synthesized stage structs.
const (
	inputStructName  = "SPIRV_Cross_Input"
	outputStructName = "SPIRV_Cross_Output"
)

// tokenMark delimits placeholder expressions of flattened variables.
// MemberAccess replaces them; any left in the output is an error.
const tokenMark = "\x00"

// writer renders one compilation on a clone of the module.
type writer struct {
	c    *Compiler
	cc   *cross.Compiler
	m    *ir.Module
	opts Options
	log  *zap.Logger

	names *emit.Namer
	out   *emit.Buffer
	g     *emit.Generator

	ep    *ir.EntryPoint
	model spirv.ExecutionModel

	// active holds the module-scope variables the entry point uses.
	active map[ir.ID]struct{}
	// hiddenStructs are block types declared inline as resources.
	hiddenStructs map[ir.ID]bool

	resources []*resource
	byVar     map[ir.ID]*resource
	// flat resolves member accesses on placeholder expressions of
	// flattened variables.
	flat map[string]func(index int) string
	// flatIO holds the placeholder of each flattened stage variable.
	flatIO map[ir.ID]string
	// opaque maps loads of images and samplers to the variable they read.
	opaque map[ir.ID]ir.ID
	// samplerOf holds the sampler expression paired with a combined
	// image-sampler value.
	samplerOf map[ir.ID]string
	// comparison marks sampler variables used for depth comparisons.
	comparison map[ir.ID]bool

	inputs, outputs []*stageMember
	statics         []string
	prologue        []string
	hasPosition     bool

	helpers   map[string]bool
	features  FeatureFlags
	required  ShaderModel
	registers map[string]string
	// err is the first error raised where none can be returned.
	err error
}

func newWriter(c *Compiler, cc *cross.Compiler) *writer {
	return &writer{
		c:             c,
		cc:            cc,
		m:             cc.Module(),
		opts:          c.opts,
		log:           cc.Logger(),
		out:           &emit.Buffer{},
		hiddenStructs: make(map[ir.ID]bool),
		byVar:         make(map[ir.ID]*resource),
		flat:          make(map[string]func(int) string),
		flatIO:        make(map[ir.ID]string),
		opaque:        make(map[ir.ID]ir.ID),
		samplerOf:     make(map[ir.ID]string),
		comparison:    make(map[ir.ID]bool),
		helpers:       make(map[string]bool),
		registers:     make(map[string]string),
	}
}

// fail records the first error raised while spelling types or names.
func (w *writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// need raises the required shader model, failing when the target is
// older.
func (w *writer) need(sm ShaderModel, what string) {
	if sm > w.required {
		w.required = sm
	}
	if w.opts.ShaderModel < sm {
		w.fail(cross.Unsupported("%s requires %s, targeting %s", what, sm, w.opts.ShaderModel))
	}
}

// write renders the translation unit. Helpers are discovered while the
// functions are emitted, so the header is prepended last.
func (w *writer) write() (string, error) {
	if err := w.prepare(); err != nil {
		return "", err
	}
	w.writeSpecConstants()
	w.writeStructs()
	w.writeConstants()
	if err := w.writeResources(); err != nil {
		return "", err
	}
	w.writeStageStatics()
	w.writeGlobals()
	w.writeStageStructs()

	for _, fn := range w.g.FunctionOrder() {
		if err := w.g.EmitFunction(w.m.Function(fn), fn == w.ep.Function); err != nil {
			return "", err
		}
	}
	w.writeEntryWrapper()
	if w.err != nil {
		return "", w.err
	}

	text := w.out.String()
	if strings.Contains(text, tokenMark) {
		return "", cross.Unsupported("a flattened buffer or stage variable is used as a whole value")
	}
	head := &emit.Buffer{}
	w.writeHelpers(head)
	return head.String() + text, nil
}

// stageFunctionNames name the translated entry function, which the
// generated main wrapper calls.
var stageFunctionNames = map[spirv.ExecutionModel]string{
	spirv.ExecutionModelVertex:    "vert_main",
	spirv.ExecutionModelFragment:  "frag_main",
	spirv.ExecutionModelGLCompute: "comp_main",
}

// prepare checks the target can express the entry point, assigns the
// names every later step relies on and lays out resources and the stage
// interface.
func (w *writer) prepare() error {
	w.ep = w.cc.EntryPoint()
	w.model = w.ep.Model
	fnName, ok := stageFunctionNames[w.model]
	if !ok {
		return cross.Unsupported("%s shaders are not supported by the HLSL backend", w.model)
	}

	w.names = emit.NewNamer(keywordList(), emit.WithReservedPrefixes(reservedPrefixes...), emit.CaseInsensitive())
	w.names.Reserve(generatedNames...)
	w.names.Set(w.ep.Function, fnName)
	w.g = emit.NewGenerator(w.cc, &dialect{w: w}, w.names, w.out, emit.Style{
		FloatSuffix:  "f",
		DoubleSuffix: "L",
		SwizzleSplat: true,
	})

	w.active = w.cc.ActiveInterfaceVariables()
	for _, id := range w.m.Declarations {
		if w.m.Constant(id) == nil {
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok && b == spirv.BuiltInWorkgroupSize {
			w.names.Set(id, "gl_WorkGroupSize")
		}
	}
	if err := w.scanSamplers(); err != nil {
		return err
	}
	if err := w.buildResources(); err != nil {
		return err
	}
	return w.buildStageInterface()
}

// variables returns the enabled module-scope variables the entry point
// uses, in declaration order.
func (w *writer) variables() []ir.ID {
	var out []ir.ID
	for _, id := range w.m.Declarations {
		v := w.m.Variable(id)
		if v == nil || v.Hidden || !w.cc.IsEnabled(id) {
			continue
		}
		if _, ok := w.active[id]; !ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

// instructions calls fn for every instruction of the functions the entry
// point reaches.
func (w *writer) instructions(fn func(in *ir.Instruction) error) error {
	for _, f := range w.cc.ReachableFunctions() {
		for _, bid := range w.m.Function(f).Blocks {
			blk := w.m.Block(bid)
			for i := range blk.Ops {
				if err := fn(&blk.Ops[i]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// scanSamplers finds the sampler variables used for depth comparisons,
// which HLSL declares as SamplerComparisonState.
func (w *writer) scanSamplers() error {
	defs := make(map[ir.ID]*ir.Instruction)
	_ = w.instructions(func(in *ir.Instruction) error {
		if in.Result != 0 {
			defs[in.Result] = in
		}
		return nil
	})
	// source follows loads and copies back to a module-scope variable.
	source := func(id ir.ID) ir.ID {
		for {
			if w.m.Variable(id) != nil {
				return id
			}
			in := defs[id]
			if in == nil {
				return 0
			}
			switch in.Op {
			case spirv.OpLoad, spirv.OpCopyObject, spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
				id = in.Arg(0)
			default:
				return 0
			}
		}
	}
	plain := make(map[ir.ID]bool)
	err := w.instructions(func(in *ir.Instruction) error {
		if !in.Op.IsImageSample() && in.Op != spirv.OpImageGather {
			return nil
		}
		dref := in.Op == spirv.OpImageSampleDrefImplicitLod || in.Op == spirv.OpImageSampleDrefExplicitLod
		var smp ir.ID
		if def := defs[in.Arg(0)]; def != nil && def.Op == spirv.OpSampledImage {
			smp = source(def.Arg(1))
		} else {
			smp = source(in.Arg(0))
		}
		if smp == 0 {
			if dref {
				return cross.Unsupported("depth comparison through a sampler that is not a module-scope resource")
			}
			return nil
		}
		if dref {
			w.comparison[smp] = true
		} else {
			plain[smp] = true
		}
		if w.comparison[smp] && plain[smp] {
			return cross.Unsupported("sampler %q is used both with and without depth comparison", w.m.Name(smp))
		}
		return nil
	})
	return err
}

func (w *writer) writeHelpers(out *emit.Buffer) {
	if !w.helpers["spvMod"] {
		return
	}
	for _, t := range []string{"float", "float2", "float3", "float4"} {
		out.Line("%s spvMod(%s x, %s y)", t, t, t)
		out.Begin()
		out.Line("return x - y * floor(x / y);")
		out.End("")
		out.Line("")
	}
}

// isScalarSpec reports specialization constants that become overridable
// declarations.
func (w *writer) isScalarSpec(id ir.ID) bool {
	k := w.m.Constant(id)
	return k != nil && k.Specialization && len(k.Subconstants) == 0 && w.m.Type(k.Type).IsScalar()
}

// specMacro names the preprocessor macro overriding a specialization
// constant.
func specMacro(specID uint32) string {
	return fmt.Sprintf("SPIRV_CROSS_CONSTANT_ID_%d", specID)
}

func (w *writer) writeSpecConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		if !w.isScalarSpec(id) {
			continue
		}
		k := w.m.Constant(id)
		typ := w.g.TypeName(k.Type)
		name := w.g.ValueName(id)
		value := w.g.ConstantExpr(id)
		if !w.m.HasDecoration(id, spirv.DecorationSpecID) {
			w.out.Line("static const %s %s = %s;", typ, name, value)
			wrote = true
			continue
		}
		macro := specMacro(w.m.DecorationValue(id, spirv.DecorationSpecID))
		w.out.Line("#ifndef %s", macro)
		w.out.Line("#define %s %s", macro, value)
		w.out.Line("#endif")
		w.out.Line("static const %s %s = %s;", typ, name, macro)
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// matrixLayout returns the HLSL majorness qualifier of a buffer member.
// Column-major SPIR-V matrices are row-major in HLSL because the matrix
// is declared transposed.
func (w *writer) matrixLayout(structID ir.ID, i int) string {
	mt := w.m.Type(w.m.Type(structID).MemberTypes[i])
	if mt.Columns <= 1 {
		return ""
	}
	switch {
	case w.m.HasMemberDecoration(structID, i, spirv.DecorationRowMajor):
		return "column_major "
	case w.m.HasMemberDecoration(structID, i, spirv.DecorationColMajor),
		w.m.HasMemberDecoration(structID, i, spirv.DecorationMatrixStride):
		return "row_major "
	}
	return ""
}

// writeStructs declares struct types that are not declared inline by a
// resource.
func (w *writer) writeStructs() {
	for _, id := range w.m.Declarations {
		t := w.m.Type(id)
		if t == nil || t.Base != ir.BaseStruct || t.IsArray() || t.Pointer || t.Self != id {
			continue
		}
		if w.hiddenStructs[id] || w.cc.IsBuiltinBlock(id) {
			continue
		}
		w.out.Line("struct %s", w.g.TypeName(id))
		w.out.Begin()
		for i, mt := range t.MemberTypes {
			w.out.Line("%s%s;", w.matrixLayout(id, i), w.g.Declare(mt, w.g.MemberName(id, i)))
		}
		w.out.End(";")
		w.out.Line("")
	}
}

// writeConstants declares named composite constants.
func (w *writer) writeConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		k := w.m.Constant(id)
		if k == nil || w.isScalarSpec(id) || !w.g.NamedConstant(id) {
			continue
		}
		w.out.Line("static const %s = %s;", w.g.Declare(k.Type, w.g.ValueName(id)), w.g.ConstantExpr(id))
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// writeGlobals declares private and workgroup variables.
func (w *writer) writeGlobals() {
	wrote := false
	for _, id := range w.variables() {
		v := w.m.Variable(id)
		pointee := w.cc.VariableType(id)
		switch v.Storage {
		case spirv.StorageClassPrivate:
			decl := "static " + w.g.Declare(pointee, w.g.ValueName(id))
			if v.Initializer != 0 {
				decl += " = " + w.g.Expr(v.Initializer)
			}
			w.out.Line("%s;", decl)
		case spirv.StorageClassWorkgroup:
			w.out.Line("groupshared %s;", w.g.Declare(pointee, w.g.ValueName(id)))
		default:
			continue
		}
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// sortedRegisters returns the register clauses in name order, for logs.
func (w *writer) sortedRegisters() []string {
	out := make([]string, 0, len(w.registers))
	for name, reg := range w.registers {
		out = append(out, name+": "+reg)
	}
	sort.Strings(out)
	return out
}
