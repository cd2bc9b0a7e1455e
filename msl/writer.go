package msl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// writer renders one compilation pass. It owns the working clone of the
// module and every record synthesized on it.
type writer struct {
	c    *Compiler
	cc   *cross.Compiler
	m    *ir.Module
	opts Options
	log  *zap.Logger

	names *emit.Namer
	out   *emit.Buffer
	g     *emit.Generator

	ep        *ir.EntryPoint
	model     spirv.ExecutionModel
	entryName string

	// again requests another pass; used collects the helpers this pass
	// calls.
	again bool
	used  map[string]bool

	layout *layouter

	// Stage interface.
	inBlock   *ioBlock
	outBlock  *ioBlock
	io        map[ir.ID]*ioVar
	flat      map[string]*flatNode
	builtins  []entryParam
	prologue  []string
	epilogue  []string
	flatCount int

	// Resources.
	resources      []*resource
	resByVar       map[ir.ID]*resource
	boundOverrides map[bindingKey]bool

	samplers      map[ir.ID]string
	samplerByExpr map[string]string

	needsSizes bool
	sizeUsers  map[ir.ID]bool
	threads    map[ir.ID]*threading
}

func newWriter(c *Compiler, cc *cross.Compiler) *writer {
	return &writer{
		c:              c,
		cc:             cc,
		m:              cc.Module(),
		opts:           c.opts,
		log:            cc.Logger(),
		out:            &emit.Buffer{},
		used:           make(map[string]bool),
		io:             make(map[ir.ID]*ioVar),
		flat:           make(map[string]*flatNode),
		resByVar:       make(map[ir.ID]*resource),
		boundOverrides: make(map[bindingKey]bool),
		samplers:       make(map[ir.ID]string),
		samplerByExpr:  make(map[string]string),
		sizeUsers:      make(map[ir.ID]bool),
		threads:        make(map[ir.ID]*threading),
	}
}

// write renders the whole translation unit.
func (w *writer) write() (string, error) {
	if err := w.prepare(); err != nil {
		return "", err
	}

	w.writeHeader()
	w.writeHelpers()
	w.writeScalarSpecConstants()
	w.writeStructs()
	w.writeCompositeConstants()
	w.writeInterfaceStruct(w.inBlock)
	w.writeInterfaceStruct(w.outBlock)

	for _, fn := range w.g.FunctionOrder() {
		f := w.m.Function(fn)
		if err := w.g.EmitFunction(f, fn == w.ep.Function); err != nil {
			return "", err
		}
	}
	return w.out.String(), nil
}

// prepare runs the legalization steps that must complete before any text
// is written: naming, buffer layout, the stage interface and resource
// indices.
func (w *writer) prepare() error {
	w.ep = w.cc.EntryPoint()
	w.model = w.ep.Model
	switch w.model {
	case spirv.ExecutionModelVertex, spirv.ExecutionModelFragment, spirv.ExecutionModelGLCompute:
	default:
		return cross.Unsupported("%s shaders are not supported by the Metal backend", w.model)
	}
	name, err := w.cc.CleansedEntryPointName(w.ep.Name, w.model)
	if err != nil {
		return err
	}
	w.entryName = name

	w.names = emit.NewNamer(mslKeywords, emit.WithReservedPrefixes(reservedPrefixes...))
	w.names.Reserve("in", "out", w.entryName, w.entryName+"_in", w.entryName+"_out", "spvBufferSizeConstants")
	w.names.Set(w.ep.Function, w.entryName)
	w.g = emit.NewGenerator(w.cc, &dialect{w: w}, w.names, w.out, emit.Style{})

	w.layout = newLayouter(w.cc)
	if err := w.layout.run(); err != nil {
		return err
	}
	w.layout.apply()

	if err := w.buildInterface(); err != nil {
		return err
	}
	w.needsSizes = w.usesSizes(w.ep.Function, make(map[ir.ID]bool))
	if err := w.allocateResources(); err != nil {
		return err
	}
	for _, id := range w.m.Declarations {
		k := w.m.Constant(id)
		if k == nil || !w.g.NamedConstant(id) {
			continue
		}
		if b, ok := w.cc.BuiltinOf(id); ok && b == spirv.BuiltInWorkgroupSize {
			w.names.Set(id, "gl_WorkGroupSize")
		}
	}
	return nil
}

func (w *writer) writeHeader() {
	w.out.Line("#include <metal_stdlib>")
	w.out.Line("#include <simd/simd.h>")
	w.out.Line("")
	w.out.Line("using namespace metal;")
	w.out.Line("")
}

func (w *writer) writeHelpers() {
	for _, name := range w.sortedHelpers() {
		w.out.Write(helperSources[name])
		w.out.Line("")
	}
}

// isScalarSpec reports specialization constants declared as Metal
// function constants.
func (w *writer) isScalarSpec(id ir.ID) bool {
	k := w.m.Constant(id)
	if k == nil || !k.Specialization || len(k.Subconstants) > 0 {
		return false
	}
	return w.m.Type(k.Type).IsScalar()
}

func (w *writer) writeScalarSpecConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		if !w.isScalarSpec(id) {
			continue
		}
		k := w.m.Constant(id)
		typ := w.g.TypeName(k.Type)
		name := w.g.ValueName(id)
		value := w.g.ConstantExpr(id)
		if w.m.HasDecoration(id, spirv.DecorationSpecID) {
			tmp := w.names.Call(name + "_tmp")
			w.out.Line("constant %s %s [[function_constant(%d)]];", typ, tmp, w.m.DecorationValue(id, spirv.DecorationSpecID))
			w.out.Line("constant %s %s = is_function_constant_defined(%s) ? %s : %s;", typ, name, tmp, tmp, value)
		} else {
			w.out.Line("constant %s %s = %s;", typ, name, value)
		}
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

func (w *writer) writeCompositeConstants() {
	wrote := false
	for _, id := range w.m.Declarations {
		k := w.m.Constant(id)
		if k == nil || w.isScalarSpec(id) || !w.g.NamedConstant(id) {
			continue
		}
		name := w.g.ValueName(id)
		attr := ""
		if name == "gl_WorkGroupSize" {
			attr = " [[maybe_unused]]"
		}
		w.out.Line("constant %s%s%s = %s;", w.g.TypeName(k.Type)+" "+name, w.arraySuffix(k.Type), attr, w.g.ConstantExpr(id))
		wrote = true
	}
	if wrote {
		w.out.Line("")
	}
}

// arraySuffix spells array dimensions. Runtime arrays inside buffers are
// declared with one element and indexed past it.
func (w *writer) arraySuffix(typeID ir.ID) string {
	t := w.m.Type(typeID)
	if t == nil || !t.IsArray() {
		return ""
	}
	var sb strings.Builder
	for i := len(t.Array) - 1; i >= 0; i-- {
		switch {
		case !t.ArrayLiteral[i]:
			sb.WriteString("[" + w.g.Expr(ir.ID(t.Array[i])) + "]")
		case t.Array[i] == 0:
			sb.WriteString("[1]")
		default:
			fmt.Fprintf(&sb, "[%d]", t.Array[i])
		}
	}
	return sb.String()
}

// writeStructs declares every struct type except builtin blocks, which
// are flattened into the stage interface.
func (w *writer) writeStructs() {
	for _, id := range w.m.Declarations {
		t := w.m.Type(id)
		if t == nil || t.Base != ir.BaseStruct || t.IsArray() || t.Pointer || t.Self != id {
			continue
		}
		if w.cc.IsBuiltinBlock(id) || w.isInterfaceStruct(id) {
			continue
		}
		w.writeStruct(id)
	}
}

func (w *writer) isInterfaceStruct(id ir.ID) bool {
	return (w.inBlock != nil && w.inBlock.typeID == id) || (w.outBlock != nil && w.outBlock.typeID == id)
}

func (w *writer) writeStruct(id ir.ID) {
	st := w.m.Type(id)
	w.out.Line("struct %s", w.g.TypeName(id))
	w.out.Begin()
	for i, mt := range st.MemberTypes {
		d := memberDecoration(w.m, id, i)
		if d != nil && d.HasExtended(ir.ExtPaddingTarget) {
			w.out.Line("char _m%d_pad[%d];", i, d.GetExtended(ir.ExtPaddingTarget))
		}
		w.out.Line("%s %s%s;", w.memberTypeName(id, i), w.g.MemberName(id, i), w.arraySuffix(mt))
	}
	if meta, ok := w.m.Meta[id]; ok && meta.Decoration.HasExtended(ir.ExtPaddingTarget) {
		w.out.Line("char _m%d_pad[%d];", len(st.MemberTypes), meta.Decoration.GetExtended(ir.ExtPaddingTarget))
	}
	w.out.End(";")
	w.out.Line("")
}

// memberTypeName spells the physical type of member i.
func (w *writer) memberTypeName(structID ir.ID, i int) string {
	mt := w.m.Type(structID).MemberTypes[i]
	d := memberDecoration(w.m, structID, i)
	switch {
	case d == nil:
	case d.HasExtended(ir.ExtPhysicalTypeID):
		return w.g.TypeName(ir.ID(d.GetExtended(ir.ExtPhysicalTypeID)))
	case d.HasExtended(ir.ExtPhysicalTypePacked):
		return packedTypeName(w.m.Type(mt))
	}
	return w.g.TypeName(mt)
}

func (w *writer) writeInterfaceStruct(b *ioBlock) {
	if b == nil {
		return
	}
	w.out.Line("struct %s", b.typeName)
	w.out.Begin()
	for _, mem := range b.members {
		attr := ""
		if mem.attr != "" {
			attr = " [[" + mem.attr + "]]"
		}
		w.out.Line("%s %s%s%s;", mem.typ, mem.name, attr, w.arraySuffix(mem.typeID))
	}
	w.out.End(";")
	w.out.Line("")
}

// usesSizes reports whether fn reads a runtime array length, directly or
// through a call.
func (w *writer) usesSizes(fn ir.ID, visiting map[ir.ID]bool) bool {
	if used, ok := w.sizeUsers[fn]; ok {
		return used
	}
	if visiting[fn] {
		return false
	}
	visiting[fn] = true
	f := w.m.Function(fn)
	used := false
	for _, bid := range f.Blocks {
		blk := w.m.Block(bid)
		for i := range blk.Ops {
			switch blk.Ops[i].Op {
			case spirv.OpArrayLength:
				used = true
			case spirv.OpFunctionCall:
				if w.usesSizes(blk.Ops[i].Arg(0), visiting) {
					used = true
				}
			}
		}
	}
	w.sizeUsers[fn] = used
	return used
}
