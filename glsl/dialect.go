// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"fmt"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

const swizzle = "xyzw"

// vectorComparisons maps infix comparison operators to the functions GLSL
// requires for vector operands.
var vectorComparisons = map[string]string{
	"<":  "lessThan",
	"<=": "lessThanEqual",
	">":  "greaterThan",
	">=": "greaterThanEqual",
	"==": "equal",
	"!=": "notEqual",
}

// dialect spells function bodies in GLSL.
type dialect struct {
	emit.Base
	w *writer
}

func (d *dialect) TypeName(g *emit.Generator, t *ir.Type) string {
	switch t.Base {
	case ir.BaseVoid:
		return "void"
	case ir.BaseStruct:
		return g.Names.Name(t.Self, g.M.Name(t.Self))
	case ir.BaseImage, ir.BaseSampledImage, ir.BaseSampler:
		return imageToGLSL(g.M, t, d.w.vulkan())
	}
	return numericToGLSL(t)
}

func (d *dialect) FunctionName(name string) string {
	if name == "atan2" {
		return "atan"
	}
	return name
}

func (d *dialect) Bitcast(g *emit.Generator, dst, src *ir.Type, expr string) string {
	switch {
	case src.Base == ir.BaseFloat && dst.Base == ir.BaseInt:
		return "floatBitsToInt(" + expr + ")"
	case src.Base == ir.BaseFloat && dst.Base == ir.BaseUInt:
		return "floatBitsToUint(" + expr + ")"
	case src.Base == ir.BaseInt && dst.Base == ir.BaseFloat:
		return "intBitsToFloat(" + expr + ")"
	case src.Base == ir.BaseUInt && dst.Base == ir.BaseFloat:
		return "uintBitsToFloat(" + expr + ")"
	}
	return d.Base.Bitcast(g, dst, src, expr)
}

func (d *dialect) Construct(g *emit.Generator, typeID ir.ID, parts []string) (string, bool) {
	if g.M.Type(typeID).IsArray() {
		return g.TypeName(typeID) + g.ArraySuffix(typeID) + "(" + strings.Join(parts, ", ") + ")", false
	}
	return d.Base.Construct(g, typeID, parts)
}

// componentwise spells fn applied to every component of vector operands
// and gathers the results into a vector of typ.
func componentwise(typ string, n uint32, fn func(c string) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fn(swizzle[i : i+1])
	}
	return typ + "(" + strings.Join(parts, ", ") + ")"
}

func (d *dialect) Select(g *emit.Generator, resultType ir.ID, cond, a, b string) string {
	t := g.M.Type(resultType)
	if !t.IsVector() {
		return d.Base.Select(g, resultType, cond, a, b)
	}
	v := d.w.opts.LangVersion
	if t.Base == ir.BaseFloat || (v.ES && !v.versionLessThan(310)) || (!v.ES && !v.versionLessThan(450)) {
		return "mix(" + b + ", " + a + ", " + cond + ")"
	}
	return componentwise(g.TypeName(resultType), t.VecSize, func(c string) string {
		return cond + "." + c + " ? " + a + "." + c + " : " + b + "." + c
	})
}

func (d *dialect) Compare(g *emit.Generator, op string, operandType ir.ID, a, b string) string {
	t := g.M.Type(operandType)
	if t == nil || !t.IsVector() {
		return d.Base.Compare(g, op, operandType, a, b)
	}
	if fn, ok := vectorComparisons[op]; ok {
		return fn + "(" + a + ", " + b + ")"
	}
	return componentwise(fmt.Sprintf("bvec%d", t.VecSize), t.VecSize, func(c string) string {
		return a + "." + c + " " + op + " " + b + "." + c
	})
}

func (d *dialect) LogicalNot(g *emit.Generator, operandType ir.ID, expr string) string {
	if t := g.M.Type(operandType); t != nil && t.IsVector() {
		return "not(" + expr + ")"
	}
	return d.Base.LogicalNot(g, operandType, expr)
}

func (d *dialect) VariableExpr(g *emit.Generator, id ir.ID) (string, bool) {
	b, ok := d.w.cc.BuiltinOf(id)
	if !ok {
		return "", false
	}
	info, ok := builtinName(b, g.M.Variable(id).Storage, d.w.vulkan())
	if !ok {
		return "", false
	}
	return info.name, true
}

func (d *dialect) MemberAccess(g *emit.Generator, base string, structID ir.ID, index int, chain *emit.Chain) string {
	st := g.M.Type(structID).Self
	if d.w.cc.IsBuiltinBlock(st) && g.M.HasMemberDecoration(st, index, spirv.DecorationBuiltIn) {
		storage := spirv.StorageClassOutput
		if chain != nil {
			if v := g.M.Variable(chain.Root); v != nil {
				storage = v.Storage
			}
		}
		b := spirv.BuiltIn(g.M.MemberDecorationValue(st, index, spirv.DecorationBuiltIn))
		if info, ok := builtinName(b, storage, d.w.vulkan()); ok {
			return info.name
		}
	}
	return d.Base.MemberAccess(g, base, structID, index, chain)
}

// builtinFor returns the builtin a pointer addresses directly, either a
// builtin variable or an element of one, or a builtin block member.
func (d *dialect) builtinFor(g *emit.Generator, ptr ir.ID) (builtinInfo, bool) {
	root := g.RootVariable(ptr)
	v := g.M.Variable(root)
	if v == nil {
		return builtinInfo{}, false
	}
	chain := g.Chain(ptr)
	if b, ok := d.w.cc.BuiltinOf(root); ok {
		if chain == nil || chain.Member < 0 {
			return builtinName(b, v.Storage, d.w.vulkan())
		}
		return builtinInfo{}, false
	}
	if chain == nil || chain.Member < 0 || chain.After != 0 {
		return builtinInfo{}, false
	}
	if !g.M.HasMemberDecoration(chain.Struct, chain.Member, spirv.DecorationBuiltIn) {
		return builtinInfo{}, false
	}
	b := spirv.BuiltIn(g.M.MemberDecorationValue(chain.Struct, chain.Member, spirv.DecorationBuiltIn))
	return builtinName(b, v.Storage, d.w.vulkan())
}

func (d *dialect) LoadExpr(g *emit.Generator, ptr ir.ID, expr string) string {
	info, ok := d.builtinFor(g, ptr)
	if !ok || !info.signed {
		return expr
	}
	pointee := g.M.PointeeType(ptr)
	if g.M.Type(pointee).Base != ir.BaseUInt {
		return expr
	}
	return g.TypeName(pointee) + "(" + expr + ")"
}

func (d *dialect) Store(g *emit.Generator, ptr ir.ID, lhs, rhs string) error {
	if info, ok := d.builtinFor(g, ptr); ok && info.signed {
		t := g.M.Type(g.M.PointeeType(ptr))
		if t.Base == ir.BaseUInt && !t.IsArray() {
			rhs = d.TypeName(g, emit.SameShape(t, ir.BaseInt)) + "(" + rhs + ")"
		}
	}
	return d.Base.Store(g, ptr, lhs, rhs)
}

func (d *dialect) Lower(g *emit.Generator, in *ir.Instruction) (bool, error) {
	w := d.w
	switch in.Op {
	case spirv.OpLoad, spirv.OpCopyObject:
		if t := g.M.Type(in.ResultType); t == nil || !t.IsOpaque() {
			return false, nil
		}
		src := in.Arg(0)
		g.SetExpression(in.Result, g.Expr(src))
		switch {
		case in.Op == spirv.OpCopyObject:
			if v, ok := w.opaque[src]; ok {
				w.opaque[in.Result] = v
			}
		case g.M.Variable(g.RootVariable(src)) != nil:
			w.opaque[in.Result] = g.RootVariable(src)
		}
		return true, nil
	case spirv.OpSampledImage:
		return true, w.lowerSampledImage(g, in)
	case spirv.OpImage:
		g.SetExpression(in.Result, g.Expr(in.Arg(0)))
		if v, ok := w.opaque[in.Arg(0)]; ok {
			w.opaque[in.Result] = v
		}
		return true, nil
	case spirv.OpArrayLength:
		return true, w.lowerArrayLength(g, in)
	case spirv.OpControlBarrier:
		return true, w.lowerBarrier(g, in.Arg(2), true)
	case spirv.OpMemoryBarrier:
		return true, w.lowerBarrier(g, in.Arg(1), false)
	case spirv.OpImageSampleImplicitLod, spirv.OpImageSampleExplicitLod,
		spirv.OpImageSampleDrefImplicitLod, spirv.OpImageSampleDrefExplicitLod:
		return true, w.lowerSample(g, in)
	case spirv.OpImageFetch, spirv.OpImageRead:
		return true, w.lowerRead(g, in)
	case spirv.OpImageWrite:
		return true, w.lowerWrite(g, in)
	case spirv.OpImageGather:
		return true, w.lowerGather(g, in)
	case spirv.OpImageQuerySizeLod, spirv.OpImageQuerySize, spirv.OpImageQueryLevels:
		return true, w.lowerQuery(g, in)
	}
	if in.Op.IsAtomic() {
		return true, w.lowerAtomic(g, in)
	}
	return false, nil
}

func (w *writer) lowerArrayLength(g *emit.Generator, in *ir.Instruction) error {
	ptr := in.Arg(0)
	st := g.M.Type(g.M.PointeeType(ptr)).Self
	member := int(in.Args[1])
	expr := g.Operand(ptr) + "." + g.MemberName(st, member) + ".length()"
	g.Bind(in, g.TypeName(in.ResultType)+"("+expr+")")
	return nil
}

// Memory semantics bits selecting the memory a barrier orders.
const (
	semanticsUniform   = 0x40
	semanticsWorkgroup = 0x100
	semanticsImage     = 0x800
)

// lowerBarrier writes the memory barriers a semantics mask selects,
// followed by barrier() for control barriers.
func (w *writer) lowerBarrier(g *emit.Generator, semantics ir.ID, control bool) error {
	if control && w.model != spirv.ExecutionModelGLCompute {
		return cross.Unsupported("control barriers are only supported in compute shaders")
	}
	var bits uint32
	if k := g.M.Constant(semantics); k != nil {
		bits = k.ScalarU32()
	}
	var calls []string
	if bits&semanticsWorkgroup != 0 {
		calls = append(calls, "memoryBarrierShared")
	}
	if bits&semanticsUniform != 0 {
		calls = append(calls, "memoryBarrierBuffer")
	}
	if bits&semanticsImage != 0 {
		calls = append(calls, "memoryBarrierImage")
	}
	if !control && len(calls) == 0 {
		calls = append(calls, "memoryBarrier")
	}
	for _, c := range calls {
		g.Out.Line("%s();", c)
	}
	if control {
		g.Out.Line("barrier();")
	}
	return nil
}

func (d *dialect) FunctionSignature(g *emit.Generator, fn *ir.Function) (string, error) {
	w := d.w
	if fn.Self == w.ep.Function {
		return "void main()", nil
	}
	params := make([]string, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		t := g.M.Type(p.Type)
		name := g.ValueName(p.ID)
		pointee := p.Type
		if t.Pointer {
			pointee = t.Parent
		}
		pt := g.M.Type(pointee)
		if !w.vulkan() && (pt.Base == ir.BaseSampler || (pt.Base == ir.BaseImage && pt.Image.Sampled == 1)) {
			return "", cross.Unsupported("function %s takes a separate image or sampler, which OpenGL GLSL cannot express", g.FunctionName(fn.Self))
		}
		if t.Pointer && !pt.IsOpaque() {
			params = append(params, "inout "+g.Declare(pointee, name))
			continue
		}
		params = append(params, g.Declare(pointee, name))
	}
	return g.TypeName(fn.ReturnType) + " " + g.FunctionName(fn.Self) + "(" + strings.Join(params, ", ") + ")", nil
}

func (d *dialect) Return(g *emit.Generator, value string) {
	w := d.w
	if !g.IsEntry {
		d.Base.Return(g, value)
		return
	}
	epilogue := w.vertexEpilogue()
	for _, line := range epilogue {
		g.Out.Line("%s", line)
	}
	if len(epilogue) > 0 && !g.Nested() {
		return
	}
	d.Base.Return(g, "")
}

// vertexEpilogue returns the clip-space adjustments written before a
// vertex shader returns.
func (w *writer) vertexEpilogue() []string {
	if w.model != spirv.ExecutionModelVertex || !w.hasPosition {
		return nil
	}
	var lines []string
	if w.opts.FixupClipSpace {
		lines = append(lines, "gl_Position.z = 2.0 * gl_Position.z - gl_Position.w;")
	}
	if w.opts.FlipVertexY {
		lines = append(lines, "gl_Position.y = -gl_Position.y;")
	}
	return lines
}
