// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// intrinsics maps GLSL built-in function names to their HLSL spelling.
var intrinsics = map[string]string{
	"mix":             "lerp",
	"fract":           "frac",
	"inversesqrt":     "rsqrt",
	"dFdx":            "ddx",
	"dFdy":            "ddy",
	"bitCount":        "countbits",
	"bitfieldReverse": "reversebits",
	"findLSB":         "firstbitlow",
	"findMSB":         "firstbithigh",
	"fma":             "mad",
	"roundEven":       "round",
}

// dialect spells function bodies in HLSL.
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
		return imageToHLSL(g.M, t, false, false)
	}
	d.w.noteWidth(t)
	return numericToHLSL(t)
}

// noteWidth records the features and shader model a scalar width needs.
func (w *writer) noteWidth(t *ir.Type) {
	switch {
	case t.Width == 16:
		w.features |= FeatureFloat16
		w.need(ShaderModel6_2, "16-bit types")
	case t.Width == 64 && t.IsInteger():
		w.features |= Feature64BitIntegers
		w.need(ShaderModel6_0, "64-bit integers")
	case t.Width == 64 && t.Base == ir.BaseFloat:
		w.features |= FeatureDoubles
	}
}

func (d *dialect) FunctionName(name string) string {
	if name == "mod" {
		d.w.helpers["spvMod"] = true
		return "spvMod"
	}
	if n, ok := intrinsics[name]; ok {
		return n
	}
	return name
}

func (d *dialect) Bitcast(g *emit.Generator, dst, src *ir.Type, expr string) string {
	switch {
	case dst.Base == ir.BaseFloat && src.IsInteger():
		return "asfloat(" + expr + ")"
	case dst.Base == ir.BaseInt && src.Base == ir.BaseFloat:
		return "asint(" + expr + ")"
	case dst.Base == ir.BaseUInt && src.Base == ir.BaseFloat:
		return "asuint(" + expr + ")"
	}
	return d.Base.Bitcast(g, dst, src, expr)
}

// Construct spells arrays and structs as initializer lists, which are
// only valid in declarations.
func (d *dialect) Construct(g *emit.Generator, typeID ir.ID, parts []string) (string, bool) {
	t := g.M.Type(typeID)
	if t.IsArray() || t.Base == ir.BaseStruct {
		return "{ " + strings.Join(parts, ", ") + " }", true
	}
	return d.Base.Construct(g, typeID, parts)
}

// MatrixMultiply swaps the operands of mul: matrices are declared
// transposed, so a SPIR-V column is an HLSL row.
func (d *dialect) MatrixMultiply(_ *emit.Generator, _ spirv.OpCode, lhs, rhs string) string {
	return "mul(" + rhs + ", " + lhs + ")"
}

func (d *dialect) VariableExpr(g *emit.Generator, id ir.ID) (string, bool) {
	if r := d.w.resourceOf(id); r != nil {
		return r.expr(), true
	}
	if name, ok := d.w.flatIO[id]; ok {
		return name, true
	}
	return "", false
}

func (d *dialect) MemberAccess(g *emit.Generator, base string, structID ir.ID, index int, chain *emit.Chain) string {
	w := d.w
	if resolve, ok := w.flat[base]; ok {
		return resolve(index)
	}
	st := g.M.Type(structID).Self
	if w.cc.IsBuiltinBlock(st) && g.M.HasMemberDecoration(st, index, spirv.DecorationBuiltIn) {
		b := spirv.BuiltIn(g.M.MemberDecorationValue(st, index, spirv.DecorationBuiltIn))
		if desc, ok := builtins[b]; ok {
			return desc.name
		}
		w.fail(cross.Unsupported("builtin %s is not supported by the HLSL backend", b))
	}
	return d.Base.MemberAccess(g, base, structID, index, chain)
}

func (d *dialect) Lower(g *emit.Generator, in *ir.Instruction) (bool, error) {
	w := d.w
	switch in.Op {
	case spirv.OpLoad, spirv.OpCopyObject:
		if in.Op == spirv.OpLoad {
			if r := w.resourceOf(in.Arg(0)); r != nil && r.kind == resourceConstantBuffer {
				g.BindTemporary(in, r.wholeValue())
				return true, nil
			}
		}
		if t := g.M.Type(in.ResultType); t == nil || !t.IsOpaque() {
			return false, nil
		}
		w.lowerOpaqueLoad(g, in)
		return true, nil
	case spirv.OpSampledImage:
		g.SetExpression(in.Result, g.Expr(in.Arg(0)))
		w.samplerOf[in.Result] = g.Expr(in.Arg(1))
		return true, nil
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
	case spirv.OpOuterProduct:
		return true, w.lowerOuterProduct(g, in)
	case spirv.OpExtInst:
		return w.lowerExtInst(g, in)
	}
	if in.Op.IsAtomic() {
		return true, w.lowerAtomic(g, in)
	}
	return false, nil
}

// lowerOpaqueLoad forwards loads of images and samplers, remembering the
// variable each value reads.
func (w *writer) lowerOpaqueLoad(g *emit.Generator, in *ir.Instruction) {
	src := in.Arg(0)
	g.SetExpression(in.Result, g.Expr(src))
	if in.Op == spirv.OpCopyObject {
		if v, ok := w.opaque[src]; ok {
			w.opaque[in.Result] = v
		}
		if s, ok := w.samplerOf[src]; ok {
			w.samplerOf[in.Result] = s
		}
		return
	}
	if root := g.RootVariable(src); g.M.Variable(root) != nil {
		w.opaque[in.Result] = root
	}
}

func (w *writer) lowerExtInst(g *emit.Generator, in *ir.Instruction) (bool, error) {
	if g.M.ExtInstImports[in.Arg(0)] != spirv.ExtInstSetGLSL450 {
		return false, nil
	}
	switch spirv.GLSLstd450(in.Args[1]) {
	case spirv.GLSLstd450MatrixInverse:
		return true, cross.Unsupported("matrix inverse has no HLSL intrinsic")
	case spirv.GLSLstd450FSign:
		// sign returns int in HLSL.
		args := g.ExtInstArgs(in)
		g.Bind(in, g.TypeName(in.ResultType)+"(sign("+args[0]+"))")
		return true, nil
	}
	return false, nil
}

// lowerOuterProduct builds the matrix column by column; column i is a
// scaled by component i of b.
func (w *writer) lowerOuterProduct(g *emit.Generator, in *ir.Instruction) error {
	rt := g.M.Type(in.ResultType)
	a, b := g.Operand(in.Arg(0)), g.Operand(in.Arg(1))
	cols := make([]string, rt.Columns)
	for i := range cols {
		cols[i] = a + " * " + b + "." + swizzle[i:i+1]
	}
	g.Bind(in, g.TypeName(in.ResultType)+"("+strings.Join(cols, ", ")+")")
	return nil
}

const swizzle = "xyzw"

func (w *writer) lowerArrayLength(g *emit.Generator, in *ir.Instruction) error {
	r := w.resourceOf(g.RootVariable(in.Arg(0)))
	if r == nil || r.kind != resourceStructuredElements {
		return cross.Unsupported("array length of a buffer that is not a structured buffer")
	}
	name := g.DeclareTemporary(in.Result, in.ResultType)
	stride := w.names.Call(name + "_stride")
	g.Out.Line("uint %s;", stride)
	g.Out.Line("%s.GetDimensions(%s, %s);", r.name, name, stride)
	return nil
}

// Memory semantics bits selecting the memory a barrier orders.
const (
	semanticsUniform   = 0x40
	semanticsWorkgroup = 0x100
	semanticsImage     = 0x800
)

// lowerBarrier picks the barrier intrinsic covering the memory a
// semantics mask selects.
func (w *writer) lowerBarrier(g *emit.Generator, semantics ir.ID, control bool) error {
	if control && w.model != spirv.ExecutionModelGLCompute {
		return cross.Unsupported("control barriers are only supported in compute shaders")
	}
	var bits uint32
	if k := g.M.Constant(semantics); k != nil {
		bits = k.ScalarU32()
	}
	group := bits&semanticsWorkgroup != 0
	device := bits&(semanticsUniform|semanticsImage) != 0
	var fn string
	switch {
	case group && device:
		fn = "AllMemoryBarrier"
	case device:
		fn = "DeviceMemoryBarrier"
	case group:
		fn = "GroupMemoryBarrier"
	case control:
		fn = "GroupMemoryBarrier"
	default:
		fn = "AllMemoryBarrier"
	}
	if control {
		fn += "WithGroupSync"
	}
	g.Out.Line("%s();", fn)
	return nil
}

func (d *dialect) FunctionSignature(g *emit.Generator, fn *ir.Function) (string, error) {
	w := d.w
	if fn.Self == w.ep.Function {
		return "void " + g.FunctionName(fn.Self) + "()", nil
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
		if pt.Base == ir.BaseSampledImage {
			return "", cross.Unsupported("function %s takes a combined image-sampler, which HLSL cannot pass", g.FunctionName(fn.Self))
		}
		if t.Pointer && !pt.IsOpaque() {
			params = append(params, "inout "+g.Declare(pointee, name))
			continue
		}
		params = append(params, g.Declare(pointee, name))
	}
	return g.TypeName(fn.ReturnType) + " " + g.FunctionName(fn.Self) + "(" + strings.Join(params, ", ") + ")", nil
}
