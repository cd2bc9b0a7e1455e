package msl

import (
	"fmt"
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

const swizzle = "xyzw"

// dialect spells function bodies in Metal. Loads and stores translate
// between the logical types of the module and the physical types the
// layouter chose for buffer members.
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
	case ir.BaseImage, ir.BaseSampledImage:
		return textureTypeName(g.M, t, accessReadWrite)
	case ir.BaseSampler:
		return "sampler"
	}
	return numericTypeName(t)
}

func (d *dialect) FunctionName(name string) string {
	switch name {
	case "mod":
		d.w.useHelper("spvFMod")
		return "spvFMod"
	case "radians":
		d.w.useHelper("spvRadians")
		return "spvRadians"
	case "degrees":
		d.w.useHelper("spvDegrees")
		return "spvDegrees"
	case "findLSB":
		d.w.useHelper("spvFindLSB")
		return "spvFindLSB"
	case "inversesqrt":
		return "rsqrt"
	case "roundEven":
		return "rint"
	case "dFdx":
		return "dfdx"
	case "dFdy":
		return "dfdy"
	case "bitCount":
		return "popcount"
	case "bitfieldReverse":
		return "reverse_bits"
	}
	return name
}

func (d *dialect) Bitcast(g *emit.Generator, dst, _ *ir.Type, expr string) string {
	return "as_type<" + d.TypeName(g, dst) + ">(" + expr + ")"
}

func (d *dialect) Construct(g *emit.Generator, typeID ir.ID, parts []string) (string, bool) {
	t := g.M.Type(typeID)
	switch {
	case t.IsArray():
		return "{ " + strings.Join(parts, ", ") + " }", true
	case t.Base == ir.BaseStruct:
		return g.TypeName(typeID) + "{ " + strings.Join(parts, ", ") + " }", false
	}
	return d.Base.Construct(g, typeID, parts)
}

func (d *dialect) Select(g *emit.Generator, resultType ir.ID, cond, a, b string) string {
	if t := g.M.Type(resultType); t.IsVector() {
		return "select(" + b + ", " + a + ", " + cond + ")"
	}
	return d.Base.Select(g, resultType, cond, a, b)
}

func (d *dialect) VariableExpr(_ *emit.Generator, id ir.ID) (string, bool) {
	iv, ok := d.w.io[id]
	if !ok {
		return "", false
	}
	if iv.flat != nil {
		return iv.flat.token, true
	}
	return iv.expr, true
}

func (d *dialect) MemberAccess(g *emit.Generator, base string, structID ir.ID, index int, chain *emit.Chain) string {
	if n, suffix, ok := d.w.resolveToken(base); ok && suffix == "" && index < len(n.members) {
		return n.members[index].expression()
	}
	expr := d.Base.MemberAccess(g, base, structID, index, chain)
	if chain != nil {
		return expr
	}
	// Extracting from a value: convert the physical member right away.
	dec := memberDecoration(g.M, structID, index)
	if dec == nil {
		return expr
	}
	mt := g.M.Type(g.M.Type(structID).MemberTypes[index])
	switch {
	case mt.IsArray():
		return expr
	case dec.HasExtended(ir.ExtRowMajorTranspose):
		return "transpose(" + expr + ")"
	case dec.HasExtended(ir.ExtPhysicalTypeID) && mt.Columns > 1:
		return widenedMatrix(g, mt, expr)
	case dec.HasExtended(ir.ExtPhysicalTypePacked):
		return numericTypeName(mt) + "(" + expr + ")"
	}
	return expr
}

// widenedMatrix rebuilds a logical matrix from its four-row physical
// declaration.
func widenedMatrix(g *emit.Generator, mt *ir.Type, expr string) string {
	e := emit.Enclose(expr)
	cols := make([]string, mt.Columns)
	for c := range cols {
		cols[c] = fmt.Sprintf("%s[%d].%s", e, c, swizzle[:mt.VecSize])
	}
	return numericTypeName(mt) + "(" + strings.Join(cols, ", ") + ")"
}

func (d *dialect) LoadExpr(g *emit.Generator, ptr ir.ID, expr string) string {
	w := d.w
	pointee := g.M.PointeeType(ptr)
	if n, suffix, ok := w.resolveToken(expr); ok {
		if n.dropped || suffix != "" {
			return g.ZeroExpr(pointee)
		}
		return w.gather(g, n)
	}
	if iv, ok := w.io[g.RootVariable(ptr)]; ok && iv.loadCast && g.Chain(ptr) == nil {
		return g.TypeName(pointee) + "(" + expr + ")"
	}
	return w.physicalLoad(g, ptr, expr)
}

// gather builds the value of a flattened aggregate from its leaves.
func (w *writer) gather(g *emit.Generator, n *flatNode) string {
	if n.dropped {
		return g.ZeroExpr(n.typeID)
	}
	if n.members == nil {
		return n.leaf
	}
	parts := make([]string, len(n.members))
	for i, child := range n.members {
		parts[i] = w.gather(g, child)
	}
	return g.TypeName(n.typeID) + "{ " + strings.Join(parts, ", ") + " }"
}

// scatter stores a value into the leaves of a flattened aggregate.
func (w *writer) scatter(g *emit.Generator, n *flatNode, rhs string) {
	for i, child := range n.members {
		if child.dropped {
			continue
		}
		value := emit.Enclose(rhs) + "." + g.MemberName(n.typeID, i)
		if child.members == nil {
			g.Out.Line("%s = %s;", child.leaf, value)
			continue
		}
		w.scatter(g, child, value)
	}
}

// physicalMember returns the member whose physical type differs from its
// logical type, or nil.
func physicalMember(g *emit.Generator, chain *emit.Chain) (*ir.Decoration, *ir.Type) {
	if chain == nil || chain.Member < 0 {
		return nil, nil
	}
	dec := memberDecoration(g.M, chain.Struct, chain.Member)
	if dec == nil {
		return nil, nil
	}
	if !dec.HasExtended(ir.ExtPhysicalTypeID) && !dec.HasExtended(ir.ExtPhysicalTypePacked) {
		return nil, nil
	}
	return dec, g.M.Type(g.M.Type(chain.Struct).MemberTypes[chain.Member])
}

// trimIndex removes the trailing "[index]" the access chain appended for
// the i-th from last index of the chain.
func trimIndex(g *emit.Generator, chain *emit.Chain, expr string, fromLast int) (base, index string) {
	idx := g.Expr(chain.Indices[len(chain.Indices)-1-fromLast])
	return strings.TrimSuffix(expr, "["+idx+"]"), idx
}

func (w *writer) physicalLoad(g *emit.Generator, ptr ir.ID, expr string) string {
	chain := g.Chain(ptr)
	dec, mt := physicalMember(g, chain)
	if dec == nil {
		return expr
	}
	depth := len(mt.Array)
	switch {
	case dec.HasExtended(ir.ExtRowMajorTranspose):
		switch chain.After {
		case 0:
			return "transpose(" + expr + ")"
		case 1:
			base, c := trimIndex(g, chain, expr, 0)
			rows := make([]string, mt.VecSize)
			for r := range rows {
				rows[r] = fmt.Sprintf("%s[%d][%s]", base, r, c)
			}
			return numericTypeName(g.M.Type(mt.Parent)) + "(" + strings.Join(rows, ", ") + ")"
		default:
			base, r := trimIndex(g, chain, expr, 0)
			base, c := trimIndex(g, chain, base, 1)
			return base + "[" + r + "][" + c + "]"
		}
	case dec.HasExtended(ir.ExtPhysicalTypeID) && mt.Columns > 1:
		switch chain.After - depth {
		case 0:
			return widenedMatrix(g, mt, expr)
		case 1:
			return emit.Enclose(expr) + "." + swizzle[:mt.VecSize]
		}
	case dec.HasExtended(ir.ExtPhysicalTypeID):
		if chain.After == depth {
			return emit.Enclose(expr) + "." + swizzle[:mt.VecSize]
		}
	case dec.HasExtended(ir.ExtPhysicalTypePacked):
		if chain.After == depth && mt.VecSize > 1 {
			elem := *mt
			elem.Array, elem.ArrayLiteral = nil, nil
			return numericTypeName(&elem) + "(" + expr + ")"
		}
	}
	return expr
}

func (d *dialect) Store(g *emit.Generator, ptr ir.ID, lhs, rhs string) error {
	w := d.w
	if n, suffix, ok := w.resolveToken(lhs); ok {
		if !n.dropped && suffix == "" {
			w.scatter(g, n, rhs)
		}
		return nil
	}
	if lhs == "" {
		return nil
	}
	if iv, ok := w.io[g.RootVariable(ptr)]; ok && iv.storeType != "" && g.Chain(ptr) == nil {
		g.Out.Line("%s = %s(%s);", lhs, iv.storeType, rhs)
		return nil
	}
	return w.physicalStore(g, ptr, lhs, rhs)
}

func (w *writer) physicalStore(g *emit.Generator, ptr ir.ID, lhs, rhs string) error {
	chain := g.Chain(ptr)
	pointee := g.M.PointeeType(ptr)
	dec, mt := physicalMember(g, chain)
	leaf := func(l, r string) { g.Out.Line("%s = %s;", l, r) }
	if dec != nil {
		depth := len(mt.Array)
		switch {
		case dec.HasExtended(ir.ExtRowMajorTranspose):
			switch chain.After {
			case 0:
				g.Out.Line("%s = transpose(%s);", lhs, rhs)
			case 1:
				base, c := trimIndex(g, chain, lhs, 0)
				for r := uint32(0); r < mt.VecSize; r++ {
					g.Out.Line("%s[%d][%s] = %s[%d];", base, r, c, emit.Enclose(rhs), r)
				}
			default:
				base, r := trimIndex(g, chain, lhs, 0)
				base, c := trimIndex(g, chain, base, 1)
				g.Out.Line("%s[%s][%s] = %s;", base, r, c, rhs)
			}
			return nil
		case dec.HasExtended(ir.ExtPhysicalTypeID) && mt.Columns > 1:
			switch chain.After - depth {
			case 0:
				for c := uint32(0); c < mt.Columns; c++ {
					g.Out.Line("%s[%d].%s = %s[%d];", emit.Enclose(lhs), c, swizzle[:mt.VecSize], emit.Enclose(rhs), c)
				}
				return nil
			case 1:
				leaf(emit.Enclose(lhs)+"."+swizzle[:mt.VecSize], rhs)
				return nil
			}
		case dec.HasExtended(ir.ExtPhysicalTypeID):
			if chain.After == depth {
				leaf(emit.Enclose(lhs)+"."+swizzle[:mt.VecSize], rhs)
				return nil
			}
			if chain.After < depth {
				sw := swizzle[:mt.VecSize]
				leaf = func(l, r string) { g.Out.Line("%s.%s = %s;", l, sw, r) }
			}
		}
	}
	if g.M.Type(pointee).IsArray() {
		return w.storeArray(g, pointee, lhs, rhs, 0, leaf)
	}
	leaf(lhs, rhs)
	return nil
}

// storeArray copies an array element by element, since Metal arrays are
// not assignable.
func (w *writer) storeArray(g *emit.Generator, typeID ir.ID, lhs, rhs string, depth int, leaf func(l, r string)) error {
	t := g.M.Type(typeID)
	if !t.IsArray() {
		leaf(lhs, rhs)
		return nil
	}
	last := len(t.Array) - 1
	var size string
	switch {
	case !t.ArrayLiteral[last]:
		size = g.Expr(ir.ID(t.Array[last]))
	case t.Array[last] == 0:
		return cross.Unsupported("runtime arrays cannot be copied")
	default:
		size = fmt.Sprint(t.Array[last])
	}
	i := fmt.Sprintf("spvI%d", depth)
	g.Out.Line("for (int %s = 0; %s < %s; %s++)", i, i, size, i)
	g.Out.Begin()
	if err := w.storeArray(g, t.Parent, lhs+"["+i+"]", emit.Enclose(rhs)+"["+i+"]", depth+1, leaf); err != nil {
		return err
	}
	g.Out.End("")
	return nil
}

func (d *dialect) Lower(g *emit.Generator, in *ir.Instruction) (bool, error) {
	w := d.w
	switch in.Op {
	case spirv.OpLoad, spirv.OpCopyObject:
		t := g.M.Type(in.ResultType)
		if t.IsArray() && in.Op == spirv.OpLoad {
			ptr := in.Arg(0)
			g.SetExpression(in.Result, d.LoadExpr(g, ptr, g.Expr(ptr)))
			return true, nil
		}
		if t.IsOpaque() {
			src := in.Arg(0)
			expr := g.Expr(src)
			g.SetExpression(in.Result, expr)
			if s := w.samplerFor(g, src); s != "" {
				w.recordSampler(in.Result, expr, s)
			}
			return true, nil
		}
	case spirv.OpSampledImage:
		expr := g.Expr(in.Arg(0))
		g.SetExpression(in.Result, expr)
		w.recordSampler(in.Result, expr, g.Expr(in.Arg(1)))
		return true, nil
	case spirv.OpImage:
		g.SetExpression(in.Result, g.Expr(in.Arg(0)))
		return true, nil
	case spirv.OpSMod:
		w.useHelper("spvSMod")
		g.Bind(in, "spvSMod("+g.Expr(in.Arg(0))+", "+g.Expr(in.Arg(1))+")")
		return true, nil
	case spirv.OpOuterProduct:
		rt := g.M.Type(in.ResultType)
		a, b := g.Operand(in.Arg(0)), g.Operand(in.Arg(1))
		cols := make([]string, rt.Columns)
		for c := range cols {
			cols[c] = a + " * " + b + "." + swizzle[c:c+1]
		}
		g.Bind(in, g.TypeName(in.ResultType)+"("+strings.Join(cols, ", ")+")")
		return true, nil
	case spirv.OpExtInst:
		return w.lowerExtInst(g, in)
	case spirv.OpArrayLength:
		return true, w.lowerArrayLength(g, in)
	case spirv.OpControlBarrier:
		return true, w.lowerBarrier(g, in.Arg(2))
	case spirv.OpMemoryBarrier:
		return true, w.lowerBarrier(g, in.Arg(1))
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

// samplerFor returns the sampler expression paired with an image value
// or pointer, or "".
func (w *writer) samplerFor(g *emit.Generator, id ir.ID) string {
	if s, ok := w.samplers[id]; ok {
		return s
	}
	expr := g.Expr(id)
	if s, ok := w.samplerByExpr[expr]; ok {
		return s
	}
	if r := w.resByVar[g.RootVariable(id)]; r != nil && r.sampler != nil {
		return r.sampler.name + strings.TrimPrefix(expr, r.name)
	}
	return ""
}

func (w *writer) recordSampler(id ir.ID, expr, sampler string) {
	w.samplers[id] = sampler
	w.samplerByExpr[expr] = sampler
}

func (w *writer) lowerExtInst(g *emit.Generator, in *ir.Instruction) (bool, error) {
	if g.M.ExtInstImports[in.Arg(0)] != spirv.ExtInstSetGLSL450 {
		return false, nil
	}
	switch spirv.GLSLstd450(in.Args[1]) {
	case spirv.GLSLstd450MatrixInverse:
		n := g.M.Type(in.ResultType).Columns
		if n < 2 || n > 4 {
			return true, cross.Invalid("inverse of a %d-column matrix", n)
		}
		name := fmt.Sprintf("spvInverse%dx%d", n, n)
		w.useHelper(name)
		g.Bind(in, name+"("+g.Expr(in.Arg(2))+")")
		return true, nil
	case spirv.GLSLstd450FindUMsb:
		w.useHelper("spvFindUMSB")
		g.Bind(in, w.signedCall(g, in, "spvFindUMSB", ir.BaseUInt))
		return true, nil
	case spirv.GLSLstd450FindSMsb:
		w.useHelper("spvFindSMSB")
		g.Bind(in, w.signedCall(g, in, "spvFindSMSB", ir.BaseInt))
		return true, nil
	}
	return false, nil
}

// signedCall calls a one-argument helper with its operand reinterpreted
// as base, converting the result back to the result type.
func (w *writer) signedCall(g *emit.Generator, in *ir.Instruction, fn string, base ir.BaseType) string {
	arg := in.Arg(2)
	at := g.M.Type(g.M.TypeOf(arg))
	expr := g.Expr(arg)
	if at.Base != base {
		expr = g.D.Bitcast(g, emit.SameShape(at, base), at, expr)
	}
	expr = fn + "(" + expr + ")"
	if rt := g.M.Type(in.ResultType); rt.Base != base {
		expr = g.D.Bitcast(g, rt, emit.SameShape(rt, base), expr)
	}
	return expr
}

func (w *writer) lowerArrayLength(g *emit.Generator, in *ir.Instruction) error {
	ptr := in.Arg(0)
	r := w.resByVar[g.RootVariable(ptr)]
	if r == nil {
		return cross.Unsupported("array length of a buffer that is not a resource")
	}
	st := g.M.Type(g.M.PointeeType(ptr)).Self
	member := int(in.Args[1])
	off := w.cc.MemberOffset(st, member)
	stride := w.cc.MemberArrayStride(st, member)
	if stride == 0 {
		return cross.Invalid("runtime array member %d of %s has no stride", member, g.TypeName(st))
	}
	expr := fmt.Sprintf("uint((spvBufferSizeConstants[%d] - %d) / %d)", r.index, off, stride)
	if rt := g.M.Type(in.ResultType); rt.Base != ir.BaseUInt {
		expr = g.TypeName(in.ResultType) + "(" + expr + ")"
	}
	g.Bind(in, expr)
	return nil
}

// Memory semantics bits selecting the memory a barrier orders.
const (
	semanticsUniform   = 0x40
	semanticsWorkgroup = 0x100
	semanticsImage     = 0x800
)

func (w *writer) lowerBarrier(g *emit.Generator, semantics ir.ID) error {
	if w.model != spirv.ExecutionModelGLCompute {
		return cross.Unsupported("barriers are only supported in compute shaders")
	}
	var bits uint32
	if k := g.M.Constant(semantics); k != nil {
		bits = k.ScalarU32()
	}
	var flags []string
	if bits&semanticsWorkgroup != 0 {
		flags = append(flags, "mem_flags::mem_threadgroup")
	}
	if bits&semanticsUniform != 0 {
		flags = append(flags, "mem_flags::mem_device")
	}
	if bits&semanticsImage != 0 {
		flags = append(flags, "mem_flags::mem_texture")
	}
	if len(flags) == 0 {
		flags = append(flags, "mem_flags::mem_none")
	}
	g.Out.Line("threadgroup_barrier(%s);", strings.Join(flags, " | "))
	return nil
}

func (d *dialect) FunctionSignature(g *emit.Generator, fn *ir.Function) (string, error) {
	w := d.w
	if fn.Self == w.ep.Function {
		return w.entrySignature(), nil
	}
	rt := g.M.Type(fn.ReturnType)
	if rt != nil && rt.IsArray() {
		return "", cross.Unsupported("function %s returns an array", g.FunctionName(fn.Self))
	}
	var params []string
	for _, p := range fn.Parameters {
		t := g.M.Type(p.Type)
		name := g.ValueName(p.ID)
		switch {
		case t.Pointer:
			params = append(params, w.refDecl(addressSpaceName(g.M, t.Storage, t.Parent), t.Parent, name))
		case t.Base == ir.BaseSampledImage:
			smp := w.names.Call(name + "Smplr")
			params = append(params, textureTypeName(g.M, t, accessRead)+" "+name, "sampler "+smp)
			w.recordSampler(p.ID, name, smp)
		case t.Base == ir.BaseImage:
			params = append(params, textureTypeName(g.M, t, accessReadWrite)+" "+name)
		default:
			params = append(params, g.Declare(p.Type, name))
		}
	}
	params = append(params, w.threadingFor(fn.Self).decls...)
	return g.TypeName(fn.ReturnType) + " " + g.FunctionName(fn.Self) + "(" + strings.Join(params, ", ") + ")", nil
}

func (d *dialect) CallArgs(g *emit.Generator, callee ir.ID, args []string) []string {
	w := d.w
	fn := g.M.Function(callee)
	out := make([]string, 0, len(args))
	for i, a := range args {
		out = append(out, a)
		if i < len(fn.Parameters) && g.M.Type(fn.Parameters[i].Type).Base == ir.BaseSampledImage {
			out = append(out, w.samplerByExpr[a])
		}
	}
	return append(out, w.threadingFor(callee).args...)
}

func (d *dialect) EntryPrologue(g *emit.Generator) error {
	w := d.w
	if w.outBlock != nil {
		g.Out.Line("%s out = {};", w.outBlock.typeName)
	}
	for _, line := range w.prologue {
		g.Out.Line("%s", line)
	}
	for _, id := range w.cc.GlobalsUsedBy(w.ep.Function) {
		v := g.M.Variable(id)
		if v == nil || v.Hidden {
			continue
		}
		if _, ok := w.io[id]; ok {
			continue
		}
		pointee := w.cc.VariableType(id)
		decl := g.Declare(pointee, g.ValueName(id))
		switch v.Storage {
		case spirv.StorageClassPrivate:
			switch {
			case v.Initializer != 0 && g.M.Type(pointee).IsArray() && g.M.Constant(v.Initializer) != nil:
				g.Out.Line("%s = %s;", decl, g.ConstantExpr(v.Initializer))
			case v.Initializer != 0:
				g.Out.Line("%s = %s;", decl, g.Expr(v.Initializer))
			default:
				g.Out.Line("%s = {};", decl)
			}
		case spirv.StorageClassWorkgroup:
			g.Out.Line("threadgroup %s;", decl)
		}
	}
	return nil
}

func (d *dialect) Return(g *emit.Generator, value string) {
	w := d.w
	if !g.IsEntry {
		d.Base.Return(g, value)
		return
	}
	for _, line := range w.epilogue {
		g.Out.Line("%s", line)
	}
	if w.outBlock != nil {
		g.Out.Line("return out;")
		return
	}
	if len(w.epilogue) > 0 && !g.Nested() {
		return
	}
	d.Base.Return(g, "")
}

func (d *dialect) Kill() string { return "discard_fragment();" }
