package emit

import (
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

const swizzle = "xyzw"

var binaryOperators = map[spirv.OpCode]string{
	spirv.OpIAdd:                 "+",
	spirv.OpFAdd:                 "+",
	spirv.OpISub:                 "-",
	spirv.OpFSub:                 "-",
	spirv.OpIMul:                 "*",
	spirv.OpFMul:                 "*",
	spirv.OpUDiv:                 "/",
	spirv.OpSDiv:                 "/",
	spirv.OpFDiv:                 "/",
	spirv.OpUMod:                 "%",
	spirv.OpSRem:                 "%",
	spirv.OpVectorTimesScalar:    "*",
	spirv.OpMatrixTimesScalar:    "*",
	spirv.OpShiftRightLogical:    ">>",
	spirv.OpShiftRightArithmetic: ">>",
	spirv.OpShiftLeftLogical:     "<<",
	spirv.OpBitwiseOr:            "|",
	spirv.OpBitwiseXor:           "^",
	spirv.OpBitwiseAnd:           "&",
}

var comparisonOperators = map[spirv.OpCode]string{
	spirv.OpLogicalEqual:            "==",
	spirv.OpLogicalNotEqual:         "!=",
	spirv.OpIEqual:                  "==",
	spirv.OpINotEqual:               "!=",
	spirv.OpUGreaterThan:            ">",
	spirv.OpSGreaterThan:            ">",
	spirv.OpUGreaterThanEqual:       ">=",
	spirv.OpSGreaterThanEqual:       ">=",
	spirv.OpULessThan:               "<",
	spirv.OpSLessThan:               "<",
	spirv.OpULessThanEqual:          "<=",
	spirv.OpSLessThanEqual:          "<=",
	spirv.OpFOrdEqual:               "==",
	spirv.OpFUnordEqual:             "==",
	spirv.OpFOrdNotEqual:            "!=",
	spirv.OpFUnordNotEqual:          "!=",
	spirv.OpFOrdLessThan:            "<",
	spirv.OpFUnordLessThan:          "<",
	spirv.OpFOrdGreaterThan:         ">",
	spirv.OpFUnordGreaterThan:       ">",
	spirv.OpFOrdLessThanEqual:       "<=",
	spirv.OpFUnordLessThanEqual:     "<=",
	spirv.OpFOrdGreaterThanEqual:    ">=",
	spirv.OpFUnordGreaterThanEqual:  ">=",
}

// signedness gives the integer interpretation an opcode imposes on its
// operands.
var signedness = map[spirv.OpCode]ir.BaseType{
	spirv.OpSDiv:                 ir.BaseInt,
	spirv.OpSRem:                 ir.BaseInt,
	spirv.OpSMod:                 ir.BaseInt,
	spirv.OpSGreaterThan:         ir.BaseInt,
	spirv.OpSGreaterThanEqual:    ir.BaseInt,
	spirv.OpSLessThan:            ir.BaseInt,
	spirv.OpSLessThanEqual:       ir.BaseInt,
	spirv.OpShiftRightArithmetic: ir.BaseInt,
	spirv.OpUDiv:                 ir.BaseUInt,
	spirv.OpUMod:                 ir.BaseUInt,
	spirv.OpUGreaterThan:         ir.BaseUInt,
	spirv.OpUGreaterThanEqual:    ir.BaseUInt,
	spirv.OpULessThan:            ir.BaseUInt,
	spirv.OpULessThanEqual:       ir.BaseUInt,
	spirv.OpShiftRightLogical:    ir.BaseUInt,
}

// extInst describes a GLSL.std.450 instruction spelled as a call.
type extInst struct {
	name string
	// sign forces the integer interpretation of the operands.
	sign ir.BaseType
}

var glslStd450 = map[spirv.GLSLstd450]extInst{
	spirv.GLSLstd450Round:         {name: "round"},
	spirv.GLSLstd450RoundEven:     {name: "roundEven"},
	spirv.GLSLstd450Trunc:         {name: "trunc"},
	spirv.GLSLstd450FAbs:          {name: "abs"},
	spirv.GLSLstd450SAbs:          {name: "abs", sign: ir.BaseInt},
	spirv.GLSLstd450FSign:         {name: "sign"},
	spirv.GLSLstd450SSign:         {name: "sign", sign: ir.BaseInt},
	spirv.GLSLstd450Floor:         {name: "floor"},
	spirv.GLSLstd450Ceil:          {name: "ceil"},
	spirv.GLSLstd450Fract:         {name: "fract"},
	spirv.GLSLstd450Radians:       {name: "radians"},
	spirv.GLSLstd450Degrees:       {name: "degrees"},
	spirv.GLSLstd450Sin:           {name: "sin"},
	spirv.GLSLstd450Cos:           {name: "cos"},
	spirv.GLSLstd450Tan:           {name: "tan"},
	spirv.GLSLstd450Asin:          {name: "asin"},
	spirv.GLSLstd450Acos:          {name: "acos"},
	spirv.GLSLstd450Atan:          {name: "atan"},
	spirv.GLSLstd450Sinh:          {name: "sinh"},
	spirv.GLSLstd450Cosh:          {name: "cosh"},
	spirv.GLSLstd450Tanh:          {name: "tanh"},
	spirv.GLSLstd450Atan2:         {name: "atan2"},
	spirv.GLSLstd450Pow:           {name: "pow"},
	spirv.GLSLstd450Exp:           {name: "exp"},
	spirv.GLSLstd450Log:           {name: "log"},
	spirv.GLSLstd450Exp2:          {name: "exp2"},
	spirv.GLSLstd450Log2:          {name: "log2"},
	spirv.GLSLstd450Sqrt:          {name: "sqrt"},
	spirv.GLSLstd450InverseSqrt:   {name: "inversesqrt"},
	spirv.GLSLstd450Determinant:   {name: "determinant"},
	spirv.GLSLstd450MatrixInverse: {name: "inverse"},
	spirv.GLSLstd450FMin:          {name: "min"},
	spirv.GLSLstd450UMin:          {name: "min", sign: ir.BaseUInt},
	spirv.GLSLstd450SMin:          {name: "min", sign: ir.BaseInt},
	spirv.GLSLstd450FMax:          {name: "max"},
	spirv.GLSLstd450UMax:          {name: "max", sign: ir.BaseUInt},
	spirv.GLSLstd450SMax:          {name: "max", sign: ir.BaseInt},
	spirv.GLSLstd450FClamp:        {name: "clamp"},
	spirv.GLSLstd450UClamp:        {name: "clamp", sign: ir.BaseUInt},
	spirv.GLSLstd450SClamp:        {name: "clamp", sign: ir.BaseInt},
	spirv.GLSLstd450FMix:          {name: "mix"},
	spirv.GLSLstd450Step:          {name: "step"},
	spirv.GLSLstd450SmoothStep:    {name: "smoothstep"},
	spirv.GLSLstd450Fma:           {name: "fma"},
	spirv.GLSLstd450Ldexp:         {name: "ldexp"},
	spirv.GLSLstd450Length:        {name: "length"},
	spirv.GLSLstd450Distance:      {name: "distance"},
	spirv.GLSLstd450Cross:         {name: "cross"},
	spirv.GLSLstd450Normalize:     {name: "normalize"},
	spirv.GLSLstd450FaceForward:   {name: "faceforward"},
	spirv.GLSLstd450Reflect:       {name: "reflect"},
	spirv.GLSLstd450Refract:       {name: "refract"},
	spirv.GLSLstd450FindILsb:      {name: "findLSB"},
	spirv.GLSLstd450FindSMsb:      {name: "findMSB", sign: ir.BaseInt},
	spirv.GLSLstd450FindUMsb:      {name: "findMSB", sign: ir.BaseUInt},
	spirv.GLSLstd450NMin:          {name: "min"},
	spirv.GLSLstd450NMax:          {name: "max"},
	spirv.GLSLstd450NClamp:        {name: "clamp"},
}

// emitInstruction writes or records the expression of one instruction.
func (g *Generator) emitInstruction(in *ir.Instruction) error {
	if in.Result != 0 && g.Info.Uses[in.Result] == 0 && !in.HasSideEffects() {
		return nil
	}
	handled, err := g.D.Lower(g, in)
	if err != nil || handled {
		return err
	}

	switch in.Op {
	case spirv.OpNop:
		return nil
	case spirv.OpLoad:
		ptr := in.Arg(0)
		g.Bind(in, g.D.LoadExpr(g, ptr, g.Expr(ptr)))
	case spirv.OpStore:
		ptr := in.Arg(0)
		return g.D.Store(g, ptr, g.Expr(ptr), g.Expr(in.Arg(1)))
	case spirv.OpCopyMemory:
		dst, src := in.Arg(0), in.Arg(1)
		return g.D.Store(g, dst, g.Expr(dst), g.D.LoadExpr(g, src, g.Expr(src)))
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain:
		return g.emitAccessChain(in)
	case spirv.OpCopyObject:
		g.Bind(in, g.Expr(in.Arg(0)))
	case spirv.OpCompositeExtract:
		g.Bind(in, g.extract(in.Arg(0), in.Args[1:]))
	case spirv.OpCompositeInsert:
		name := g.valueTemporary(in, g.Expr(in.Arg(1)))
		g.Out.Line("%s = %s;", g.path(name, g.M.TypeOf(in.Arg(1)), in.Args[2:]), g.Expr(in.Arg(0)))
	case spirv.OpCompositeConstruct:
		return g.emitConstruct(in)
	case spirv.OpVectorShuffle:
		g.Bind(in, g.shuffle(in))
	case spirv.OpVectorExtractDynamic:
		g.Bind(in, g.Operand(in.Arg(0))+"["+g.Expr(in.Arg(1))+"]")
	case spirv.OpVectorInsertDynamic:
		name := g.valueTemporary(in, g.Expr(in.Arg(0)))
		g.Out.Line("%s[%s] = %s;", name, g.Expr(in.Arg(2)), g.Expr(in.Arg(1)))
	case spirv.OpTranspose:
		g.Bind(in, g.call("transpose", in.Arg(0)))
	case spirv.OpSNegate, spirv.OpFNegate:
		g.Bind(in, "-"+g.Operand(in.Arg(0)))
	case spirv.OpNot:
		g.Bind(in, "~"+g.Operand(in.Arg(0)))
	case spirv.OpLogicalNot:
		g.Bind(in, g.D.LogicalNot(g, g.M.TypeOf(in.Arg(0)), g.Operand(in.Arg(0))))
	case spirv.OpLogicalOr, spirv.OpLogicalAnd:
		op := "||"
		if in.Op == spirv.OpLogicalAnd {
			op = "&&"
		}
		g.Bind(in, g.D.Compare(g, op, g.M.TypeOf(in.Arg(0)), g.Operand(in.Arg(0)), g.Operand(in.Arg(1))))
	case spirv.OpVectorTimesMatrix, spirv.OpMatrixTimesVector, spirv.OpMatrixTimesMatrix:
		g.Bind(in, g.D.MatrixMultiply(g, in.Op, g.Operand(in.Arg(0)), g.Operand(in.Arg(1))))
	case spirv.OpOuterProduct:
		g.Bind(in, g.call(g.D.FunctionName("outerProduct"), in.Arg(0), in.Arg(1)))
	case spirv.OpDot:
		g.Bind(in, g.call(g.D.FunctionName("dot"), in.Arg(0), in.Arg(1)))
	case spirv.OpFRem:
		a, b := g.Operand(in.Arg(0)), g.Operand(in.Arg(1))
		g.Bind(in, a+" - "+b+" * "+g.D.FunctionName("trunc")+"("+a+" / "+b+")")
	case spirv.OpFMod:
		g.Bind(in, g.call(g.D.FunctionName("mod"), in.Arg(0), in.Arg(1)))
	case spirv.OpSMod:
		a, b := g.typedOperand(in.Arg(0), ir.BaseInt), g.typedOperand(in.Arg(1), ir.BaseInt)
		g.Bind(in, g.castResult(in.ResultType, ir.BaseInt, "("+a+" % "+b+" + "+b+") % "+b))
	case spirv.OpAny, spirv.OpAll, spirv.OpIsNan, spirv.OpIsInf, spirv.OpDPdx, spirv.OpDPdy, spirv.OpFwidth,
		spirv.OpBitCount, spirv.OpBitReverse:
		g.Bind(in, g.call(g.D.FunctionName(unaryFunctions[in.Op]), in.Arg(0)))
	case spirv.OpSelect:
		g.Bind(in, g.D.Select(g, in.ResultType, g.Operand(in.Arg(0)), g.Operand(in.Arg(1)), g.Operand(in.Arg(2))))
	case spirv.OpConvertFToU, spirv.OpConvertFToS, spirv.OpFConvert:
		g.Bind(in, g.TypeName(in.ResultType)+"("+g.Expr(in.Arg(0))+")")
	case spirv.OpConvertSToF, spirv.OpSConvert:
		g.Bind(in, g.TypeName(in.ResultType)+"("+g.typedOperand(in.Arg(0), ir.BaseInt)+")")
	case spirv.OpConvertUToF, spirv.OpUConvert:
		g.Bind(in, g.TypeName(in.ResultType)+"("+g.typedOperand(in.Arg(0), ir.BaseUInt)+")")
	case spirv.OpBitcast:
		src := g.M.Type(g.M.TypeOf(in.Arg(0)))
		g.Bind(in, g.D.Bitcast(g, g.M.Type(in.ResultType), src, g.Expr(in.Arg(0))))
	case spirv.OpExtInst:
		return g.emitExtInst(in)
	case spirv.OpFunctionCall:
		return g.emitCall(in)
	default:
		if op, ok := binaryOperators[in.Op]; ok {
			g.Bind(in, g.binary(in, op))
			return nil
		}
		if op, ok := comparisonOperators[in.Op]; ok {
			g.Bind(in, g.compare(in, op))
			return nil
		}
		return cross.Unsupported("opcode %s is not supported", in.Op)
	}
	return nil
}

var unaryFunctions = map[spirv.OpCode]string{
	spirv.OpAny:        "any",
	spirv.OpAll:        "all",
	spirv.OpIsNan:      "isnan",
	spirv.OpIsInf:      "isinf",
	spirv.OpDPdx:       "dFdx",
	spirv.OpDPdy:       "dFdy",
	spirv.OpFwidth:     "fwidth",
	spirv.OpBitCount:   "bitCount",
	spirv.OpBitReverse: "bitfieldReverse",
}

// valueTemporary declares a temporary initialized to init for a result
// that is built by several statements.
func (g *Generator) valueTemporary(in *ir.Instruction, init string) string {
	name := g.ValueName(in.Result)
	if g.Info.Hoisted(in.Result) {
		g.Out.Line("%s = %s;", name, init)
	} else {
		g.Out.Line("%s = %s;", g.Declare(in.ResultType, name), init)
	}
	g.exprs[in.Result] = name
	return name
}

func (g *Generator) call(fn string, args ...ir.ID) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.Expr(a)
	}
	return fn + "(" + strings.Join(parts, ", ") + ")"
}

// SameShape returns a type of t's shape with another component base.
func SameShape(t *ir.Type, base ir.BaseType) *ir.Type {
	out := *t
	out.Base = base
	out.Array = nil
	out.ArrayLiteral = nil
	out.Pointer = false
	out.Self = 0
	return &out
}

// typedOperand returns the expression of an integer operand reinterpreted
// with the wanted signedness.
func (g *Generator) typedOperand(id ir.ID, want ir.BaseType) string {
	t := g.M.Type(g.M.TypeOf(id))
	if t == nil || !t.IsInteger() || t.Base == want || want == ir.BaseUnknown {
		return g.Operand(id)
	}
	return g.D.Bitcast(g, SameShape(t, want), t, g.Expr(id))
}

// castResult converts expr, computed with signedness from, back to the
// result type.
func (g *Generator) castResult(resultType ir.ID, from ir.BaseType, expr string) string {
	t := g.M.Type(resultType)
	if !t.IsInteger() || t.Base == from {
		return expr
	}
	return g.D.Bitcast(g, t, SameShape(t, from), expr)
}

func (g *Generator) binary(in *ir.Instruction, op string) string {
	rt := g.M.Type(in.ResultType)
	want, signed := signedness[in.Op]
	if !signed && rt.IsInteger() {
		want = rt.Base
	}
	a := g.typedOperand(in.Arg(0), want)
	b := g.Operand(in.Arg(1))
	// Shift amounts keep their own type.
	if in.Op != spirv.OpShiftLeftLogical && in.Op != spirv.OpShiftRightLogical && in.Op != spirv.OpShiftRightArithmetic {
		b = g.typedOperand(in.Arg(1), want)
	}
	expr := a + " " + op + " " + b
	if signed {
		return g.castResult(in.ResultType, want, expr)
	}
	return expr
}

func (g *Generator) compare(in *ir.Instruction, op string) string {
	opType := g.M.TypeOf(in.Arg(0))
	want, ok := signedness[in.Op]
	if !ok {
		if t := g.M.Type(opType); t.IsInteger() {
			want = t.Base
		}
	}
	a := g.typedOperand(in.Arg(0), want)
	b := g.typedOperand(in.Arg(1), want)
	return g.D.Compare(g, op, opType, a, b)
}

func (g *Generator) emitConstruct(in *ir.Instruction) error {
	t := g.M.Type(in.ResultType)
	parts := make([]string, len(in.Args))
	for i := range in.Args {
		parts[i] = g.Expr(in.Arg(i))
	}
	if t.VecSize > 1 && t.Columns == 1 && !t.IsArray() && len(parts) == 1 {
		if st := g.M.Type(g.M.TypeOf(in.Arg(0))); st != nil && st.VecSize == 1 {
			g.Bind(in, g.Splat(in.ResultType, parts[0]))
			return nil
		}
	}
	expr, initOnly := g.D.Construct(g, in.ResultType, parts)
	g.bind(in.Result, in.ResultType, expr, initOnly)
	return nil
}

// extract spells a composite extraction by literal indices.
func (g *Generator) extract(composite ir.ID, indices []uint32) string {
	return g.path(g.Operand(composite), g.M.TypeOf(composite), indices)
}

func (g *Generator) path(base string, typeID ir.ID, indices []uint32) string {
	expr := base
	cur := typeID
	for _, idx := range indices {
		t := g.M.Type(cur)
		switch {
		case t.IsArray(), t.Columns > 1:
			expr += "[" + uitoa(idx) + "]"
			cur = t.Parent
		case t.Base == ir.BaseStruct:
			expr = g.D.MemberAccess(g, expr, t.Self, int(idx), nil)
			cur = g.M.Type(t.Self).MemberTypes[idx]
		case t.VecSize > 1:
			expr += "." + swizzle[idx:idx+1]
			cur = t.Parent
		}
	}
	return expr
}

func (g *Generator) shuffle(in *ir.Instruction) string {
	a, b := in.Arg(0), in.Arg(1)
	n := g.M.Type(g.M.TypeOf(a)).VecSize
	comps := in.Args[2:]
	if a == b || allBelow(comps, n) {
		var sb strings.Builder
		for _, c := range comps {
			if c == 0xFFFFFFFF {
				c = 0
			}
			sb.WriteByte(swizzle[c%n])
		}
		return g.Operand(a) + "." + sb.String()
	}
	parts := make([]string, len(comps))
	for i, c := range comps {
		switch {
		case c == 0xFFFFFFFF:
			parts[i] = g.Operand(a) + ".x"
		case c < n:
			parts[i] = g.Operand(a) + "." + swizzle[c:c+1]
		default:
			parts[i] = g.Operand(b) + "." + swizzle[c-n:c-n+1]
		}
	}
	return g.TypeName(in.ResultType) + "(" + strings.Join(parts, ", ") + ")"
}

func allBelow(comps []uint32, n uint32) bool {
	for _, c := range comps {
		if c != 0xFFFFFFFF && c >= n {
			return false
		}
	}
	return true
}

func (g *Generator) emitAccessChain(in *ir.Instruction) error {
	base := in.Arg(0)
	chain := &Chain{Root: base, Member: -1}
	if parent := g.chains[base]; parent != nil {
		*chain = *parent
		chain.Indices = append([]ir.ID(nil), parent.Indices...)
	}
	expr := g.Expr(base)
	cur := g.M.PointeeType(base)
	for i := 1; i < len(in.Args); i++ {
		idx := in.Arg(i)
		t := g.M.Type(cur)
		if t == nil {
			return cross.Invalid("access chain %d indexes a non-composite", in.Result)
		}
		chain.Indices = append(chain.Indices, idx)
		if t.Base == ir.BaseStruct && !t.IsArray() {
			k := g.M.Constant(idx)
			if k == nil {
				return cross.Invalid("access chain %d selects a struct member with a non-constant index", in.Result)
			}
			member := int(k.ScalarU32())
			expr = g.D.MemberAccess(g, expr, t.Self, member, chain)
			chain.Struct = t.Self
			chain.Member = member
			chain.After = 0
			cur = g.M.Type(t.Self).MemberTypes[member]
			continue
		}
		expr += "[" + g.Expr(idx) + "]"
		chain.After++
		cur = g.M.ElementType(cur, idx)
	}
	g.chains[in.Result] = chain
	g.exprs[in.Result] = expr
	return nil
}

func (g *Generator) emitExtInst(in *ir.Instruction) error {
	set := g.M.ExtInstImports[in.Arg(0)]
	if set != spirv.ExtInstSetGLSL450 {
		return cross.Unsupported("extended instruction set %q is not supported", set)
	}
	inst := spirv.GLSLstd450(in.Args[1])
	desc, ok := glslStd450[inst]
	if !ok {
		return cross.Unsupported("GLSL.std.450 instruction %d is not supported", inst)
	}
	args := in.Args[2:]
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.typedOperandOrExpr(ir.ID(a), desc.sign)
	}
	expr := g.D.FunctionName(desc.name) + "(" + strings.Join(parts, ", ") + ")"
	if desc.sign != ir.BaseUnknown {
		expr = g.castResult(in.ResultType, desc.sign, expr)
	}
	g.Bind(in, expr)
	return nil
}

func (g *Generator) typedOperandOrExpr(id ir.ID, want ir.BaseType) string {
	if want == ir.BaseUnknown {
		return g.Expr(id)
	}
	t := g.M.Type(g.M.TypeOf(id))
	if t == nil || !t.IsInteger() || t.Base == want {
		return g.Expr(id)
	}
	return g.D.Bitcast(g, SameShape(t, want), t, g.Expr(id))
}

// ExtInstArgs returns the expressions of the operands of a GLSL.std.450
// instruction.
func (g *Generator) ExtInstArgs(in *ir.Instruction) []string {
	args := in.Args[2:]
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = g.Expr(ir.ID(a))
	}
	return parts
}

func (g *Generator) emitCall(in *ir.Instruction) error {
	callee := in.Arg(0)
	args := make([]string, 0, len(in.Args)-1)
	for i := 1; i < len(in.Args); i++ {
		args = append(args, g.Expr(in.Arg(i)))
	}
	expr := g.FunctionName(callee) + "(" + strings.Join(g.D.CallArgs(g, callee, args), ", ") + ")"
	rt := g.M.Type(in.ResultType)
	if rt == nil || rt.Base == ir.BaseVoid || g.Info.Uses[in.Result] == 0 {
		g.Out.Line("%s;", expr)
		return nil
	}
	g.BindTemporary(in, expr)
	return nil
}
