package emit

import (
	"strings"

	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Style holds literal spelling differences between targets.
type Style struct {
	// FloatSuffix follows 32-bit float literals, as in "1.0f".
	FloatSuffix string
	// DoubleSuffix follows 64-bit float literals, as in "1.0lf".
	DoubleSuffix string
	// SwizzleSplat spells vector splats as x.xxxx instead of a
	// one-argument constructor.
	SwizzleSplat bool
}

// Chain describes the pointer produced by an access chain.
type Chain struct {
	// Root is the variable or pointer parameter the chain starts from.
	Root ir.ID
	// Indices are all indices applied from Root.
	Indices []ir.ID
	// Struct and Member name the last struct member selected; Member is
	// -1 when no member was selected.
	Struct ir.ID
	Member int
	// After counts the indices applied after that member selection.
	After int
}

// Generator emits function bodies in a C-like language.
type Generator struct {
	C     *cross.Compiler
	M     *ir.Module
	D     Dialect
	Names *Namer
	Out   *Buffer
	Style Style

	log *zap.Logger

	// Fn is the function being emitted and Info its forwarding analysis.
	Fn      *ir.Function
	Info    *FunctionInfo
	IsEntry bool

	exprs  map[ir.ID]string
	chains map[ir.ID]*Chain
	flow   []flowContext
	active map[ir.ID]bool
}

// NewGenerator creates a generator writing to out.
func NewGenerator(c *cross.Compiler, d Dialect, names *Namer, out *Buffer, style Style) *Generator {
	return &Generator{
		C:     c,
		M:     c.Module(),
		D:     d,
		Names: names,
		Out:   out,
		Style: style,
		log:   c.Logger(),
	}
}

// Logger returns the diagnostics logger.
func (g *Generator) Logger() *zap.Logger { return g.log }

// TypeName spells a type without array dimensions.
func (g *Generator) TypeName(typeID ir.ID) string {
	t := g.M.Type(typeID)
	if t == nil {
		return "void"
	}
	return g.D.TypeName(g, t)
}

// ArraySuffix spells the array dimensions of a type, outermost first.
func (g *Generator) ArraySuffix(typeID ir.ID) string {
	t := g.M.Type(typeID)
	if t == nil || !t.IsArray() {
		return ""
	}
	var sb strings.Builder
	for i := len(t.Array) - 1; i >= 0; i-- {
		sb.WriteByte('[')
		switch {
		case !t.ArrayLiteral[i]:
			sb.WriteString(g.Expr(ir.ID(t.Array[i])))
		case t.Array[i] != 0:
			sb.WriteString(uitoa(t.Array[i]))
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// Declare spells "T name[dims]".
func (g *Generator) Declare(typeID ir.ID, name string) string {
	return g.TypeName(typeID) + " " + name + g.ArraySuffix(typeID)
}

// ValueName returns the identifier of a value, variable or function
// parameter, assigning it from the debug name on first use.
func (g *Generator) ValueName(id ir.ID) string {
	return g.Names.Name(id, g.M.Name(id))
}

// FunctionName returns the identifier of a function.
func (g *Generator) FunctionName(id ir.ID) string {
	return g.Names.Name(id, g.M.Name(id))
}

// MemberName returns the identifier of a struct member.
func (g *Generator) MemberName(structID ir.ID, index int) string {
	structID = g.M.Type(structID).Self
	return g.Names.Member(structID, index, g.M.MemberName(structID, index))
}

// Chain returns the access chain information of a pointer, or nil.
func (g *Generator) Chain(ptr ir.ID) *Chain { return g.chains[ptr] }

// RootVariable returns the variable a pointer ultimately refers to.
func (g *Generator) RootVariable(ptr ir.ID) ir.ID {
	if c := g.chains[ptr]; c != nil {
		return c.Root
	}
	return ptr
}

// Bind makes expr the expression of a result, declaring a temporary unless
// the analysis forwards it.
func (g *Generator) Bind(in *ir.Instruction, expr string) {
	g.bind(in.Result, in.ResultType, expr, false)
}

// BindTemporary always declares a temporary for the result.
func (g *Generator) BindTemporary(in *ir.Instruction, expr string) {
	g.bind(in.Result, in.ResultType, expr, true)
}

// SetExpression records the expression of a result without emitting
// anything. Backends use it after writing their own statements.
func (g *Generator) SetExpression(id ir.ID, expr string) { g.exprs[id] = expr }

func (g *Generator) bind(id, typeID ir.ID, expr string, forceTemp bool) {
	if id == 0 {
		return
	}
	if !forceTemp && g.Info.Forwarded(id) {
		g.exprs[id] = expr
		return
	}
	name := g.ValueName(id)
	if g.Info.Hoisted(id) {
		g.Out.Line("%s = %s;", name, expr)
	} else {
		g.Out.Line("%s = %s;", g.Declare(typeID, name), expr)
	}
	g.exprs[id] = name
}

// DeclareTemporary declares an uninitialized temporary for a result and
// returns its name. Hoisted results are already declared.
func (g *Generator) DeclareTemporary(id, typeID ir.ID) string {
	name := g.ValueName(id)
	if !g.Info.Hoisted(id) {
		g.Out.Line("%s;", g.Declare(typeID, name))
	}
	g.exprs[id] = name
	return name
}

// Expr returns the expression text of any ID usable as a value.
func (g *Generator) Expr(id ir.ID) string {
	if e, ok := g.exprs[id]; ok {
		return e
	}
	switch g.M.Kind(id) {
	case ir.KindVariable:
		if e, ok := g.D.VariableExpr(g, id); ok {
			return e
		}
		return g.ValueName(id)
	case ir.KindConstant:
		if g.NamedConstant(id) {
			return g.ValueName(id)
		}
		return g.ConstantExpr(id)
	}
	return g.ValueName(id)
}

// Operand returns Expr(id) parenthesized when it is not a primary
// expression.
func (g *Generator) Operand(id ir.ID) string { return Enclose(g.Expr(id)) }

// Enclose parenthesizes expr when it contains a top-level space or starts
// with a unary operator.
func Enclose(expr string) string {
	if expr == "" {
		return expr
	}
	if c := expr[0]; c == '-' || c == '!' || c == '~' {
		return "(" + expr + ")"
	}
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ' ':
			if depth == 0 {
				return "(" + expr + ")"
			}
		}
	}
	return expr
}

// Nested reports whether emission is inside a control flow construct.
func (g *Generator) Nested() bool { return len(g.flow) > 0 }

// FunctionOrder returns the functions reachable from the entry point with
// every callee before its callers, the entry point last.
func (g *Generator) FunctionOrder() []ir.ID {
	ep := g.C.EntryPoint()
	if ep == nil {
		return nil
	}
	var order []ir.ID
	seen := make(map[ir.ID]bool)
	var visit func(fn ir.ID)
	visit = func(fn ir.ID) {
		if seen[fn] {
			return
		}
		seen[fn] = true
		f := g.M.Function(fn)
		if f == nil {
			return
		}
		for _, bid := range f.Blocks {
			blk := g.M.Block(bid)
			for i := range blk.Ops {
				if blk.Ops[i].Op == spirv.OpFunctionCall {
					visit(blk.Ops[i].Arg(0))
				}
			}
		}
		order = append(order, fn)
	}
	visit(ep.Function)
	return order
}

// EmitFunction writes the definition of fn.
func (g *Generator) EmitFunction(fn *ir.Function, isEntry bool) error {
	g.Fn = fn
	g.IsEntry = isEntry
	g.Info = Analyze(g.M, fn)
	g.exprs = make(map[ir.ID]string)
	g.chains = make(map[ir.ID]*Chain)
	g.flow = nil
	g.active = make(map[ir.ID]bool)

	sig, err := g.D.FunctionSignature(g, fn)
	if err != nil {
		return err
	}
	g.Out.Line(sig)
	g.Out.Begin()
	if isEntry {
		if err := g.D.EntryPrologue(g); err != nil {
			return err
		}
	}
	for _, lv := range fn.LocalVariables {
		v := g.M.Variable(lv)
		pointee := g.M.Type(v.Type).Parent
		decl := g.Declare(pointee, g.ValueName(lv))
		switch {
		case v.Initializer != 0 && g.M.Type(pointee).IsArray() && g.M.Constant(v.Initializer) != nil:
			g.Out.Line("%s = %s;", decl, g.ConstantExpr(v.Initializer))
		case v.Initializer != 0:
			g.Out.Line("%s = %s;", decl, g.Expr(v.Initializer))
		default:
			g.Out.Line("%s;", decl)
		}
	}
	for _, id := range g.Info.HoistedTemporaries() {
		g.Out.Line("%s;", g.Declare(g.M.Values[id], g.ValueName(id)))
	}
	for _, phi := range g.Info.Phis() {
		g.Out.Line("%s;", g.Declare(phi.Type, g.ValueName(phi.Result)))
	}
	if err := g.emitBlock(fn.Entry()); err != nil {
		return err
	}
	g.Out.End("")
	g.Out.Line("")
	return nil
}
