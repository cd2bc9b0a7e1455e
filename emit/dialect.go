package emit

import (
	"strings"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// Dialect supplies the target-specific parts of emission. Embed Base to
// inherit the C-like defaults and override what differs.
type Dialect interface {
	// TypeName spells t without array dimensions.
	TypeName(g *Generator, t *ir.Type) string
	// FunctionName maps a GLSL built-in function name to the target's.
	FunctionName(name string) string
	// Bitcast reinterprets expr, of type src, as dst.
	Bitcast(g *Generator, dst, src *ir.Type, expr string) string
	// Construct builds a composite. initOnly reports syntax that is only
	// valid as a declaration initializer.
	Construct(g *Generator, typeID ir.ID, parts []string) (expr string, initOnly bool)
	// MatrixMultiply spells one of the matrix products.
	MatrixMultiply(g *Generator, op spirv.OpCode, lhs, rhs string) string
	// Select spells a component-wise or scalar selection.
	Select(g *Generator, resultType ir.ID, cond, a, b string) string
	// Compare spells a relational operator applied to operands of
	// operandType; vector comparisons differ between languages.
	Compare(g *Generator, op string, operandType ir.ID, a, b string) string
	// LogicalNot spells a boolean negation of operandType.
	LogicalNot(g *Generator, operandType ir.ID, expr string) string
	// VariableExpr overrides how a module-scope variable is referenced.
	VariableExpr(g *Generator, id ir.ID) (string, bool)
	// MemberAccess spells the selection of member index of a struct.
	MemberAccess(g *Generator, base string, structID ir.ID, index int, chain *Chain) string
	// LoadExpr wraps the expression read through ptr.
	LoadExpr(g *Generator, ptr ir.ID, expr string) string
	// Store writes the statements storing rhs through ptr.
	Store(g *Generator, ptr ir.ID, lhs, rhs string) error
	// Lower handles instructions whose spelling is entirely target
	// specific: images, atomics, barriers and helpers. handled is false
	// for instructions left to the generator.
	Lower(g *Generator, in *ir.Instruction) (handled bool, err error)
	// FunctionSignature spells the declaration line of fn.
	FunctionSignature(g *Generator, fn *ir.Function) (string, error)
	// CallArgs returns the full argument list of a call to callee.
	CallArgs(g *Generator, callee ir.ID, args []string) []string
	// EntryPrologue writes statements at the top of the entry function.
	EntryPrologue(g *Generator) error
	// Return writes a return statement. value is empty for void returns.
	Return(g *Generator, value string)
	// Kill spells a fragment discard statement.
	Kill() string
}

// Base implements the C-like defaults of Dialect. Its methods reach the
// full dialect through g.D, so overrides in the embedding type apply.
type Base struct{}

// FunctionName returns name unchanged.
func (Base) FunctionName(name string) string { return name }

// Bitcast spells a constructor conversion, which is a reinterpretation
// for integer types of equal width.
func (Base) Bitcast(g *Generator, dst, _ *ir.Type, expr string) string {
	return g.D.TypeName(g, dst) + "(" + expr + ")"
}

// Construct spells T(a, b, ...).
func (Base) Construct(g *Generator, typeID ir.ID, parts []string) (string, bool) {
	return g.TypeName(typeID) + "(" + strings.Join(parts, ", ") + ")", false
}

// MatrixMultiply spells lhs * rhs.
func (Base) MatrixMultiply(_ *Generator, _ spirv.OpCode, lhs, rhs string) string {
	return lhs + " * " + rhs
}

// Select spells cond ? a : b.
func (Base) Select(_ *Generator, _ ir.ID, cond, a, b string) string {
	return cond + " ? " + a + " : " + b
}

// Compare spells the infix operator.
func (Base) Compare(_ *Generator, op string, _ ir.ID, a, b string) string {
	return a + " " + op + " " + b
}

// LogicalNot spells !expr.
func (Base) LogicalNot(_ *Generator, _ ir.ID, expr string) string { return "!" + expr }

// VariableExpr uses the assigned name.
func (Base) VariableExpr(*Generator, ir.ID) (string, bool) { return "", false }

// MemberAccess spells base.member.
func (Base) MemberAccess(g *Generator, base string, structID ir.ID, index int, _ *Chain) string {
	return base + "." + g.MemberName(structID, index)
}

// LoadExpr returns expr unchanged.
func (Base) LoadExpr(_ *Generator, _ ir.ID, expr string) string { return expr }

// Store writes lhs = rhs;.
func (Base) Store(g *Generator, _ ir.ID, lhs, rhs string) error {
	g.Out.Line("%s = %s;", lhs, rhs)
	return nil
}

// Lower handles nothing; images and atomics are unsupported by default.
func (Base) Lower(_ *Generator, in *ir.Instruction) (bool, error) {
	if in.Op.IsAtomic() || in.Op.IsImageSample() {
		return false, cross.Unsupported("%s is not supported by this target", in.Op)
	}
	return false, nil
}

// FunctionSignature spells "ret name(T a, inout T b)".
func (Base) FunctionSignature(g *Generator, fn *ir.Function) (string, error) {
	params := make([]string, 0, len(fn.Parameters))
	for _, p := range fn.Parameters {
		t := g.M.Type(p.Type)
		name := g.ValueName(p.ID)
		if t.Pointer {
			params = append(params, "inout "+g.Declare(t.Parent, name))
			continue
		}
		params = append(params, g.Declare(p.Type, name))
	}
	return g.TypeName(fn.ReturnType) + " " + g.FunctionName(fn.Self) + "(" + strings.Join(params, ", ") + ")", nil
}

// CallArgs returns args unchanged.
func (Base) CallArgs(_ *Generator, _ ir.ID, args []string) []string { return args }

// EntryPrologue writes nothing.
func (Base) EntryPrologue(*Generator) error { return nil }

// Return writes return [value];. A void return ending the function body
// is omitted.
func (Base) Return(g *Generator, value string) {
	if value == "" {
		if !g.Nested() {
			return
		}
		g.Out.Line("return;")
		return
	}
	g.Out.Line("return %s;", value)
}

// Kill spells discard;.
func (Base) Kill() string { return "discard;" }
