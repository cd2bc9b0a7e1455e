package emit

import (
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/spvcross/ir"
)

func uitoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

// NamedConstant reports constants referenced by name rather than spelled
// inline: specialization constants and array or struct composites, which
// backends declare at module scope.
func (g *Generator) NamedConstant(id ir.ID) bool {
	k := g.M.Constant(id)
	if k == nil {
		return false
	}
	if k.Specialization {
		return true
	}
	t := g.M.Type(k.Type)
	return t.IsArray() || t.Base == ir.BaseStruct
}

// ConstantExpr spells a constant as an expression.
func (g *Generator) ConstantExpr(id ir.ID) string {
	k := g.M.Constant(id)
	if k == nil {
		return g.ValueName(id)
	}
	return g.constantValue(k.Type, k)
}

// ZeroExpr spells the zero value of a type.
func (g *Generator) ZeroExpr(typeID ir.ID) string {
	return g.constantValue(typeID, nil)
}

// constantValue spells the constant k of typeID; a nil k is a null value.
func (g *Generator) constantValue(typeID ir.ID, k *ir.Constant) string {
	t := g.M.Type(typeID)
	null := k == nil || k.Null
	switch {
	case t.IsArray():
		n, _, _ := g.M.ArrayDimension(t, len(t.Array)-1)
		parts := make([]string, n)
		for i := range parts {
			if null || i >= len(k.Subconstants) {
				parts[i] = g.ZeroExpr(t.Parent)
			} else {
				parts[i] = g.Expr(k.Subconstants[i])
			}
		}
		expr, _ := g.D.Construct(g, typeID, parts)
		return expr
	case t.Base == ir.BaseStruct:
		members := g.M.Type(t.Self).MemberTypes
		parts := make([]string, len(members))
		for i, mt := range members {
			if null || i >= len(k.Subconstants) {
				parts[i] = g.ZeroExpr(mt)
			} else {
				parts[i] = g.Expr(k.Subconstants[i])
			}
		}
		expr, _ := g.D.Construct(g, typeID, parts)
		return expr
	case t.Columns > 1:
		cols := make([]string, t.Columns)
		for c := range cols {
			switch {
			case null:
				cols[c] = g.ZeroExpr(t.Parent)
			case len(k.Subconstants) > c:
				cols[c] = g.Expr(k.Subconstants[c])
			default:
				cols[c] = g.vectorLiteral(t.Parent, k.Values[c])
			}
		}
		return g.TypeName(typeID) + "(" + strings.Join(cols, ", ") + ")"
	case t.VecSize > 1:
		if null {
			return g.Splat(typeID, g.scalarLiteral(t, 0))
		}
		if len(k.Subconstants) > 0 {
			parts := make([]string, len(k.Subconstants))
			splat := true
			for i, s := range k.Subconstants {
				parts[i] = g.Expr(s)
				splat = splat && parts[i] == parts[0]
			}
			if splat {
				return g.Splat(typeID, parts[0])
			}
			return g.TypeName(typeID) + "(" + strings.Join(parts, ", ") + ")"
		}
		return g.vectorLiteral(typeID, k.Values[0])
	}
	if null {
		return g.scalarLiteral(t, 0)
	}
	return g.scalarLiteral(t, k.Scalar())
}

// Splat spells a vector of typeID with every component set to scalar.
func (g *Generator) Splat(typeID ir.ID, scalar string) string {
	if g.Style.SwizzleSplat {
		return Enclose(scalar) + "." + strings.Repeat("x", int(g.M.Type(typeID).VecSize))
	}
	return g.TypeName(typeID) + "(" + scalar + ")"
}

func (g *Generator) vectorLiteral(typeID ir.ID, values []uint64) string {
	t := g.M.Type(typeID)
	parts := make([]string, len(values))
	splat := true
	for i, v := range values {
		parts[i] = g.scalarLiteral(t, v)
		if v != values[0] {
			splat = false
		}
	}
	if splat && len(parts) > 0 {
		return g.Splat(typeID, parts[0])
	}
	return g.TypeName(typeID) + "(" + strings.Join(parts, ", ") + ")"
}

// scalarLiteral spells raw constant bits as a literal of t's component
// type.
func (g *Generator) scalarLiteral(t *ir.Type, bits uint64) string {
	switch t.Base {
	case ir.BaseBool:
		if bits != 0 {
			return "true"
		}
		return "false"
	case ir.BaseUInt:
		if t.Width == 64 {
			return strconv.FormatUint(bits, 10) + "ul"
		}
		return strconv.FormatUint(uint64(uint32(bits)), 10) + "u" //nolint:gosec // G115: 32-bit payload
	case ir.BaseInt:
		if t.Width == 64 {
			return strconv.FormatInt(int64(bits), 10) + "l" //nolint:gosec // G115: bit reinterpretation
		}
		v := int32(uint32(bits)) //nolint:gosec // G115: bit reinterpretation
		if v == math.MinInt32 {
			return "int(0x80000000)"
		}
		return strconv.FormatInt(int64(v), 10)
	case ir.BaseFloat:
		if t.Width == 64 {
			return floatLiteral(math.Float64frombits(bits), 64, g.Style.DoubleSuffix)
		}
		return floatLiteral(float64(math.Float32frombits(uint32(bits))), 32, g.Style.FloatSuffix) //nolint:gosec // G115: 32-bit payload
	}
	return strconv.FormatUint(bits, 10)
}

func floatLiteral(v float64, bits int, suffix string) string {
	switch {
	case math.IsNaN(v):
		return "(0.0" + suffix + " / 0.0" + suffix + ")"
	case math.IsInf(v, 1):
		return "(1.0" + suffix + " / 0.0" + suffix + ")"
	case math.IsInf(v, -1):
		return "(-1.0" + suffix + " / 0.0" + suffix + ")"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s + suffix
}
