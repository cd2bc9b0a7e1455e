package msl

import (
	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

const memoryOrder = "memory_order_relaxed"

var atomicFunctions = map[spirv.OpCode]string{
	spirv.OpAtomicExchange:   "atomic_exchange_explicit",
	spirv.OpAtomicIIncrement: "atomic_fetch_add_explicit",
	spirv.OpAtomicIDecrement: "atomic_fetch_sub_explicit",
	spirv.OpAtomicIAdd:       "atomic_fetch_add_explicit",
	spirv.OpAtomicISub:       "atomic_fetch_sub_explicit",
	spirv.OpAtomicSMin:       "atomic_fetch_min_explicit",
	spirv.OpAtomicUMin:       "atomic_fetch_min_explicit",
	spirv.OpAtomicSMax:       "atomic_fetch_max_explicit",
	spirv.OpAtomicUMax:       "atomic_fetch_max_explicit",
	spirv.OpAtomicAnd:        "atomic_fetch_and_explicit",
	spirv.OpAtomicOr:         "atomic_fetch_or_explicit",
	spirv.OpAtomicXor:        "atomic_fetch_xor_explicit",
}

// atomicPointer casts the address of a plain integer to an atomic
// pointer in the address space of its variable.
func (w *writer) atomicPointer(g *emit.Generator, in *ir.Instruction) (string, error) {
	ptr := in.Arg(0)
	space := "device"
	if v := g.M.Variable(g.RootVariable(ptr)); v != nil {
		switch v.Storage {
		case spirv.StorageClassWorkgroup:
			space = "threadgroup"
		case spirv.StorageClassStorageBuffer, spirv.StorageClassUniform:
		default:
			return "", cross.Unsupported("atomics on %s variables", v.Storage)
		}
	}
	t := g.M.Type(g.M.PointeeType(ptr))
	if t == nil || !t.IsScalar() || !t.IsInteger() {
		return "", cross.Unsupported("atomics on non-integer values")
	}
	typ := atomicTypeName(t)
	switch in.Op {
	case spirv.OpAtomicSMin, spirv.OpAtomicSMax:
		typ = "atomic_int"
	case spirv.OpAtomicUMin, spirv.OpAtomicUMax:
		typ = "atomic_uint"
	}
	return "(" + space + " " + typ + "*)&" + g.Expr(ptr), nil
}

func (w *writer) lowerAtomic(g *emit.Generator, in *ir.Instruction) error {
	p, err := w.atomicPointer(g, in)
	if err != nil {
		return err
	}
	result := func(expr string) {
		if g.Info.Uses[in.Result] == 0 {
			g.Out.Line("%s;", expr)
			return
		}
		g.BindTemporary(in, expr)
	}
	switch in.Op {
	case spirv.OpAtomicLoad:
		result("atomic_load_explicit(" + p + ", " + memoryOrder + ")")
	case spirv.OpAtomicStore:
		g.Out.Line("atomic_store_explicit(%s, %s, %s);", p, g.Expr(in.Arg(3)), memoryOrder)
	case spirv.OpAtomicIIncrement, spirv.OpAtomicIDecrement:
		result(atomicFunctions[in.Op] + "(" + p + ", 1, " + memoryOrder + ")")
	case spirv.OpAtomicCompareExchange:
		value, comparator := g.Expr(in.Arg(4)), g.Expr(in.Arg(5))
		name := g.DeclareTemporary(in.Result, in.ResultType)
		g.Out.Line("do")
		g.Out.Begin()
		g.Out.Line("%s = %s;", name, comparator)
		g.Out.End(" while (!atomic_compare_exchange_weak_explicit(" + p + ", &" + name + ", " + value + ", " +
			memoryOrder + ", " + memoryOrder + ") && " + name + " == " + emit.Enclose(comparator) + ");")
	case spirv.OpAtomicCompareExchangeWeak:
		value, comparator := g.Expr(in.Arg(4)), g.Expr(in.Arg(5))
		g.BindTemporary(in, comparator)
		name := g.Expr(in.Result)
		g.Out.Line("atomic_compare_exchange_weak_explicit(%s, &%s, %s, %s, %s);", p, name, value, memoryOrder, memoryOrder)
	default:
		fn, ok := atomicFunctions[in.Op]
		if !ok {
			return cross.Unsupported("%s is not supported", in.Op)
		}
		result(fn + "(" + p + ", " + g.Expr(in.Arg(3)) + ", " + memoryOrder + ")")
	}
	return nil
}
