// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

var atomicFunctions = map[spirv.OpCode]string{
	spirv.OpAtomicExchange: "atomicExchange",
	spirv.OpAtomicIAdd:     "atomicAdd",
	spirv.OpAtomicSMin:     "atomicMin",
	spirv.OpAtomicUMin:     "atomicMin",
	spirv.OpAtomicSMax:     "atomicMax",
	spirv.OpAtomicUMax:     "atomicMax",
	spirv.OpAtomicAnd:      "atomicAnd",
	spirv.OpAtomicOr:       "atomicOr",
	spirv.OpAtomicXor:      "atomicXor",
}

func (w *writer) lowerAtomic(g *emit.Generator, in *ir.Instruction) error {
	ptr := in.Arg(0)
	if v := g.M.Variable(g.RootVariable(ptr)); v != nil {
		switch v.Storage {
		case spirv.StorageClassWorkgroup, spirv.StorageClassStorageBuffer, spirv.StorageClassUniform:
		default:
			return cross.Unsupported("atomics on %s variables", v.Storage)
		}
	}
	t := g.M.Type(g.M.PointeeType(ptr))
	if t == nil || !t.IsScalar() || !t.IsInteger() {
		return cross.Unsupported("atomics on non-integer values")
	}
	mem := g.Expr(ptr)
	one := "1"
	if t.Base == ir.BaseUInt {
		one = "1u"
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
		result(mem)
	case spirv.OpAtomicStore:
		g.Out.Line("%s = %s;", mem, g.Expr(in.Arg(3)))
	case spirv.OpAtomicIIncrement:
		result("atomicAdd(" + mem + ", " + one + ")")
	case spirv.OpAtomicIDecrement:
		minus := "-1"
		if t.Base == ir.BaseUInt {
			minus = "uint(-1)"
		}
		result("atomicAdd(" + mem + ", " + minus + ")")
	case spirv.OpAtomicISub:
		result("atomicAdd(" + mem + ", -" + g.Operand(in.Arg(3)) + ")")
	case spirv.OpAtomicCompareExchange, spirv.OpAtomicCompareExchangeWeak:
		result("atomicCompSwap(" + mem + ", " + g.Expr(in.Arg(5)) + ", " + g.Expr(in.Arg(4)) + ")")
	default:
		fn, ok := atomicFunctions[in.Op]
		if !ok {
			return cross.Unsupported("%s is not supported", in.Op)
		}
		result(fn + "(" + mem + ", " + g.Expr(in.Arg(3)) + ")")
	}
	return nil
}
