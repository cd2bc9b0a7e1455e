// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package hlsl

import (
	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/emit"
	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// HLSL atomic intrinsic names.
const (
	hlslInterlockedAdd             = "InterlockedAdd"
	hlslInterlockedCompareExchange = "InterlockedCompareExchange"
)

var atomicFunctions = map[spirv.OpCode]string{
	spirv.OpAtomicExchange: "InterlockedExchange",
	spirv.OpAtomicIAdd:     hlslInterlockedAdd,
	spirv.OpAtomicSMin:     "InterlockedMin",
	spirv.OpAtomicUMin:     "InterlockedMin",
	spirv.OpAtomicSMax:     "InterlockedMax",
	spirv.OpAtomicUMax:     "InterlockedMax",
	spirv.OpAtomicAnd:      "InterlockedAnd",
	spirv.OpAtomicOr:       "InterlockedOr",
	spirv.OpAtomicXor:      "InterlockedXor",
}

// lowerAtomic spells atomics as Interlocked calls, which return the
// original value through a trailing out parameter.
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
	call := func(fn string, args ...string) {
		line := fn + "(" + mem
		for _, a := range args {
			line += ", " + a
		}
		if g.Info.Uses[in.Result] > 0 || in.Op == spirv.OpAtomicCompareExchange || in.Op == spirv.OpAtomicCompareExchangeWeak {
			line += ", " + g.DeclareTemporary(in.Result, in.ResultType)
		}
		g.Out.Line("%s);", line)
	}

	switch in.Op {
	case spirv.OpAtomicLoad:
		g.BindTemporary(in, mem)
	case spirv.OpAtomicStore:
		g.Out.Line("%s = %s;", mem, g.Expr(in.Arg(3)))
	case spirv.OpAtomicIIncrement:
		call(hlslInterlockedAdd, "1")
	case spirv.OpAtomicIDecrement:
		minus := "-1"
		if t.Base == ir.BaseUInt {
			minus = "uint(-1)"
		}
		call(hlslInterlockedAdd, minus)
	case spirv.OpAtomicISub:
		call(hlslInterlockedAdd, "-"+g.Operand(in.Arg(3)))
	case spirv.OpAtomicCompareExchange, spirv.OpAtomicCompareExchangeWeak:
		call(hlslInterlockedCompareExchange, g.Expr(in.Arg(5)), g.Expr(in.Arg(4)))
	default:
		fn, ok := atomicFunctions[in.Op]
		if !ok {
			return cross.Unsupported("%s is not supported", in.Op)
		}
		call(fn, g.Expr(in.Arg(3)))
	}
	return nil
}
