package emit

import (
	"sort"

	"github.com/gogpu/spvcross/ir"
	"github.com/gogpu/spvcross/spirv"
)

// FunctionInfo is the forwarding analysis of one function.
type FunctionInfo struct {
	// Uses counts the references to every result, including branch
	// conditions, return values and phi inputs.
	Uses map[ir.ID]int
	// DefBlock is the block defining each result.
	DefBlock map[ir.ID]ir.ID

	forward   map[ir.ID]bool
	alias     map[ir.ID]bool
	hoisted   map[ir.ID]bool
	hoistList []ir.ID
	phis      []ir.Phi
}

// Forwarded reports whether a result is inlined at its use.
func (fi *FunctionInfo) Forwarded(id ir.ID) bool { return fi.forward[id] || fi.alias[id] }

// Alias reports whether a result is an expression that never gets a
// temporary: pointers, and image or sampler handles.
func (fi *FunctionInfo) Alias(id ir.ID) bool { return fi.alias[id] }

// Hoisted reports whether a temporary is declared in the function prologue
// because it is used outside its defining block.
func (fi *FunctionInfo) Hoisted(id ir.ID) bool { return fi.hoisted[id] }

// HoistedTemporaries lists hoisted results in ascending ID order.
func (fi *FunctionInfo) HoistedTemporaries() []ir.ID { return fi.hoistList }

// Phis lists the phi nodes of the function in block order.
func (fi *FunctionInfo) Phis() []ir.Phi { return fi.phis }

// useSite is where a result is consumed. pos is the index of the consuming
// instruction; terminator and phi uses sit at len(block.Ops).
type useSite struct {
	block ir.ID
	pos   int
}

// Analyze computes use counts and decides, for every instruction result,
// whether it is forwarded, aliased, declared in place or hoisted.
//
// A result is forwarded when it has exactly one use, in its own block, it
// has no side effects, and, if it reads memory, no side-effecting
// instruction executes between its definition and the point where the
// consuming expression is evaluated. Access chains, image and sampler
// loads, OpSampledImage and OpImage are always aliases. Non-constant
// operands of access chains are never forwarded; when such a chain is used
// outside its block those operands are hoisted with it.
func Analyze(m *ir.Module, fn *ir.Function) *FunctionInfo {
	fi := &FunctionInfo{
		Uses:     make(map[ir.ID]int),
		DefBlock: make(map[ir.ID]ir.ID),
		forward:  make(map[ir.ID]bool),
		alias:    make(map[ir.ID]bool),
		hoisted:  make(map[ir.ID]bool),
	}
	sites := make(map[ir.ID][]useSite)
	forceTemp := make(map[ir.ID]bool)
	defs := make(map[ir.ID]*ir.Instruction)
	defPos := make(map[ir.ID]int)

	use := func(id ir.ID, site useSite) {
		if id == 0 {
			return
		}
		fi.Uses[id]++
		sites[id] = append(sites[id], site)
	}

	for _, bid := range fn.Blocks {
		blk := m.Block(bid)
		for _, phi := range blk.Phis {
			fi.DefBlock[phi.Result] = bid
			fi.phis = append(fi.phis, phi)
		}
		for i := range blk.Ops {
			in := &blk.Ops[i]
			if in.Result != 0 {
				fi.DefBlock[in.Result] = bid
				defs[in.Result] = in
				defPos[in.Result] = i
			}
			for _, ref := range in.IDOperands() {
				use(ref, useSite{bid, i})
			}
			if isAliasOp(m, in) {
				fi.alias[in.Result] = true
			}
		}
		end := useSite{bid, len(blk.Ops)}
		switch blk.Terminator {
		case ir.TermSelect, ir.TermMultiSelect:
			use(blk.Condition, end)
		case ir.TermReturn:
			use(blk.ReturnValue, end)
		}
	}
	// Phi inputs are assigned at the end of the predecessor.
	for _, phi := range fi.phis {
		for _, src := range phi.Incoming {
			pred := m.Block(src.Parent)
			pos := 0
			if pred != nil {
				pos = len(pred.Ops)
			}
			use(src.Value, useSite{src.Parent, pos})
		}
	}

	crossBlock := func(id ir.ID) bool {
		for _, s := range sites[id] {
			if s.block != fi.DefBlock[id] {
				return true
			}
		}
		return false
	}

	// Operands of aliases must stay addressable wherever the alias is used.
	var pin func(id ir.ID, hoist bool)
	pin = func(id ir.ID, hoist bool) {
		in := defs[id]
		if in == nil {
			return
		}
		if fi.alias[id] {
			for _, ref := range in.IDOperands() {
				pin(ref, hoist)
			}
			return
		}
		forceTemp[id] = true
		if hoist {
			fi.hoisted[id] = true
		}
	}
	for id := range fi.alias {
		in := defs[id]
		hoist := crossBlock(id)
		for _, ref := range in.IDOperands() {
			pin(ref, hoist)
		}
	}

	for _, bid := range fn.Blocks {
		blk := m.Block(bid)
		// evalPos[i] is where op i is actually evaluated once forwarding
		// has moved it into its consumer.
		evalPos := make([]int, len(blk.Ops))
		sideEffectAfter := make([]int, len(blk.Ops)+1)
		for i := len(blk.Ops) - 1; i >= 0; i-- {
			sideEffectAfter[i] = sideEffectAfter[i+1]
			if blk.Ops[i].HasSideEffects() {
				sideEffectAfter[i]++
			}
		}
		for i := len(blk.Ops) - 1; i >= 0; i-- {
			in := &blk.Ops[i]
			evalPos[i] = i
			id := in.Result
			if id == 0 || fi.alias[id] {
				continue
			}
			if crossBlock(id) {
				fi.hoisted[id] = true
				continue
			}
			if forceTemp[id] || fi.Uses[id] != 1 || !forwardable(in) {
				continue
			}
			site := sites[id][0]
			at := site.pos
			if at < len(blk.Ops) {
				at = evalPos[at]
			}
			// Side effects strictly between the definition and the
			// evaluation point would reorder a memory read.
			if in.ReadsMemory() && sideEffectAfter[i+1]-sideEffectAfter[min(at, len(blk.Ops))] > 0 {
				continue
			}
			fi.forward[id] = true
			evalPos[i] = at
		}
	}

	for id := range fi.hoisted {
		fi.hoistList = append(fi.hoistList, id)
	}
	sort.Slice(fi.hoistList, func(i, j int) bool { return fi.hoistList[i] < fi.hoistList[j] })
	return fi
}

func isAliasOp(m *ir.Module, in *ir.Instruction) bool {
	switch in.Op {
	case spirv.OpAccessChain, spirv.OpInBoundsAccessChain, spirv.OpSampledImage, spirv.OpImage:
		return true
	case spirv.OpLoad, spirv.OpCopyObject:
		t := m.Type(in.ResultType)
		return t != nil && (t.IsOpaque() || t.Pointer)
	}
	return false
}

// forwardable reports instructions whose expression may be moved to its
// consumer.
func forwardable(in *ir.Instruction) bool {
	if in.HasSideEffects() {
		return false
	}
	switch in.Op {
	case spirv.OpCompositeInsert, spirv.OpVectorInsertDynamic, spirv.OpFunctionCall:
		return false
	}
	return true
}
