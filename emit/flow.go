package emit

import (
	"sort"

	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
)

type flowKind uint8

const (
	flowSelection flowKind = iota
	flowLoop
	flowSwitch
)

// flowContext is one open structured construct.
type flowContext struct {
	kind   flowKind
	header ir.ID
	merge  ir.ID
	cont   ir.ID
	// next is the block of the following case group of a switch.
	next ir.ID
}

// emitBlock emits a block and everything it structurally dominates up to
// the merge of the construct being emitted.
func (g *Generator) emitBlock(id ir.ID) error {
	blk := g.M.Block(id)
	if blk == nil {
		return cross.Invalid("branch to unknown block %d", id)
	}
	if g.active[id] {
		return cross.Invalid("block %d is reached again while it is being emitted; control flow is not structured", id)
	}
	g.active[id] = true
	defer delete(g.active, id)

	if blk.Merge == ir.MergeLoop {
		return g.emitLoop(blk)
	}
	return g.emitBlockBody(blk)
}

func (g *Generator) emitLoop(blk *ir.Block) error {
	g.Out.Line("for (;;)")
	g.Out.Begin()
	g.flow = append(g.flow, flowContext{kind: flowLoop, header: blk.Self, merge: blk.MergeBlock, cont: blk.ContinueBlock})
	err := g.emitBlockBody(blk)
	g.flow = g.flow[:len(g.flow)-1]
	if err != nil {
		return err
	}
	g.Out.End("")
	return g.flowTo(blk.MergeBlock)
}

func (g *Generator) emitBlockBody(blk *ir.Block) error {
	for i := range blk.Ops {
		if err := g.emitInstruction(&blk.Ops[i]); err != nil {
			return err
		}
	}
	switch blk.Terminator {
	case ir.TermDirect:
		return g.branchTo(blk.Self, blk.Next)
	case ir.TermSelect:
		if blk.Merge == ir.MergeSelection {
			return g.emitIf(blk)
		}
		return g.emitConditionalJump(blk)
	case ir.TermMultiSelect:
		return g.emitSwitch(blk)
	case ir.TermReturn:
		var value string
		if blk.ReturnValue != 0 {
			value = g.Expr(blk.ReturnValue)
		}
		if g.IsEntry {
			g.D.Return(g, value)
		} else if value != "" {
			g.Out.Line("return %s;", value)
		} else if g.Nested() {
			g.Out.Line("return;")
		}
		return nil
	case ir.TermKill:
		g.Out.Line(g.D.Kill())
		return nil
	case ir.TermUnreachable:
		return nil
	}
	return cross.Invalid("block %d has no terminator", blk.Self)
}

// flushPhis assigns the phi variables of to for the edge from -> to.
func (g *Generator) flushPhis(from, to ir.ID) {
	blk := g.M.Block(to)
	if blk == nil {
		return
	}
	for _, phi := range blk.Phis {
		for _, src := range phi.Incoming {
			if src.Parent == from {
				g.Out.Line("%s = %s;", g.ValueName(phi.Result), g.Expr(src.Value))
			}
		}
	}
}

func (g *Generator) branchTo(from, to ir.ID) error {
	g.flushPhis(from, to)
	return g.flowTo(to)
}

// jumpFor resolves a branch target against the open constructs. It
// returns the statement to write and whether the target is a structured
// exit; an empty statement falls through to the target.
func (g *Generator) jumpFor(to ir.ID) (stmt string, ok bool, err error) {
	inSwitch, inLoop := false, false
	for i := len(g.flow) - 1; i >= 0; i-- {
		ctx := &g.flow[i]
		innermost := i == len(g.flow)-1
		switch ctx.kind {
		case flowLoop:
			if inLoop && (to == ctx.header || to == ctx.merge || to == ctx.cont) {
				return "", false, cross.Unsupported("branch from a nested loop to block %d of an outer loop", to)
			}
			inLoop = true
			switch to {
			case ctx.header:
				return "continue;", true, nil
			case ctx.merge:
				if inSwitch {
					return "", false, cross.Unsupported("breaking out of a loop from inside a switch is not supported")
				}
				return "break;", true, nil
			case ctx.cont:
				return "", true, nil
			}
		case flowSwitch:
			if to == ctx.merge {
				return "break;", true, nil
			}
			if innermost && to == ctx.next {
				return "", true, nil
			}
			inSwitch = true
		case flowSelection:
			if to == ctx.merge {
				if !innermost {
					return "", false, cross.Unsupported("branch to the merge block %d of an enclosing selection", to)
				}
				return "", true, nil
			}
		}
	}
	return "", false, nil
}

// flowTo continues emission at to: a jump out of the current construct,
// an inlined continue block, or the next block of the construct.
func (g *Generator) flowTo(to ir.ID) error {
	stmt, ok, err := g.jumpFor(to)
	if err != nil {
		return err
	}
	if !ok {
		return g.emitBlock(to)
	}
	if stmt != "" {
		g.Out.Line(stmt)
		return nil
	}
	if ctx := g.loopFor(to); ctx != nil {
		return g.emitContinue(ctx)
	}
	return nil
}

// loopFor returns the innermost loop whose continue block is id.
func (g *Generator) loopFor(id ir.ID) *flowContext {
	for i := len(g.flow) - 1; i >= 0; i-- {
		if g.flow[i].kind == flowLoop {
			if g.flow[i].cont == id {
				return &g.flow[i]
			}
			return nil
		}
	}
	return nil
}

// emitContinue inlines the continue block of a loop. Its terminator
// branches back to the header, which spells continue.
func (g *Generator) emitContinue(ctx *flowContext) error {
	if ctx.cont == ctx.header {
		g.Out.Line("continue;")
		return nil
	}
	blk := g.M.Block(ctx.cont)
	if blk == nil {
		return cross.Invalid("loop %d has unknown continue block %d", ctx.header, ctx.cont)
	}
	if g.active[blk.Self] {
		return cross.Invalid("continue block %d is reached again while it is being emitted", blk.Self)
	}
	g.active[blk.Self] = true
	defer delete(g.active, blk.Self)
	return g.emitBlockBody(blk)
}

// capture runs fn with output redirected to a buffer one level deeper and
// returns what it wrote.
func (g *Generator) capture(fn func() error) (string, error) {
	saved := g.Out
	child := saved.child()
	child.Push()
	g.Out = child
	err := fn()
	g.Out = saved
	return child.String(), err
}

func (g *Generator) emitIf(blk *ir.Block) error {
	cond := g.Expr(blk.Condition)
	g.flow = append(g.flow, flowContext{kind: flowSelection, header: blk.Self, merge: blk.MergeBlock})
	thenText, err := g.capture(func() error { return g.branchTo(blk.Self, blk.TrueBlock) })
	if err != nil {
		return err
	}
	elseText := ""
	if blk.FalseBlock != blk.TrueBlock {
		elseText, err = g.capture(func() error { return g.branchTo(blk.Self, blk.FalseBlock) })
		if err != nil {
			return err
		}
	}
	g.flow = g.flow[:len(g.flow)-1]

	switch {
	case thenText == "" && elseText == "":
	case thenText == "":
		g.Out.Line("if (%s)", g.D.LogicalNot(g, g.M.TypeOf(blk.Condition), Enclose(cond)))
		g.writeScope(elseText)
	default:
		g.Out.Line("if (%s)", cond)
		g.writeScope(thenText)
		if elseText != "" {
			g.Out.Line("else")
			g.writeScope(elseText)
		}
	}
	return g.flowTo(blk.MergeBlock)
}

func (g *Generator) writeScope(text string) {
	g.Out.Line("{")
	g.Out.Write(text)
	g.Out.Line("}")
}

// emitConditionalJump handles a conditional branch without a selection
// merge, where at least one side must leave the current construct.
func (g *Generator) emitConditionalJump(blk *ir.Block) error {
	cond := g.Expr(blk.Condition)
	_, trueExits, err := g.jumpFor(blk.TrueBlock)
	if err != nil {
		return err
	}
	_, falseExits, err := g.jumpFor(blk.FalseBlock)
	if err != nil {
		return err
	}
	exit, rest := blk.TrueBlock, blk.FalseBlock
	switch {
	case trueExits:
		g.Out.Line("if (%s)", cond)
	case falseExits:
		exit, rest = blk.FalseBlock, blk.TrueBlock
		g.Out.Line("if (%s)", g.D.LogicalNot(g, g.M.TypeOf(blk.Condition), Enclose(cond)))
	default:
		return cross.Unsupported("conditional branch in block %d has no selection merge and leaves no construct", blk.Self)
	}
	text, err := g.capture(func() error { return g.branchTo(blk.Self, exit) })
	if err != nil {
		return err
	}
	if text == "" {
		return cross.Unsupported("conditional branch in block %d exits to a block that cannot be expressed as a jump", blk.Self)
	}
	g.writeScope(text)
	return g.branchTo(blk.Self, rest)
}

type caseGroup struct {
	block  ir.ID
	values []uint64
}

func (g *Generator) emitSwitch(blk *ir.Block) error {
	if blk.Merge != ir.MergeSelection {
		return cross.Invalid("switch in block %d has no selection merge", blk.Self)
	}
	selType := g.M.Type(g.M.TypeOf(blk.Condition))
	var groups []caseGroup
	index := make(map[ir.ID]int)
	for _, c := range blk.Cases {
		if i, ok := index[c.Block]; ok {
			groups[i].values = append(groups[i].values, c.Value)
			continue
		}
		index[c.Block] = len(groups)
		groups = append(groups, caseGroup{block: c.Block, values: []uint64{c.Value}})
	}
	for i := range groups {
		sort.Slice(groups[i].values, func(a, b int) bool { return groups[i].values[a] < groups[i].values[b] })
	}
	defaultGroup := -1
	if i, ok := index[blk.Default]; ok {
		defaultGroup = i
	}

	g.Out.Line("switch (%s)", g.Expr(blk.Condition))
	g.Out.Begin()
	for i, grp := range groups {
		for _, v := range grp.values {
			g.Out.Line("case %s:", g.caseLiteral(selType, v))
		}
		if i == defaultGroup {
			g.Out.Line("default:")
		}
		next := blk.MergeBlock
		if i+1 < len(groups) {
			next = groups[i+1].block
		}
		if err := g.emitCase(blk, grp.block, next); err != nil {
			return err
		}
	}
	if defaultGroup < 0 && blk.Default != blk.MergeBlock {
		g.Out.Line("default:")
		if err := g.emitCase(blk, blk.Default, blk.MergeBlock); err != nil {
			return err
		}
	}
	g.Out.End("")
	return g.flowTo(blk.MergeBlock)
}

func (g *Generator) emitCase(sw *ir.Block, target, next ir.ID) error {
	g.Out.Begin()
	g.flow = append(g.flow, flowContext{kind: flowSwitch, header: sw.Self, merge: sw.MergeBlock, next: next})
	var err error
	if target == sw.MergeBlock {
		g.flushPhis(sw.Self, target)
		g.Out.Line("break;")
	} else {
		err = g.branchTo(sw.Self, target)
	}
	g.flow = g.flow[:len(g.flow)-1]
	g.Out.End("")
	return err
}

func (g *Generator) caseLiteral(t *ir.Type, v uint64) string {
	if t == nil {
		return uitoa(uint32(v)) //nolint:gosec // G115: case literals of 32-bit selectors
	}
	return g.scalarLiteral(t, v)
}
