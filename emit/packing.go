package emit

import (
	"github.com/gogpu/spvcross/cross"
	"github.com/gogpu/spvcross/ir"
)

// SelectPacking returns the first candidate standard whose rules reproduce
// the declared offsets and strides of a block. ok is false when none does,
// meaning the block can only be expressed with explicit member offsets.
func SelectPacking(c *cross.Compiler, structID ir.ID, candidates ...cross.PackingStandard) (p cross.PackingStandard, ok bool) {
	for _, cand := range candidates {
		if c.BufferIsPackingStandard(structID, cand) {
			return cand, true
		}
	}
	return 0, false
}
