package emit

import (
	"go.uber.org/zap"

	"github.com/gogpu/spvcross/cross"
)

// MaxPasses bounds the recompilation loop of every backend.
const MaxPasses = 3

// RenderFunc renders one pass. again reports that the pass discovered a
// requirement that changes the output, so its text must be discarded.
type RenderFunc func(pass int) (text string, again bool, err error)

// FixedPoint runs render until a pass completes without requesting
// another one. Exceeding maxPasses is an ErrInternal failure.
func FixedPoint(log *zap.Logger, maxPasses int, render RenderFunc) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for pass := 0; pass < maxPasses; pass++ {
		text, again, err := render(pass)
		if err != nil {
			return "", err
		}
		if !again {
			log.Debug("emission converged", zap.Int("passes", pass+1))
			return text, nil
		}
		log.Debug("recompiling", zap.Int("pass", pass+1))
	}
	return "", cross.Errorf(cross.ErrInternal, "over %d compilation loops detected; must be a bug", maxPasses)
}
