// Package opt implements the function passes run over freshly generated IR.
//
// Passes rewrite an *ir.Func in place and report whether they changed
// anything. A PassManager repeats its pipeline until nothing changes, so
// passes can feed each other: folding a comparison makes a branch constant,
// SimplifyCFG drops the dead arm, and the phi it fed collapses on the next
// round.
package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/rs/zerolog"
)

// Pass is a single function transformation.
type Pass interface {
	Name() string
	Run(f *ir.Func) bool
}

// DefaultMaxRounds bounds how often a PassManager repeats its pipeline.
const DefaultMaxRounds = 8

// PassManager runs a pipeline of passes to a fixpoint.
type PassManager struct {
	passes    []Pass
	maxRounds int
	log       zerolog.Logger
}

// NewPassManager returns a manager running passes in order.
func NewPassManager(passes ...Pass) *PassManager {
	return &PassManager{
		passes:    passes,
		maxRounds: DefaultMaxRounds,
		log:       zerolog.Nop(),
	}
}

// Default returns the pipeline the engine uses.
func Default() *PassManager {
	return NewPassManager(ConstantFold{}, SimplifyCFG{}, DeadCode{})
}

// Add appends p to the pipeline.
func (pm *PassManager) Add(p Pass) {
	pm.passes = append(pm.passes, p)
}

// SetLogger sets the logger that receives per-pass traces.
func (pm *PassManager) SetLogger(log zerolog.Logger) {
	pm.log = log
}

// SetMaxRounds bounds the number of pipeline repetitions. n < 1 means one.
func (pm *PassManager) SetMaxRounds(n int) {
	pm.maxRounds = max(n, 1)
}

// Passes returns the pipeline.
func (pm *PassManager) Passes() []Pass {
	return pm.passes
}

// Run applies the pipeline to f until a round changes nothing. It reports
// whether f changed at all.
func (pm *PassManager) Run(f *ir.Func) bool {
	if len(f.Blocks) == 0 {
		return false
	}
	changed := false
	for round := 0; round < pm.maxRounds; round++ {
		roundChanged := false
		for _, p := range pm.passes {
			if p.Run(f) {
				pm.log.Trace().Str("func", f.Name()).Str("pass", p.Name()).Int("round", round).Msg("changed")
				roundChanged = true
			}
		}
		if !roundChanged {
			break
		}
		changed = true
	}
	return changed
}
