package opt

import (
	"github.com/llir/llvm/ir"

	"github.com/kolkov/div/internal/irutil"
)

// SimplifyCFG turns conditional branches on constant conditions into
// unconditional ones and removes blocks that can no longer be reached,
// along with the phi edges that came from them.
type SimplifyCFG struct{}

func (SimplifyCFG) Name() string { return "simplifycfg" }

func (SimplifyCFG) Run(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		br, ok := b.Term.(*ir.TermCondBr)
		if !ok {
			continue
		}
		cond, ok := irutil.ConstBool(br.Cond)
		if !ok {
			continue
		}
		succs := br.Succs()
		taken, dropped := succs[0], succs[1]
		if !cond {
			taken, dropped = dropped, taken
		}
		if dropped != taken {
			irutil.RemoveIncoming(dropped, b)
		}
		b.Term = ir.NewBr(taken)
		changed = true
	}
	if removeUnreachable(f) {
		changed = true
	}
	return changed
}

func removeUnreachable(f *ir.Func) bool {
	reachable := make(map[*ir.Block]bool, len(f.Blocks))
	work := []*ir.Block{f.Blocks[0]}
	for len(work) > 0 {
		b := work[len(work)-1]
		work = work[:len(work)-1]
		if reachable[b] {
			continue
		}
		reachable[b] = true
		work = append(work, irutil.Successors(b)...)
	}
	if len(reachable) == len(f.Blocks) {
		return false
	}

	kept := f.Blocks[:0]
	var dead []*ir.Block
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		} else {
			dead = append(dead, b)
		}
	}
	for _, b := range dead {
		for _, succ := range irutil.Successors(b) {
			if reachable[succ] {
				irutil.RemoveIncoming(succ, b)
			}
		}
	}
	f.Blocks = kept
	return true
}
