package opt

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/div/internal/irutil"
)

// DeadCode removes instructions whose results are never used. Calls are
// kept since the callee may have side effects.
type DeadCode struct{}

func (DeadCode) Name() string { return "dce" }

func (DeadCode) Run(f *ir.Func) bool {
	changed := false
	for {
		used := make(map[value.Value]bool)
		for _, b := range f.Blocks {
			for _, inst := range b.Insts {
				ops, _ := irutil.Operands(inst)
				for _, op := range ops {
					used[op] = true
				}
			}
			for _, op := range irutil.TermOperands(b.Term) {
				used[op] = true
			}
		}

		removed := false
		for _, b := range f.Blocks {
			insts := b.Insts[:0]
			for _, inst := range b.Insts {
				_, isCall := inst.(*ir.InstCall)
				v, isValue := inst.(value.Value)
				if !isCall && isValue && !used[v] {
					removed = true
					continue
				}
				insts = append(insts, inst)
			}
			b.Insts = insts
		}
		if !removed {
			return changed
		}
		changed = true
	}
}
