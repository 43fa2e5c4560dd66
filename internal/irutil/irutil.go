// Package irutil holds small helpers over github.com/llir/llvm IR shared by
// the code generator, the optimizer and the execution session. They only
// understand the instruction set div generates.
package irutil

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Double returns a double constant.
func Double(x float64) *constant.Float {
	return constant.NewFloat(types.Double, x)
}

// ConstFloat returns the value of a double constant.
func ConstFloat(v value.Value) (float64, bool) {
	c, ok := v.(*constant.Float)
	if !ok || c.X == nil {
		return 0, false
	}
	x, _ := c.X.Float64()
	return x, true
}

// ConstBool returns the value of an i1 constant.
func ConstBool(v value.Value) (bool, bool) {
	c, ok := v.(*constant.Int)
	if !ok || c.X == nil {
		return false, false
	}
	return c.X.Sign() != 0, true
}

// FindFunc returns the function named name in m, or nil.
func FindFunc(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// RemoveFunc deletes f from m. It reports whether f was found.
func RemoveFunc(m *ir.Module, f *ir.Func) bool {
	for i, g := range m.Funcs {
		if g == f {
			m.Funcs = append(m.Funcs[:i], m.Funcs[i+1:]...)
			return true
		}
	}
	return false
}

// Operands returns the values read by inst. ok is false for instructions
// div never generates.
func Operands(inst ir.Instruction) (ops []value.Value, ok bool) {
	switch inst := inst.(type) {
	case *ir.InstFAdd:
		return []value.Value{inst.X, inst.Y}, true
	case *ir.InstFSub:
		return []value.Value{inst.X, inst.Y}, true
	case *ir.InstFMul:
		return []value.Value{inst.X, inst.Y}, true
	case *ir.InstFCmp:
		return []value.Value{inst.X, inst.Y}, true
	case *ir.InstUIToFP:
		return []value.Value{inst.From}, true
	case *ir.InstCall:
		return append([]value.Value(nil), inst.Args...), true
	case *ir.InstPhi:
		ops = make([]value.Value, len(inst.Incs))
		for i, inc := range inst.Incs {
			ops[i] = inc.X
		}
		return ops, true
	default:
		return nil, false
	}
}

// TermOperands returns the values read by a terminator.
func TermOperands(term ir.Terminator) []value.Value {
	switch term := term.(type) {
	case *ir.TermRet:
		if term.X != nil {
			return []value.Value{term.X}
		}
	case *ir.TermCondBr:
		return []value.Value{term.Cond}
	}
	return nil
}

// ReplaceUses rewrites every use of old in f to use repl instead.
func ReplaceUses(f *ir.Func, old, repl value.Value) {
	swap := func(v *value.Value) {
		if *v == old {
			*v = repl
		}
	}
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			switch inst := inst.(type) {
			case *ir.InstFAdd:
				swap(&inst.X)
				swap(&inst.Y)
			case *ir.InstFSub:
				swap(&inst.X)
				swap(&inst.Y)
			case *ir.InstFMul:
				swap(&inst.X)
				swap(&inst.Y)
			case *ir.InstFCmp:
				swap(&inst.X)
				swap(&inst.Y)
			case *ir.InstUIToFP:
				swap(&inst.From)
			case *ir.InstCall:
				for i := range inst.Args {
					swap(&inst.Args[i])
				}
			case *ir.InstPhi:
				for _, inc := range inst.Incs {
					swap(&inc.X)
				}
			}
		}
		switch term := b.Term.(type) {
		case *ir.TermRet:
			if term.X != nil {
				swap(&term.X)
			}
		case *ir.TermCondBr:
			swap(&term.Cond)
		}
	}
}

// RemoveInst drops inst from b.
func RemoveInst(b *ir.Block, inst ir.Instruction) {
	for i, in := range b.Insts {
		if in == inst {
			b.Insts = append(b.Insts[:i], b.Insts[i+1:]...)
			return
		}
	}
}

// Successors returns the blocks b can branch to.
func Successors(b *ir.Block) []*ir.Block {
	if b.Term == nil {
		return nil
	}
	return b.Term.Succs()
}

// Predecessors maps every block of f to the blocks that branch to it. A
// block listed twice as a successor (condbr to the same block) counts once.
func Predecessors(f *ir.Func) map[*ir.Block][]*ir.Block {
	preds := make(map[*ir.Block][]*ir.Block, len(f.Blocks))
	for _, b := range f.Blocks {
		seen := make(map[*ir.Block]bool, 2)
		for _, succ := range Successors(b) {
			if seen[succ] {
				continue
			}
			seen[succ] = true
			preds[succ] = append(preds[succ], b)
		}
	}
	return preds
}

// Phis returns the phi nodes at the start of b.
func Phis(b *ir.Block) []*ir.InstPhi {
	var phis []*ir.InstPhi
	for _, inst := range b.Insts {
		phi, ok := inst.(*ir.InstPhi)
		if !ok {
			break
		}
		phis = append(phis, phi)
	}
	return phis
}

// IncomingFrom returns the value phi takes when control arrives from pred.
func IncomingFrom(phi *ir.InstPhi, pred *ir.Block) (value.Value, bool) {
	for _, inc := range phi.Incs {
		if inc.Pred == pred {
			return inc.X, true
		}
	}
	return nil, false
}

// RemoveIncoming drops the edges from pred out of every phi in b.
func RemoveIncoming(b *ir.Block, pred *ir.Block) {
	for _, phi := range Phis(b) {
		incs := phi.Incs[:0]
		for _, inc := range phi.Incs {
			if inc.Pred != pred {
				incs = append(incs, inc)
			}
		}
		phi.Incs = incs
	}
}
