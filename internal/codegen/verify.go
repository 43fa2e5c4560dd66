package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/div/internal/irutil"
)

// VerifyError describes a structural problem found by Verify.
type VerifyError struct {
	Func    string
	Block   string
	Message string
}

func (e *VerifyError) Error() string {
	if e.Block != "" {
		return fmt.Sprintf("verify @%s, block %%%s: %s", e.Func, e.Block, e.Message)
	}
	return fmt.Sprintf("verify @%s: %s", e.Func, e.Message)
}

// Verify checks a function definition for internal consistency:
//
//   - it has at least one block and every block ends in a terminator
//   - phi nodes are grouped at the start of their block
//   - the incoming blocks of every phi are exactly the block's predecessors
//   - every operand is a constant, a parameter, a function or an
//     instruction of the same function
//   - calls pass as many arguments as the callee takes
//   - every return yields a double
func Verify(f *ir.Func) error {
	fail := func(b *ir.Block, format string, args ...any) error {
		err := &VerifyError{Func: f.Name(), Message: fmt.Sprintf(format, args...)}
		if b != nil {
			err.Block = b.Name()
		}
		return err
	}

	if len(f.Blocks) == 0 {
		return fail(nil, "function has no body")
	}

	params := make(map[value.Value]bool, len(f.Params))
	for _, p := range f.Params {
		params[p] = true
	}
	blocks := make(map[*ir.Block]bool, len(f.Blocks))
	defined := make(map[value.Value]bool)
	for _, b := range f.Blocks {
		blocks[b] = true
		for _, inst := range b.Insts {
			if v, ok := inst.(value.Value); ok {
				defined[v] = true
			}
		}
	}

	checkOperand := func(b *ir.Block, v value.Value) error {
		switch v := v.(type) {
		case nil:
			return fail(b, "nil operand")
		case constant.Constant:
			return nil
		case *ir.Param:
			if !params[v] {
				return fail(b, "parameter %s belongs to another function", v.Ident())
			}
			return nil
		case *ir.Func:
			return nil
		default:
			if !defined[v] {
				return fail(b, "operand %s is not defined in this function", v.Ident())
			}
			return nil
		}
	}

	preds := irutil.Predecessors(f)
	for _, b := range f.Blocks {
		if b.Term == nil {
			return fail(b, "block has no terminator")
		}
		for _, succ := range b.Term.Succs() {
			if !blocks[succ] {
				return fail(b, "branch to block %s outside the function", succ.Ident())
			}
		}

		seenNonPhi := false
		for _, inst := range b.Insts {
			ops, ok := irutil.Operands(inst)
			if !ok {
				return fail(b, "unsupported instruction %T", inst)
			}
			for _, op := range ops {
				if err := checkOperand(b, op); err != nil {
					return err
				}
			}
			switch inst := inst.(type) {
			case *ir.InstPhi:
				if seenNonPhi {
					return fail(b, "phi %s is not at the start of its block", inst.Ident())
				}
				if err := checkPhi(inst, preds[b]); err != nil {
					return fail(b, "phi %s: %v", inst.Ident(), err)
				}
			case *ir.InstCall:
				seenNonPhi = true
				callee, ok := inst.Callee.(*ir.Func)
				if !ok {
					return fail(b, "indirect call")
				}
				if len(inst.Args) != len(callee.Params) {
					return fail(b, "call to @%s passes %d arguments, want %d",
						callee.Name(), len(inst.Args), len(callee.Params))
				}
			default:
				seenNonPhi = true
			}
		}

		for _, op := range irutil.TermOperands(b.Term) {
			if err := checkOperand(b, op); err != nil {
				return err
			}
		}
		if ret, ok := b.Term.(*ir.TermRet); ok {
			if ret.X == nil || !ret.X.Type().Equal(types.Double) {
				return fail(b, "function must return double")
			}
		}
	}
	return nil
}

func checkPhi(phi *ir.InstPhi, preds []*ir.Block) error {
	if len(phi.Incs) != len(preds) {
		return fmt.Errorf("%d incoming values for %d predecessors", len(phi.Incs), len(preds))
	}
	for _, pred := range preds {
		if _, ok := irutil.IncomingFrom(phi, pred); !ok {
			return fmt.Errorf("no incoming value from %s", pred.Ident())
		}
	}
	return nil
}
