package jit

import (
	"context"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/div/internal/irutil"
)

// ctxCheckInterval is how many branches run between context checks.
const ctxCheckInterval = 1024

// frame holds the values of one activation. i1 values are stored as 0 or 1.
type frame map[value.Value]float64

// machine executes one top-level call.
type machine struct {
	session *Session
	ctx     context.Context
	depth   int
	steps   int
}

// check rejects functions using instructions the machine does not run.
func check(f *ir.Func) error {
	for _, b := range f.Blocks {
		for _, inst := range b.Insts {
			if _, ok := irutil.Operands(inst); !ok {
				return newError(f.Name(), ErrUnsupported, "%T", inst)
			}
		}
		switch b.Term.(type) {
		case *ir.TermRet, *ir.TermBr, *ir.TermCondBr:
		default:
			return newError(f.Name(), ErrUnsupported, "terminator %T", b.Term)
		}
	}
	return nil
}

func (m *machine) run(f *ir.Func, args []float64) (float64, error) {
	if m.depth >= m.session.maxDepth {
		return 0, newError(f.Name(), ErrCallDepth, "limit %d", m.session.maxDepth)
	}
	if err := m.ctx.Err(); err != nil {
		return 0, newError(f.Name(), err, "")
	}
	m.depth++
	defer func() { m.depth-- }()

	fr := make(frame, len(f.Params)+8)
	for i, p := range f.Params {
		fr[p] = args[i]
	}

	var (
		prev *ir.Block
		b    = f.Blocks[0]
		phis []float64
	)
	for {
		// All phis read their inputs before any of them is written.
		n := 0
		phis = phis[:0]
		for _, inst := range b.Insts {
			phi, ok := inst.(*ir.InstPhi)
			if !ok {
				break
			}
			in, ok := irutil.IncomingFrom(phi, prev)
			if !ok {
				return 0, newError(f.Name(), ErrUndefinedValue, "phi %s has no value for this edge", phi.Ident())
			}
			x, err := m.get(f, fr, in)
			if err != nil {
				return 0, err
			}
			phis = append(phis, x)
			n++
		}
		for i, x := range phis {
			fr[b.Insts[i].(*ir.InstPhi)] = x
		}

		for _, inst := range b.Insts[n:] {
			if err := m.exec(f, fr, inst); err != nil {
				return 0, err
			}
		}

		switch term := b.Term.(type) {
		case *ir.TermRet:
			return m.get(f, fr, term.X)
		case *ir.TermBr:
			prev, b = b, term.Succs()[0]
		case *ir.TermCondBr:
			cond, err := m.get(f, fr, term.Cond)
			if err != nil {
				return 0, err
			}
			succs := term.Succs()
			next := succs[1]
			if cond != 0 {
				next = succs[0]
			}
			prev, b = b, next
		default:
			return 0, newError(f.Name(), ErrUnsupported, "terminator %T", term)
		}

		m.steps++
		if m.steps%ctxCheckInterval == 0 {
			if err := m.ctx.Err(); err != nil {
				return 0, newError(f.Name(), err, "")
			}
		}
	}
}

func (m *machine) exec(f *ir.Func, fr frame, inst ir.Instruction) error {
	binary := func(dst value.Value, x, y value.Value, op func(a, b float64) float64) error {
		a, err := m.get(f, fr, x)
		if err != nil {
			return err
		}
		b, err := m.get(f, fr, y)
		if err != nil {
			return err
		}
		fr[dst] = op(a, b)
		return nil
	}

	switch inst := inst.(type) {
	case *ir.InstFAdd:
		return binary(inst, inst.X, inst.Y, func(a, b float64) float64 { return a + b })
	case *ir.InstFSub:
		return binary(inst, inst.X, inst.Y, func(a, b float64) float64 { return a - b })
	case *ir.InstFMul:
		return binary(inst, inst.X, inst.Y, func(a, b float64) float64 { return a * b })
	case *ir.InstFCmp:
		return binary(inst, inst.X, inst.Y, func(a, b float64) float64 {
			if r, _ := irutil.CompareFloat(inst.Pred, a, b); r {
				return 1
			}
			return 0
		})
	case *ir.InstUIToFP:
		// The only unsigned source is an i1, already held as 0 or 1.
		x, err := m.get(f, fr, inst.From)
		if err != nil {
			return err
		}
		fr[inst] = x
		return nil
	case *ir.InstCall:
		args := make([]float64, len(inst.Args))
		for i, arg := range inst.Args {
			x, err := m.get(f, fr, arg)
			if err != nil {
				return err
			}
			args[i] = x
		}
		x, err := m.call(inst.Callee, args)
		if err != nil {
			return err
		}
		fr[inst] = x
		return nil
	default:
		return newError(f.Name(), ErrUnsupported, "%T", inst)
	}
}

// call resolves a callee: a body in the calling module runs directly, a
// declaration links to the session's latest definition or a native.
func (m *machine) call(callee value.Value, args []float64) (float64, error) {
	fn, ok := callee.(*ir.Func)
	if !ok {
		return 0, newError("", ErrUnsupported, "indirect call through %s", callee.Ident())
	}
	if len(fn.Blocks) == 0 {
		if def := m.session.definition(fn.Name()); def != nil {
			fn = def
		} else if n, ok := LookupNative(fn.Name()); ok {
			if len(args) != n.Arity {
				return 0, newError(fn.Name(), ErrArity, "got %d, want %d", len(args), n.Arity)
			}
			return n.Fn(m.session.out, args), nil
		} else {
			return 0, newError(fn.Name(), ErrSymbolNotFound, "")
		}
	}
	if len(args) != len(fn.Params) {
		return 0, newError(fn.Name(), ErrArity, "got %d, want %d", len(args), len(fn.Params))
	}
	return m.run(fn, args)
}

func (m *machine) get(f *ir.Func, fr frame, v value.Value) (float64, error) {
	switch v := v.(type) {
	case *constant.Float:
		x, _ := irutil.ConstFloat(v)
		return x, nil
	case *constant.Int:
		if b, _ := irutil.ConstBool(v); b {
			return 1, nil
		}
		return 0, nil
	}
	x, ok := fr[v]
	if !ok {
		return 0, newError(f.Name(), ErrUndefinedValue, "%s", v.Ident())
	}
	return x, nil
}
