package codegen

import (
	"errors"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/div/internal/irutil"
)

func newTestFunc(params ...string) (*ir.Module, *ir.Func) {
	m := ir.NewModule()
	ps := make([]*ir.Param, len(params))
	for i, p := range params {
		ps[i] = ir.NewParam(p, types.Double)
	}
	return m, m.NewFunc("t", types.Double, ps...)
}

func TestVerifyAcceptsGenerated(t *testing.T) {
	g := New(NewRegistry())
	for _, src := range []string{
		"1",
		"def f(x) x * x",
		"def g(x) if x < 1 then x else g(x - 1)",
		"def h(n) for i = 0, i < n in (if i then 1 else 0)",
	} {
		f := mustGen(t, g, src)
		assert.NoError(t, Verify(f), src)
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name  string
		build func() *ir.Func
		want  string
	}{
		{
			name: "no body",
			build: func() *ir.Func {
				_, f := newTestFunc()
				return f
			},
			want: "no body",
		},
		{
			name: "missing terminator",
			build: func() *ir.Func {
				_, f := newTestFunc("x")
				f.NewBlock("entry").NewFAdd(f.Params[0], irutil.Double(1))
				return f
			},
			want: "no terminator",
		},
		{
			name: "foreign operand",
			build: func() *ir.Func {
				_, other := newTestFunc("y")
				_, f := newTestFunc("x")
				f.NewBlock("entry").NewRet(other.Params[0])
				return f
			},
			want: "another function",
		},
		{
			name: "phi edge mismatch",
			build: func() *ir.Func {
				_, f := newTestFunc("x")
				entry := f.NewBlock("entry")
				next := f.NewBlock("next")
				entry.NewBr(next)
				phi := next.NewPhi(ir.NewIncoming(irutil.Double(1), entry), ir.NewIncoming(irutil.Double(2), next))
				next.NewRet(phi)
				return f
			},
			want: "2 incoming values for 1 predecessors",
		},
		{
			name: "phi after instruction",
			build: func() *ir.Func {
				_, f := newTestFunc("x")
				entry := f.NewBlock("entry")
				next := f.NewBlock("next")
				entry.NewBr(next)
				next.NewFAdd(f.Params[0], f.Params[0])
				phi := next.NewPhi(ir.NewIncoming(irutil.Double(1), entry))
				next.NewRet(phi)
				return f
			},
			want: "not at the start",
		},
		{
			name: "call arity",
			build: func() *ir.Func {
				m, f := newTestFunc("x")
				callee := m.NewFunc("two", types.Double,
					ir.NewParam("a", types.Double), ir.NewParam("b", types.Double))
				entry := f.NewBlock("entry")
				call := entry.NewCall(callee, f.Params[0])
				entry.NewRet(call)
				return f
			},
			want: "passes 1 arguments, want 2",
		},
		{
			name: "return type",
			build: func() *ir.Func {
				_, f := newTestFunc("x")
				entry := f.NewBlock("entry")
				entry.NewRet(entry.NewFCmp(enum.FPredOEQ, f.Params[0], f.Params[0]))
				return f
			},
			want: "must return double",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.build())
			require.Error(t, err)
			var ve *VerifyError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
