package opt

import (
	"math"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/codegen"
	"github.com/kolkov/div/internal/irutil"
	"github.com/kolkov/div/internal/parser"
)

// generate compiles src (a single entry) without optimization.
func generate(t *testing.T, src string) *ir.Func {
	t.Helper()
	nodes, err := parser.ParseAll(src)
	require.NoError(t, err)
	g := codegen.New(codegen.NewRegistry())
	var f *ir.Func
	for _, node := range nodes {
		switch node := node.(type) {
		case *ast.Function:
			f, err = g.GenFunction(node)
		case *ast.Prototype:
			f, err = g.GenExtern(node)
		}
		require.NoError(t, err)
	}
	return f
}

func retConst(t *testing.T, f *ir.Func) float64 {
	t.Helper()
	ret, ok := f.Blocks[len(f.Blocks)-1].Term.(*ir.TermRet)
	require.True(t, ok)
	x, ok := irutil.ConstFloat(ret.X)
	require.True(t, ok, "return value %s is not constant", ret.X.Ident())
	return x
}

func TestConstantFold(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"10 - 3 - 2", 5},
		{"1 < 2", 1},
		{"2 < 1", 0},
		{"(1 + 1) * (2 + 2)", 8},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := generate(t, tt.src)
			assert.True(t, ConstantFold{}.Run(f))
			assert.Empty(t, f.Blocks[0].Insts)
			assert.Equal(t, tt.want, retConst(t, f))
			require.NoError(t, codegen.Verify(f))
		})
	}
}

func TestMultiplyByOne(t *testing.T) {
	f := generate(t, "def f(x) 1 * x * 1")
	require.True(t, Default().Run(f))
	ret := f.Blocks[0].Term.(*ir.TermRet)
	assert.Same(t, f.Params[0], ret.X)
	assert.Empty(t, f.Blocks[0].Insts)
}

func TestConstantBranch(t *testing.T) {
	f := generate(t, "if 1 < 2 then 3 else 4")
	require.True(t, Default().Run(f))
	require.NoError(t, codegen.Verify(f))

	assert.Equal(t, 3.0, retConst(t, f))
	for _, b := range f.Blocks {
		assert.NotEqual(t, "else", b.Name())
		assert.Empty(t, irutil.Phis(b))
	}
}

func TestLoopSurvives(t *testing.T) {
	f := generate(t, "def f(n) for i = 0, i < n in i * 2")
	Default().Run(f)
	require.NoError(t, codegen.Verify(f))

	require.Len(t, f.Blocks, 3)
	phis := irutil.Phis(f.Blocks[1])
	require.Len(t, phis, 1)
	for _, inst := range f.Blocks[1].Insts {
		_, isMul := inst.(*ir.InstFMul)
		assert.False(t, isMul, "unused loop body value is removed")
	}
}

func TestDeadCodeKeepsCalls(t *testing.T) {
	m := ir.NewModule()
	callee := m.NewFunc("effect", types.Double)
	f := m.NewFunc("f", types.Double, ir.NewParam("x", types.Double))
	entry := f.NewBlock("entry")
	entry.NewCall(callee)
	unused := entry.NewFAdd(f.Params[0], f.Params[0])
	entry.NewFMul(unused, unused)
	entry.NewRet(f.Params[0])

	assert.True(t, DeadCode{}.Run(f))
	require.Len(t, entry.Insts, 1)
	_, ok := entry.Insts[0].(*ir.InstCall)
	assert.True(t, ok)
	assert.False(t, DeadCode{}.Run(f))
}

func TestFoldKeepsNaN(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", types.Double)
	entry := f.NewBlock("entry")
	inf := irutil.Double(math.Inf(1))
	sub := entry.NewFSub(inf, inf)
	entry.NewRet(sub)

	assert.False(t, ConstantFold{}.Run(f))
	assert.Len(t, entry.Insts, 1)
}

type countingPass struct {
	runs, changes int
}

func (p *countingPass) Name() string { return "counting" }

func (p *countingPass) Run(*ir.Func) bool {
	p.runs++
	return p.runs <= p.changes
}

func TestPassManagerFixpoint(t *testing.T) {
	f := generate(t, "def f(x) x")

	p := &countingPass{changes: 2}
	pm := NewPassManager(p)
	assert.True(t, pm.Run(f))
	assert.Equal(t, 3, p.runs)

	p = &countingPass{changes: 100}
	pm = NewPassManager(p)
	pm.SetMaxRounds(4)
	pm.Run(f)
	assert.Equal(t, 4, p.runs)

	assert.False(t, NewPassManager(&countingPass{}).Run(f))
}

func TestPassManagerSkipsDeclarations(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("sin", types.Double, ir.NewParam("x", types.Double))
	p := &countingPass{changes: 1}
	assert.False(t, NewPassManager(p).Run(f))
	assert.Zero(t, p.runs)
}

func TestDefaultPipeline(t *testing.T) {
	var names []string
	for _, p := range Default().Passes() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"constfold", "simplifycfg", "dce"}, names)
}
