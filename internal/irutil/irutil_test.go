package irutil

import (
	"math"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareFloat(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		pred enum.FPred
		x, y float64
		want bool
	}{
		{enum.FPredOLT, 1, 2, true},
		{enum.FPredOLT, 2, 1, false},
		{enum.FPredOLT, nan, 1, false},
		{enum.FPredULT, nan, 1, true},
		{enum.FPredONE, 0, 0, false},
		{enum.FPredONE, 3, 0, true},
		{enum.FPredONE, nan, 0, false},
		{enum.FPredUNE, nan, 0, true},
		{enum.FPredOEQ, 2, 2, true},
		{enum.FPredOGE, 2, 2, true},
		{enum.FPredUNO, nan, nan, true},
		{enum.FPredORD, 1, 1, true},
	}
	for _, tt := range tests {
		got, ok := CompareFloat(tt.pred, tt.x, tt.y)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "%v %v %v", tt.pred, tt.x, tt.y)
	}
}

func TestConstants(t *testing.T) {
	x, ok := ConstFloat(Double(2.5))
	require.True(t, ok)
	assert.Equal(t, 2.5, x)

	b, ok := ConstBool(constant.NewBool(true))
	require.True(t, ok)
	assert.True(t, b)

	_, ok = ConstFloat(constant.NewBool(true))
	assert.False(t, ok)
}

func TestReplaceAndPredecessors(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f", types.Double, ir.NewParam("x", types.Double))
	entry := f.NewBlock("entry")
	left := f.NewBlock("left")
	right := f.NewBlock("right")
	join := f.NewBlock("join")

	cmp := entry.NewFCmp(enum.FPredONE, f.Params[0], Double(0))
	entry.NewCondBr(cmp, left, right)
	sum := left.NewFAdd(f.Params[0], Double(1))
	left.NewBr(join)
	right.NewBr(join)
	phi := join.NewPhi(ir.NewIncoming(sum, left), ir.NewIncoming(Double(0), right))
	join.NewRet(phi)

	preds := Predecessors(f)
	assert.ElementsMatch(t, []*ir.Block{left, right}, preds[join])
	assert.Equal(t, []*ir.Block{entry}, preds[left])
	assert.Empty(t, preds[entry])

	ReplaceUses(f, sum, Double(7))
	v, ok := IncomingFrom(phi, left)
	require.True(t, ok)
	x, _ := ConstFloat(v)
	assert.Equal(t, 7.0, x)

	RemoveIncoming(join, right)
	assert.Len(t, phi.Incs, 1)

	RemoveInst(left, sum)
	assert.Empty(t, left.Insts)

	assert.Same(t, f, FindFunc(m, "f"))
	assert.True(t, RemoveFunc(m, f))
	assert.Nil(t, FindFunc(m, "f"))
	assert.False(t, RemoveFunc(m, f))
}

func TestOperandsUnsupported(t *testing.T) {
	_, ok := Operands(ir.NewFDiv(Double(1), Double(2)))
	assert.False(t, ok)
	ops, ok := Operands(ir.NewFAdd(Double(1), Double(2)))
	assert.True(t, ok)
	assert.Len(t, ops, 2)
}
