package opt

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/kolkov/div/internal/irutil"
)

// ConstantFold evaluates arithmetic, comparisons and conversions whose
// operands are all constants, rewrites x*1 and 1*x to x, and collapses phi
// nodes whose incoming values are all the same.
type ConstantFold struct{}

func (ConstantFold) Name() string { return "constfold" }

func (ConstantFold) Run(f *ir.Func) bool {
	changed := false
	for _, b := range f.Blocks {
		// Iterate over a copy; folded instructions are removed from b.
		for _, inst := range append([]ir.Instruction(nil), b.Insts...) {
			v, ok := fold(inst)
			if !ok {
				continue
			}
			irutil.ReplaceUses(f, inst.(value.Value), v)
			irutil.RemoveInst(b, inst)
			changed = true
		}
	}
	return changed
}

// fold returns the value inst can be replaced with.
func fold(inst ir.Instruction) (value.Value, bool) {
	switch inst := inst.(type) {
	case *ir.InstFAdd:
		return foldFloat(inst.X, inst.Y, func(x, y float64) float64 { return x + y })
	case *ir.InstFSub:
		return foldFloat(inst.X, inst.Y, func(x, y float64) float64 { return x - y })
	case *ir.InstFMul:
		if x, ok := irutil.ConstFloat(inst.X); ok && x == 1 {
			return inst.Y, true
		}
		if y, ok := irutil.ConstFloat(inst.Y); ok && y == 1 {
			return inst.X, true
		}
		return foldFloat(inst.X, inst.Y, func(x, y float64) float64 { return x * y })
	case *ir.InstFCmp:
		x, okX := irutil.ConstFloat(inst.X)
		y, okY := irutil.ConstFloat(inst.Y)
		if !okX || !okY {
			return nil, false
		}
		r, ok := irutil.CompareFloat(inst.Pred, x, y)
		if !ok {
			return nil, false
		}
		return constant.NewBool(r), true
	case *ir.InstUIToFP:
		c, ok := irutil.ConstBool(inst.From)
		if !ok {
			return nil, false
		}
		if c {
			return irutil.Double(1), true
		}
		return irutil.Double(0), true
	case *ir.InstPhi:
		return foldPhi(inst)
	}
	return nil, false
}

func foldFloat(a, b value.Value, op func(x, y float64) float64) (value.Value, bool) {
	x, okX := irutil.ConstFloat(a)
	y, okY := irutil.ConstFloat(b)
	if !okX || !okY {
		return nil, false
	}
	r := op(x, y)
	if math.IsNaN(r) {
		return nil, false
	}
	return irutil.Double(r), true
}

// foldPhi collapses a phi whose incoming values (ignoring the phi itself)
// are all the same value or all equal constants.
func foldPhi(phi *ir.InstPhi) (value.Value, bool) {
	var same value.Value
	for _, inc := range phi.Incs {
		if inc.X == value.Value(phi) {
			continue
		}
		switch {
		case same == nil:
			same = inc.X
		case inc.X == same:
		default:
			x, okX := irutil.ConstFloat(inc.X)
			y, okY := irutil.ConstFloat(same)
			if !okX || !okY || x != y || math.Signbit(x) != math.Signbit(y) {
				return nil, false
			}
		}
	}
	return same, same != nil
}
