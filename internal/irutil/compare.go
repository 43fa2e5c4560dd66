package irutil

import (
	"math"

	"github.com/llir/llvm/ir/enum"
)

// CompareFloat evaluates an fcmp predicate. Ordered predicates are false
// when either operand is NaN, unordered ones true.
func CompareFloat(pred enum.FPred, x, y float64) (result, ok bool) {
	unordered := math.IsNaN(x) || math.IsNaN(y)
	switch pred {
	case enum.FPredFalse:
		return false, true
	case enum.FPredTrue:
		return true, true
	case enum.FPredORD:
		return !unordered, true
	case enum.FPredUNO:
		return unordered, true
	case enum.FPredOEQ:
		return !unordered && x == y, true
	case enum.FPredONE:
		return !unordered && x != y, true
	case enum.FPredOLT:
		return !unordered && x < y, true
	case enum.FPredOLE:
		return !unordered && x <= y, true
	case enum.FPredOGT:
		return !unordered && x > y, true
	case enum.FPredOGE:
		return !unordered && x >= y, true
	case enum.FPredUEQ:
		return unordered || x == y, true
	case enum.FPredUNE:
		return unordered || x != y, true
	case enum.FPredULT:
		return unordered || x < y, true
	case enum.FPredULE:
		return unordered || x <= y, true
	case enum.FPredUGT:
		return unordered || x > y, true
	case enum.FPredUGE:
		return unordered || x >= y, true
	}
	return false, false
}
