package dice

import "sort"

// exprRoller is implemented by sources that evaluate whole expressions, such as *Roller.
type exprRoller interface {
	Roll(expr Expression) RollResult
}

// Roll evaluates expr using src.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count, or expr.KeepHighest when set.
func Roll(expr Expression, src Source) RollResult {
	if r, ok := src.(exprRoller); ok {
		return r.Roll(expr)
	}
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = Die(src, expr.Sides)
	}

	kept := rolled
	if expr.KeepHighest > 0 {
		sorted := make([]int, len(rolled))
		copy(sorted, rolled)
		sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
		kept = sorted[:expr.KeepHighest]
	}

	return RollResult{
		Expression: expr.Raw,
		Dice:       kept,
		Modifier:   expr.Modifier,
	}
}
