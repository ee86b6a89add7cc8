// Package dice provides the randomness abstraction and roll-result types used
// by the combat engine.
package dice

import "fmt"

// RollResult holds the audit trail for a single dice expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "1d8+2"
	Dice       []int  // kept die faces before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all kept die faces plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String renders the roll as "1d8+2 → [5] +2 = 7".
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// dieRoller is implemented by sources that roll whole dice, such as *Roller.
type dieRoller interface {
	D(faces int) int
}

// Die draws one face of a faces-sided die from src.
//
// Precondition: faces >= 1; src must be non-nil.
// Postcondition: Returns a value in [1, faces].
func Die(src Source, faces int) int {
	if faces < 1 {
		panic(fmt.Sprintf("dice: Die called with faces=%d", faces))
	}
	if d, ok := src.(dieRoller); ok {
		return d.D(faces)
	}
	return src.Intn(faces) + 1
}
