// Package dice provides the randomness abstraction shared by every random
// decision in a match (spawn order, spawn points, loot, spread) and the dice
// expressions used for weapon damage.
package dice

import "fmt"

// RollResult holds the full audit trail for a single damage roll.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2d6+3"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier.
//
// Postcondition: return value == sum(r.Dice) + r.Modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for a match.
//
// A match draws from one Source on its simulation thread. Implementations
// shared between matches must be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Range returns an int in [min, max). When max <= min it returns min, so a
// roster entry with equal bounds always yields exactly that many.
func Range(src Source, min, max int) int {
	if max <= min {
		return min
	}
	return min + src.Intn(max-min)
}

// Pick returns a uniformly chosen index into a collection of length n.
//
// Precondition: n > 0.
func Pick(src Source, n int) int {
	return src.Intn(n)
}

const percentResolution = 1 << 20

// Percent returns a value in [0, 100).
func Percent(src Source) float64 {
	return float64(src.Intn(percentResolution)) * 100 / percentResolution
}

// Chance reports whether a roll in [0, 100) lands at or under percent.
func Chance(src Source, percent float64) bool {
	return Percent(src) <= percent
}
