package dice_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"
)

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

// TestRollResult_String verifies the audit string contains expression, dice, and total.
func TestRollResult_String(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	s := r.String()
	require.Contains(t, s, "2d6+3", "String() must contain the expression")
	require.Contains(t, s, "[4 5]", "String() must contain the dice results")
	require.Contains(t, s, "12", "String() must contain the total")
	assert.Equal(t, "2d6+3 \u2192 [4 5] +3 = 12", s, "String() must match exact format")
}

// TestRollResult_Total_Property uses property-based testing to verify the
// postcondition Total() == sum(Dice) + Modifier for arbitrary inputs.
func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		dice_ := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.Int().Draw(rt, "modifier")

		r := dice.RollResult{
			Expression: "Nd6+M",
			Dice:       dice_,
			Modifier:   modifier,
		}

		expected := modifier
		for _, d := range dice_ {
			expected += d
		}

		assert.Equal(rt, expected, r.Total(),
			"Total() postcondition: must equal sum(Dice)+Modifier")
	})
}

// TestRollResult_String_Property verifies String() always contains the expression
// and the total for arbitrary RollResult values.
func TestRollResult_String_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		expr := rapid.StringMatching(`[0-9]+d[0-9]+[+-][0-9]+`).Draw(rt, "expression")
		dice_ := rapid.SliceOfN(rapid.IntRange(1, 20), 1, 10).Draw(rt, "dice")
		modifier := rapid.IntRange(-100, 100).Draw(rt, "modifier")

		r := dice.RollResult{
			Expression: expr,
			Dice:       dice_,
			Modifier:   modifier,
		}

		s := r.String()
		assert.True(rt, strings.Contains(s, expr),
			"String() must contain the expression %q", expr)
		assert.True(rt, strings.Contains(s, "\u2192"),
			"String() must contain the unicode arrow \u2192")
		assert.Contains(rt, s, fmt.Sprintf("%d", r.Total()),
			"String() must contain the computed total")
	})
}

// TestRollResult_String_PanicsOnEmptyExpression verifies that String() enforces
// its precondition and panics when Expression is empty.
func TestRollResult_String_PanicsOnEmptyExpression(t *testing.T) {
	r := dice.RollResult{Dice: []int{4}, Modifier: 0}
	assert.Panics(t, func() { _ = r.String() })
}

// TestCryptoSource_Intn_InRange verifies the postcondition:
// every value returned by Intn(6) is in [0, 6).
func TestCryptoSource_Intn_InRange(t *testing.T) {
	src := dice.NewCryptoSource()
	for i := 0; i < 1000; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 6)
	}
}

// TestCryptoSource_Intn_PanicsOnZero verifies the precondition:
// Intn panics when called with n <= 0.
func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) })
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(7)
	b := dice.NewSeededSource(7)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
	}
}

func TestRange_EqualBoundsReturnsMin(t *testing.T) {
	src := dice.NewSeededSource(1)
	assert.Equal(t, 2, dice.Range(src, 2, 2))
	assert.Equal(t, 5, dice.Range(src, 5, 3))
}

func TestPropertyRange_HalfOpen(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		min := rapid.IntRange(-50, 50).Draw(rt, "min")
		max := rapid.IntRange(min+1, min+100).Draw(rt, "max")
		v := dice.Range(dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed")), min, max)
		assert.GreaterOrEqual(rt, v, min)
		assert.Less(rt, v, max)
	})
}

func TestFixed_ReplaysAndWraps(t *testing.T) {
	src := &dice.Fixed{3, 9}
	assert.Equal(t, 3, src.Intn(10))
	assert.Equal(t, 4, src.Intn(5))
	assert.Equal(t, 3, src.Intn(10))
}

func TestChance_ZeroAndHundred(t *testing.T) {
	src := dice.NewSeededSource(3)
	hits := 0
	for i := 0; i < 200; i++ {
		if dice.Chance(src, -1) {
			hits++
		}
		assert.True(t, dice.Chance(src, 100))
	}
	assert.Equal(t, 0, hits)
}

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in    string
		count int
		sides int
		mod   int
	}{
		{"12", 0, 0, 12},
		{"d20", 1, 20, 0},
		{"2d6", 2, 6, 0},
		{"2D6+3", 2, 6, 3},
		{"4d8-2", 4, 8, -2},
	}
	for _, c := range cases {
		e, err := dice.Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.count, e.Count, c.in)
		assert.Equal(t, c.sides, e.Sides, c.in)
		assert.Equal(t, c.mod, e.Modifier, c.in)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "0d6", "2d1", "xd6", "2d6+x", "abc"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, "expression %q", in)
	}
}

func TestRoller_FlatNotLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(&dice.Fixed{0}, zap.New(core))
	assert.Equal(t, 12, r.Roll(dice.MustParse("12")))
	assert.Equal(t, 0, logs.Len())
}

func TestRoller_LogsDiceRolls(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(&dice.Fixed{2, 5}, zap.New(core))
	// Fixed yields 2 and 5; dice are 1-based so the faces are 3 and 6.
	assert.Equal(t, 12, r.Roll(dice.MustParse("2d6+3")))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dice roll", logs.All()[0].Message)
}

func TestPropertyRoll_WithinBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(rt, "count")
		sides := rapid.IntRange(2, 20).Draw(rt, "sides")
		mod := rapid.IntRange(-10, 10).Draw(rt, "mod")
		expr := dice.Expression{Raw: "x", Count: count, Sides: sides, Modifier: mod}
		total := dice.Roll(expr, dice.NewSeededSource(rapid.Uint64().Draw(rt, "seed"))).Total()
		assert.GreaterOrEqual(rt, total, count+mod)
		assert.LessOrEqual(rt, total, count*sides+mod)
	})
}
