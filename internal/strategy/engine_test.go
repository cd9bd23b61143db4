package strategy

import (
	"errors"
	"testing"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stats(id string, net int64, members int) GroupStats {
	return GroupStats{GroupID: id, Net: decimal.NewFromInt(net), MemberCount: members}
}

func bookOf(groups []GroupStats) decimal.Decimal {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(g.Net)
	}
	return total
}

func evaluate(t *testing.T, groups ...GroupStats) *Result {
	t.Helper()
	res, err := Evaluate(groups, bookOf(groups), DefaultRules())
	require.NoError(t, err)
	assertSumsToOne(t, res)
	return res
}

func assertSumsToOne(t *testing.T, res *Result) {
	t.Helper()
	if len(res.Order) == 0 {
		return
	}
	sum := decimal.Zero
	for _, id := range res.Order {
		sum = sum.Add(res.Fractions[id])
	}
	assert.True(t, sum.Sub(one).Abs().LessThanOrEqual(decimal.New(1, -9)), "fractions sum to %s", sum)
}

func assertFraction(t *testing.T, res *Result, id, want string) {
	t.Helper()
	got := res.Fractions[id]
	assert.True(t, got.Sub(decimal.RequireFromString(want)).Abs().LessThan(decimal.New(1, -9)),
		"%s: fraction %s, want %s", id, got, want)
}

func TestEvaluate_EvenSplit(t *testing.T) {
	res := evaluate(t, stats("G", 300, 8), stats("T", 300, 7), stats("O", 300, 6))
	assert.Equal(t, model.RuleEven, res.Rule)
	for _, id := range []string{"G", "T", "O"} {
		assertFraction(t, res, id, "0.333333333333")
	}
}

func TestEvaluate_LowExposure(t *testing.T) {
	res := evaluate(t, stats("G", 600, 8), stats("T", 200, 3), stats("O", 100, 7))
	assert.Equal(t, model.RuleLowExposure, res.Rule)
	assert.Equal(t, []string{"T"}, res.LowExposure)
	assertFraction(t, res, "T", "0.20")
	assertFraction(t, res, "G", "0.40")
	assertFraction(t, res, "O", "0.40")
}

func TestEvaluate_LowExposureBoundaries(t *testing.T) {
	t.Run("five players is not low exposure", func(t *testing.T) {
		res := evaluate(t, stats("G", 600, 8), stats("T", 200, 5), stats("O", 100, 7))
		assert.Equal(t, model.RuleEven, res.Rule)
	})
	t.Run("net of 500 is not low exposure", func(t *testing.T) {
		res := evaluate(t, stats("G", 300, 8), stats("T", 500, 3), stats("O", 100, 7))
		assert.Equal(t, model.RuleEven, res.Rule)
	})
	t.Run("negative net uses absolute value", func(t *testing.T) {
		res := evaluate(t, stats("G", 900, 8), stats("T", -600, 2), stats("O", 100, 7))
		assert.Equal(t, model.RuleEven, res.Rule)
	})
}

func TestEvaluate_DominantWinner(t *testing.T) {
	res := evaluate(t, stats("G", 900, 8), stats("T", 100, 7), stats("O", 100, 6))
	assert.Equal(t, model.RuleDominant, res.Rule)
	assert.Equal(t, "G", res.Winner)
	assertFraction(t, res, "G", "0.40")
	assertFraction(t, res, "T", "0.30")
	assertFraction(t, res, "O", "0.30")
}

func TestEvaluate_DominantNeedsBookOver1000(t *testing.T) {
	res := evaluate(t, stats("G", 850, 8), stats("T", 100, 7), stats("O", 50, 6))
	assert.Equal(t, model.RuleEven, res.Rule, "book of exactly 1000 does not qualify")
	assert.Empty(t, res.Winner)
}

func TestEvaluate_DominantNeedsMoreThan75Percent(t *testing.T) {
	// 900 of 1200 is exactly 75%.
	res := evaluate(t, stats("G", 900, 8), stats("T", 200, 7), stats("O", 100, 6))
	assert.Equal(t, model.RuleEven, res.Rule)
}

func TestEvaluate_Combined(t *testing.T) {
	res := evaluate(t, stats("G", 1500, 9), stats("T", 100, 3), stats("O", -200, 6))
	assert.Equal(t, model.RuleCombined, res.Rule)
	assert.Equal(t, "G", res.Winner)
	assert.Equal(t, []string{"T"}, res.LowExposure)

	assert.True(t, res.Weights["G"].Equal(CombinedWinnerWeight))
	assert.True(t, res.Weights["O"].Equal(CombinedMiddleWeight))
	assert.True(t, res.Weights["T"].Equal(CombinedLowWeight))

	// 45/35/15 keeps its ratios once scaled to the whole book.
	assertFraction(t, res, "G", "0.473684210526")
	assertFraction(t, res, "O", "0.368421052631")
	assertFraction(t, res, "T", "0.157894736842")
}

func TestEvaluate_CombinedFallsThroughWithTwoLowExposure(t *testing.T) {
	res := evaluate(t, stats("G", 1500, 9), stats("T", 100, 3), stats("O", -300, 2))
	assert.Equal(t, model.RuleLowExposure, res.Rule)
	assert.Equal(t, "G", res.Winner)
	assertFraction(t, res, "T", "0.20")
	assertFraction(t, res, "O", "0.20")
	assertFraction(t, res, "G", "0.60")
}

func TestEvaluate_AllLowExposure(t *testing.T) {
	res := evaluate(t, stats("G", 100, 2), stats("T", 50, 3), stats("O", 20, 1))
	assert.Equal(t, model.RuleLowExposure, res.Rule)
	for _, id := range []string{"G", "T", "O"} {
		assertFraction(t, res, id, "0.333333333333")
	}
}

func TestEvaluate_AmbiguousWinner(t *testing.T) {
	groups := []GroupStats{stats("A", 900, 8), stats("B", 900, 8), stats("C", -700, 8)}
	_, err := Evaluate(groups, bookOf(groups), DefaultRules())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguousWinner))
}

func TestEvaluate_OtherGroupCountsSplitEvenly(t *testing.T) {
	res := evaluate(t, stats("G", 5000, 2), stats("T", 100, 1), stats("O", 100, 1), stats("Dro", 10, 1))
	assert.Equal(t, model.RuleEven, res.Rule)
	for _, id := range res.Order {
		assertFraction(t, res, id, "0.25")
	}

	res = evaluate(t, stats("G", 5000, 2), stats("T", 100, 1))
	assert.Equal(t, model.RuleEven, res.Rule)
	assertFraction(t, res, "G", "0.5")
}

func TestEvaluate_NoGroups(t *testing.T) {
	res, err := Evaluate(nil, decimal.Zero, DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, model.RuleNoGroups, res.Rule)
	assert.Empty(t, res.Fractions)
}

func TestEvaluate_ConfigurableGate(t *testing.T) {
	rules := DefaultRules()
	rules.RequiredGroups = 2
	groups := []GroupStats{stats("G", 1900, 9), stats("T", 100, 8)}
	res, err := Evaluate(groups, bookOf(groups), rules)
	require.NoError(t, err)
	assert.Equal(t, model.RuleDominant, res.Rule)
	assertSumsToOne(t, res)
	assertFraction(t, res, "G", "0.571428571428")
}

func TestEvenShares_SumExactly(t *testing.T) {
	for n := 1; n <= 9; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('A' + i))
		}
		shares := evenShares(ids, one)
		sum := decimal.Zero
		for _, s := range shares {
			sum = sum.Add(s)
		}
		if !sum.Equal(one) {
			t.Errorf("n=%d: shares sum to %s", n, sum)
		}
	}
}
