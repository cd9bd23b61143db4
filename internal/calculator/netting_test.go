package calculator

import (
	"testing"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deltas(pairs ...any) []model.Share {
	var shares []model.Share
	for i := 0; i < len(pairs); i += 2 {
		shares = append(shares, model.Share{
			GroupID: pairs[i].(string),
			Delta:   decimal.RequireFromString(pairs[i+1].(string)),
		})
	}
	return shares
}

// assertSettles checks that each group's outgoing minus incoming transfers equals its delta.
func assertSettles(t *testing.T, shares []model.Share, transfers []model.Transfer) {
	t.Helper()
	flow := map[string]decimal.Decimal{}
	for _, tr := range transfers {
		require.True(t, tr.Amount.IsPositive(), "transfer %s->%s has non-positive amount %s", tr.From, tr.To, tr.Amount)
		flow[tr.From] = flow[tr.From].Add(tr.Amount)
		flow[tr.To] = flow[tr.To].Sub(tr.Amount)
	}
	for _, s := range shares {
		diff := flow[s.GroupID].Sub(s.Delta).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.02")),
			"group %s: flow %s vs delta %s", s.GroupID, flow[s.GroupID], s.Delta)
	}
}

func TestNet_OnePayerTwoReceivers(t *testing.T) {
	shares := deltas("G", "460", "T", "-230", "O", "-230")
	transfers := Net(shares, DefaultTolerance)
	require.Len(t, transfers, 2)
	assert.Equal(t, "T", transfers[0].To)
	assert.Equal(t, "O", transfers[1].To)
	for _, tr := range transfers {
		assert.Equal(t, "G", tr.From)
		assert.True(t, tr.Amount.Equal(decimal.NewFromInt(230)))
	}
	assertSettles(t, shares, transfers)
}

func TestNet_AllSettled(t *testing.T) {
	assert.Empty(t, Net(deltas("A", "0", "B", "0.004", "C", "-0.01"), DefaultTolerance))
	assert.Empty(t, Net(nil, DefaultTolerance))
}

func TestNet_LargestFirst(t *testing.T) {
	shares := deltas("A", "50", "B", "-120", "C", "150", "D", "-80")
	transfers := Net(shares, DefaultTolerance)

	require.Len(t, transfers, 3)
	assert.Equal(t, "C", transfers[0].From)
	assert.Equal(t, "B", transfers[0].To)
	assert.True(t, transfers[0].Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "C", transfers[1].From)
	assert.Equal(t, "D", transfers[1].To)
	assert.True(t, transfers[1].Amount.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, "A", transfers[2].From)
	assert.Equal(t, "D", transfers[2].To)
	assert.True(t, transfers[2].Amount.Equal(decimal.NewFromInt(50)))
	assertSettles(t, shares, transfers)
}

func TestNet_TiesKeepEncounterOrder(t *testing.T) {
	transfers := Net(deltas("P", "200", "X", "-100", "Y", "-100"), DefaultTolerance)
	require.Len(t, transfers, 2)
	assert.Equal(t, "X", transfers[0].To)
	assert.Equal(t, "Y", transfers[1].To)
}

func TestNet_RoundsToCents(t *testing.T) {
	shares := deltas("A", "100.004", "B", "-33.334", "C", "-33.335", "D", "-33.335")
	transfers := Net(shares, DefaultTolerance)
	require.NotEmpty(t, transfers)
	for _, tr := range transfers {
		assert.True(t, tr.Amount.Equal(tr.Amount.Round(2)), "amount %s not rounded", tr.Amount)
		assert.True(t, tr.Amount.GreaterThanOrEqual(DefaultTolerance))
	}
	assertSettles(t, shares, transfers)
}

func TestNet_TransferCountBound(t *testing.T) {
	shares := deltas(
		"A", "310.50", "B", "12.25", "C", "-99.99", "D", "-0.76",
		"E", "77.30", "F", "-300", "G", "1.20", "H", "-0.50",
	)
	transfers := Net(shares, DefaultTolerance)

	payers, receivers := 0, 0
	paid, received := decimal.Zero, decimal.Zero
	for _, s := range shares {
		if s.Delta.IsPositive() {
			payers++
			paid = paid.Add(s.Delta)
		} else {
			receivers++
			received = received.Sub(s.Delta)
		}
	}
	assert.LessOrEqual(t, len(transfers), payers+receivers-1)

	moved := decimal.Zero
	for _, tr := range transfers {
		moved = moved.Add(tr.Amount)
	}
	assert.True(t, moved.Sub(paid).Abs().LessThanOrEqual(decimal.RequireFromString("0.05")), "moved %s paid %s", moved, paid)
	assert.True(t, paid.Equal(received))
	assertSettles(t, shares, transfers)
}
