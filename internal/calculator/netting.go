package calculator

import (
	"slices"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultTolerance is the smallest amount worth moving between agents.
var DefaultTolerance = decimal.New(1, -2)

type position struct {
	groupID string
	amount  decimal.Decimal
}

// Net reduces settlement deltas to payer -> receiver transfers, matching the
// largest remaining payer with the largest remaining receiver each step.
// Deltas within tolerance of zero are left alone. Amounts are rounded to cents.
func Net(shares []model.Share, tolerance decimal.Decimal) []model.Transfer {
	var payers, receivers []position
	for _, s := range shares {
		switch {
		case s.Delta.GreaterThan(tolerance):
			payers = append(payers, position{groupID: s.GroupID, amount: s.Delta})
		case s.Delta.LessThan(tolerance.Neg()):
			receivers = append(receivers, position{groupID: s.GroupID, amount: s.Delta.Neg()})
		}
	}

	byAmountDesc := func(a, b position) int { return b.amount.Cmp(a.amount) }
	slices.SortStableFunc(payers, byAmountDesc)
	slices.SortStableFunc(receivers, byAmountDesc)

	var transfers []model.Transfer
	i, j := 0, 0
	for i < len(payers) && j < len(receivers) {
		p, r := &payers[i], &receivers[j]

		amount := decimal.Min(p.amount, r.amount).Round(2)
		if amount.GreaterThanOrEqual(tolerance) {
			transfers = append(transfers, model.Transfer{From: p.groupID, To: r.groupID, Amount: amount})
		}

		p.amount = p.amount.Sub(amount).Round(2)
		r.amount = r.amount.Sub(amount).Round(2)

		if p.amount.LessThanOrEqual(tolerance) {
			i++
		}
		if r.amount.LessThanOrEqual(tolerance) {
			j++
		}
	}
	return transfers
}
