package calculator

import (
	"errors"
	"fmt"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// ErrUnbalanced means the settlement deltas do not net out to zero.
var ErrUnbalanced = errors.New("settlement deltas do not net to zero")

var (
	centTolerance     = decimal.New(1, -2)
	relativeTolerance = decimal.New(1, -6)
)

// Resolve turns entitlement fractions into target balances and the delta each
// agent must settle: delta = net - book_total * fraction. Positive deltas owe.
// A group missing from fractions is entitled to nothing.
func Resolve(groups []*model.GroupAggregate, bookTotal decimal.Decimal, fractions map[string]decimal.Decimal) ([]model.Share, error) {
	shares := make([]model.Share, 0, len(groups))
	sum := decimal.Zero
	for _, g := range groups {
		fraction, ok := fractions[g.GroupID]
		if !ok {
			fraction = decimal.Zero
		}
		entitlement := bookTotal.Mul(fraction)
		delta := g.Net.Sub(entitlement)
		sum = sum.Add(delta)
		shares = append(shares, model.Share{
			GroupID:     g.GroupID,
			Fraction:    fraction,
			Entitlement: entitlement,
			Delta:       delta,
		})
	}

	if !Balanced(sum, bookTotal) {
		return shares, fmt.Errorf("%w: residual %s on book %s", ErrUnbalanced, sum.StringFixed(6), bookTotal.StringFixed(2))
	}
	return shares, nil
}

// Balanced reports whether a residual is within a cent, or within one
// millionth of the book total for very large books.
func Balanced(residual, bookTotal decimal.Decimal) bool {
	limit := decimal.Max(centTolerance, bookTotal.Abs().Mul(relativeTolerance))
	return residual.Abs().LessThanOrEqual(limit)
}
