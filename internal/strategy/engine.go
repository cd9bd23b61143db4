package strategy

import (
	"errors"
	"fmt"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// ErrAmbiguousWinner is returned when more than one agent qualifies as the
// dominant winner. The rules have no tie-break for it.
var ErrAmbiguousWinner = errors.New("more than one dominant winner")

var one = decimal.NewFromInt(1)

// GroupStats is what the split rules need to know about an agent.
type GroupStats struct {
	GroupID     string
	Net         decimal.Decimal
	MemberCount int
}

// Result is the outcome of a split evaluation.
//
// Weights are the canonical per-rule allocations (0.45/0.35/0.15 and so on).
// Fractions are the weights scaled to sum to exactly one; they are what the
// book is divided by. The two are identical whenever the weights already
// sum to one.
type Result struct {
	Order       []string
	Weights     map[string]decimal.Decimal
	Fractions   map[string]decimal.Decimal
	Rule        model.SplitRule
	Winner      string
	LowExposure []string
}

// Evaluate decides each agent's share of the book. The special rules only
// apply with exactly rules.RequiredGroups agents and are tried in priority
// order: combined, dominant winner, low exposure, even split.
func Evaluate(groups []GroupStats, bookTotal decimal.Decimal, rules Rules) (*Result, error) {
	res := &Result{Order: make([]string, 0, len(groups))}
	for _, g := range groups {
		res.Order = append(res.Order, g.GroupID)
	}

	if len(groups) == 0 {
		res.Rule = model.RuleNoGroups
		res.Weights = map[string]decimal.Decimal{}
		res.Fractions = map[string]decimal.Decimal{}
		return res, nil
	}

	if len(groups) != rules.RequiredGroups {
		res.assignEven(res.Order)
		return res, nil
	}

	low := make(map[string]bool)
	for _, g := range groups {
		if isLowExposure(g, rules) {
			low[g.GroupID] = true
			res.LowExposure = append(res.LowExposure, g.GroupID)
		}
	}

	winner, err := dominantWinner(groups, bookTotal, rules)
	if err != nil {
		return nil, err
	}
	res.Winner = winner

	switch {
	case res.tryCombined(low):
	case winner != "" && len(res.LowExposure) == 0:
		weights := make(map[string]decimal.Decimal, len(groups))
		for _, id := range res.Order {
			weights[id] = DominantOtherWeight
		}
		weights[winner] = DominantWinnerWeight
		res.assign(model.RuleDominant, weights)
	case len(res.LowExposure) > 0:
		// Also reached by a winner alongside two low exposure agents.
		res.assignLowExposure(low)
	default:
		res.assignEven(res.Order)
	}
	return res, nil
}

func isLowExposure(g GroupStats, rules Rules) bool {
	return g.MemberCount < rules.LowExposureMaxMembers && g.Net.Abs().LessThan(rules.LowExposureMaxNet)
}

func dominantWinner(groups []GroupStats, bookTotal decimal.Decimal, rules Rules) (string, error) {
	if !bookTotal.GreaterThan(rules.DominantMinBook) {
		return "", nil
	}
	bar := bookTotal.Mul(rules.DominantShare)
	var winners []string
	for _, g := range groups {
		if g.Net.IsPositive() && g.Net.GreaterThan(bar) {
			winners = append(winners, g.GroupID)
		}
	}
	if len(winners) > 1 {
		return "", fmt.Errorf("%w: %v on book %s", ErrAmbiguousWinner, winners, bookTotal.StringFixed(2))
	}
	if len(winners) == 1 {
		return winners[0], nil
	}
	return "", nil
}

// tryCombined applies 45/35/15 when there is a winner that is not low
// exposure, exactly one low exposure agent and exactly one agent in between.
func (r *Result) tryCombined(low map[string]bool) bool {
	if r.Winner == "" || low[r.Winner] || len(r.LowExposure) != 1 {
		return false
	}
	var middles []string
	for _, id := range r.Order {
		if id != r.Winner && !low[id] {
			middles = append(middles, id)
		}
	}
	if len(middles) != 1 {
		return false
	}
	r.assign(model.RuleCombined, map[string]decimal.Decimal{
		r.Winner:         CombinedWinnerWeight,
		middles[0]:       CombinedMiddleWeight,
		r.LowExposure[0]: CombinedLowWeight,
	})
	return true
}

// assignLowExposure gives each low exposure agent 20% and splits what is
// left evenly between the others.
func (r *Result) assignLowExposure(low map[string]bool) {
	var normal []string
	for _, id := range r.Order {
		if !low[id] {
			normal = append(normal, id)
		}
	}

	weights := make(map[string]decimal.Decimal, len(r.Order))
	residual := one
	for _, id := range r.LowExposure {
		weights[id] = LowExposureWeight
		residual = residual.Sub(LowExposureWeight)
	}
	for id, w := range evenShares(normal, residual) {
		weights[id] = w
	}
	r.assign(model.RuleLowExposure, weights)
}

func (r *Result) assignEven(ids []string) {
	r.assign(model.RuleEven, evenShares(ids, one))
}

func (r *Result) assign(rule model.SplitRule, weights map[string]decimal.Decimal) {
	r.Rule = rule
	r.Weights = weights
	r.Fractions = normalize(r.Order, weights)
}

// evenShares splits total across ids. The last id absorbs the rounding
// remainder so the shares add up to total exactly.
func evenShares(ids []string, total decimal.Decimal) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return shares
	}
	each := total.Div(decimal.NewFromInt(int64(len(ids))))
	remaining := total
	for _, id := range ids[:len(ids)-1] {
		shares[id] = each
		remaining = remaining.Sub(each)
	}
	shares[ids[len(ids)-1]] = remaining
	return shares
}

// normalize scales weights so they sum to one, keeping their ratios.
func normalize(order []string, weights map[string]decimal.Decimal) map[string]decimal.Decimal {
	sum := decimal.Zero
	for _, id := range order {
		sum = sum.Add(weights[id])
	}

	fractions := make(map[string]decimal.Decimal, len(order))
	if sum.Equal(one) {
		for _, id := range order {
			fractions[id] = weights[id]
		}
		return fractions
	}
	if sum.IsZero() {
		return evenShares(order, one)
	}

	remaining := one
	for i, id := range order {
		if i == len(order)-1 {
			fractions[id] = remaining
			break
		}
		f := weights[id].Div(sum)
		fractions[id] = f
		remaining = remaining.Sub(f)
	}
	return fractions
}
