package settlement

import (
	"fmt"

	"SettleBook/internal/bubble"
	"SettleBook/internal/calculator"
	"SettleBook/internal/model"
	"SettleBook/internal/strategy"

	"github.com/shopspring/decimal"
)

// Params are the tunable inputs of a settlement computation.
type Params struct {
	BubbleEntityID  string
	BubbleThreshold decimal.Decimal
	Tolerance       decimal.Decimal
	ExcludedGroups  []string
	Rules           strategy.Rules
}

// DefaultParams returns the standard settings with the bubble disabled.
func DefaultParams() Params {
	return Params{
		BubbleThreshold: bubble.DefaultThreshold,
		Tolerance:       calculator.DefaultTolerance,
		Rules:           strategy.DefaultRules(),
	}
}

// Engine computes weekly settlements. It holds no state between calls.
type Engine struct {
	Params Params
}

// NewEngine creates an Engine.
func NewEngine(p Params) *Engine {
	return &Engine{Params: p}
}

// Compute runs a week's rows through the bubble, aggregation, split rules,
// balance resolution and transfer netting. previous is the bubble entity's
// stored balance, nil when none is tracked; the balance to store afterwards
// is in the result's Bubble.NewBalance when Bubble.Applied is set.
func (e *Engine) Compute(rows []model.Row, previous *decimal.Decimal) (*model.Settlement, error) {
	p := e.Params

	adj := bubble.Adjust(rows, p.BubbleEntityID, previous, p.BubbleThreshold)
	groups, bookTotal := calculator.Aggregate(adj.Rows, p.ExcludedGroups)

	stats := make([]strategy.GroupStats, len(groups))
	for i, g := range groups {
		stats[i] = strategy.GroupStats{GroupID: g.GroupID, Net: g.Net, MemberCount: g.MemberCount}
	}
	split, err := strategy.Evaluate(stats, bookTotal, p.Rules)
	if err != nil {
		return nil, fmt.Errorf("evaluate split: %w", err)
	}

	shares, err := calculator.Resolve(groups, bookTotal, split.Fractions)
	if err != nil {
		return nil, fmt.Errorf("resolve balances: %w", err)
	}

	return &model.Settlement{
		Groups:      groups,
		BookTotal:   bookTotal,
		Rule:        split.Rule,
		Explanation: strategy.Explain(split.Order, split.Weights),
		Shares:      shares,
		Transfers:   calculator.Net(shares, p.Tolerance),
		Bubble:      adj.Outcome,
	}, nil
}
