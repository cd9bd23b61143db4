package calculator

import (
	"cmp"
	"slices"
	"strings"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// Aggregate folds player rows into per-agent totals from the operator's side:
// a player's loss is the agent's gain. Rows whose group is excluded are skipped.
// Groups are returned in first-seen order, members sorted Pay before Request,
// then by display name ignoring case. The second return value is the book total.
func Aggregate(rows []model.Row, excluded []string) ([]*model.GroupAggregate, decimal.Decimal) {
	skip := make(map[string]bool, len(excluded))
	for _, g := range excluded {
		skip[g] = true
	}

	var groups []*model.GroupAggregate
	index := make(map[string]*model.GroupAggregate)
	bookTotal := decimal.Zero

	for _, r := range rows {
		if skip[r.GroupID] {
			continue
		}
		contribution := r.Amount.Neg()
		action := model.ActionPay
		if contribution.IsPositive() {
			action = model.ActionRequest
		}

		g, ok := index[r.GroupID]
		if !ok {
			g = &model.GroupAggregate{GroupID: r.GroupID, Net: decimal.Zero}
			index[r.GroupID] = g
			groups = append(groups, g)
		}
		g.Net = g.Net.Add(contribution)
		g.MemberCount++
		g.Members = append(g.Members, model.AnnotatedRow{
			Row:          r,
			Contribution: contribution,
			Action:       action,
			AbsAmount:    contribution.Abs(),
		})
		bookTotal = bookTotal.Add(contribution)
	}

	for _, g := range groups {
		slices.SortStableFunc(g.Members, compareMembers)
	}
	return groups, bookTotal
}

func compareMembers(a, b model.AnnotatedRow) int {
	if c := cmp.Compare(a.Action.Rank(), b.Action.Rank()); c != 0 {
		return c
	}
	return strings.Compare(strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName))
}
