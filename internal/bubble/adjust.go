package bubble

import (
	"fmt"
	"slices"
	"strings"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the running balance, in dollars, at which the bubble releases.
var DefaultThreshold = decimal.NewFromInt(100)

// Adjustment is the result of applying the bubble to a week's rows.
type Adjustment struct {
	Rows    []model.Row
	Outcome model.BubbleOutcome
}

// Adjust defers small weekly amounts of the bubble entity into its running
// balance. The entity's amount is added to previous; while the total stays
// under threshold the entity settles nothing this week and the total becomes
// the new balance. Once it reaches threshold the whole total is settled and
// the balance resets to zero.
//
// A nil previous means no balance is tracked for the entity; like a missing
// entity row it leaves the rows untouched. Adjust never modifies rows: the
// returned Rows is a copy, and persisting Outcome.NewBalance is up to the caller.
func Adjust(rows []model.Row, entityID string, previous *decimal.Decimal, threshold decimal.Decimal) Adjustment {
	adj := Adjustment{Rows: rows, Outcome: model.BubbleOutcome{EntityID: entityID}}
	if entityID == "" || previous == nil {
		return adj
	}
	idx := slices.IndexFunc(rows, func(r model.Row) bool {
		return strings.EqualFold(r.EntityID, entityID)
	})
	if idx < 0 {
		return adj
	}

	row := rows[idx]
	name := row.DisplayName
	if name == "" {
		name = row.EntityID
	}
	weekly := row.Amount
	potential := previous.Add(weekly)

	out := model.BubbleOutcome{
		EntityID: entityID,
		Applied:  true,
		Previous: *previous,
		Weekly:   weekly,
	}

	if potential.Abs().LessThan(threshold) {
		out.Emitted = decimal.Zero
		out.NewBalance = potential
		out.Note = fmt.Sprintf("%s bubble: %s added to balance (now %s)\n%s's amount set to $0 for this week (bubble active)",
			name, dollars(weekly), dollars(potential), name)
	} else {
		out.Released = true
		out.Emitted = potential
		out.NewBalance = decimal.Zero
		if previous.IsZero() {
			out.Note = fmt.Sprintf("%s bubble: %s exceeds $%s threshold", name, dollars(weekly), threshold)
		} else {
			out.Note = fmt.Sprintf("%s bubble: %s this week, %s accumulated\nTotal %s exceeds $%s threshold - applying full amount",
				name, dollars(weekly), dollars(*previous), dollars(potential), threshold)
		}
	}

	adj.Rows = slices.Clone(rows)
	adj.Rows[idx].Amount = out.Emitted
	adj.Outcome = out
	return adj
}

func dollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
