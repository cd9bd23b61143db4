package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const standardExplanation = "Standard splits this week"

// Explain describes a week's split in one line. It works from the shape of
// the weights alone and names agents in order.
func Explain(order []string, weights map[string]decimal.Decimal) string {
	rounded := make(map[string]decimal.Decimal, len(order))
	distinct := make(map[string]bool)
	for _, id := range order {
		w := weights[id].Round(4)
		rounded[id] = w
		distinct[w.String()] = true
	}
	if len(distinct) <= 1 {
		return standardExplanation
	}

	first := func(target decimal.Decimal) string {
		for _, id := range order {
			if rounded[id].Equal(target) {
				return id
			}
		}
		return ""
	}

	if winner := first(CombinedWinnerWeight); winner != "" {
		if low := first(CombinedLowWeight); low != "" {
			return fmt.Sprintf("%s had a great week, %s didn't have enough volume", winner, low)
		}
		return fmt.Sprintf("%s had a great week", winner)
	}
	if low := first(LowExposureWeight); low != "" {
		return fmt.Sprintf("%s didn't have enough players or volume", low)
	}
	if winner := first(DominantWinnerWeight); winner != "" && first(DominantOtherWeight) != "" {
		return fmt.Sprintf("%s had a great week", winner)
	}
	return standardExplanation
}
