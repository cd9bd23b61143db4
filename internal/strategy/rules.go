package strategy

import "github.com/shopspring/decimal"

// Rules holds the thresholds of the weekly split adjustment rules.
type Rules struct {
	// RequiredGroups is the exact number of agents for which the special
	// rules apply. Any other count gets an even split.
	RequiredGroups int

	// An agent is low exposure when it has fewer than LowExposureMaxMembers
	// players and |net| below LowExposureMaxNet.
	LowExposureMaxMembers int
	LowExposureMaxNet     decimal.Decimal

	// An agent is the dominant winner when the book exceeds DominantMinBook
	// and its net exceeds DominantShare of the book.
	DominantMinBook decimal.Decimal
	DominantShare   decimal.Decimal
}

// DefaultRules returns the standard thresholds.
func DefaultRules() Rules {
	return Rules{
		RequiredGroups:        3,
		LowExposureMaxMembers: 5,
		LowExposureMaxNet:     decimal.NewFromInt(500),
		DominantMinBook:       decimal.NewFromInt(1000),
		DominantShare:         decimal.RequireFromString("0.75"),
	}
}

// Canonical weights assigned by each rule.
var (
	CombinedWinnerWeight = decimal.RequireFromString("0.45")
	CombinedMiddleWeight = decimal.RequireFromString("0.35")
	CombinedLowWeight    = decimal.RequireFromString("0.15")

	DominantWinnerWeight = decimal.RequireFromString("0.40")
	DominantOtherWeight  = decimal.RequireFromString("0.30")

	LowExposureWeight = decimal.RequireFromString("0.20")
)
