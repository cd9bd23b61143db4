package model

import "github.com/shopspring/decimal"

// SplitRule names the entitlement rule that fired for a week.
type SplitRule string

const (
	RuleEven        SplitRule = "EVEN"
	RuleLowExposure SplitRule = "LOW_EXPOSURE"
	RuleDominant    SplitRule = "DOMINANT_WINNER"
	RuleCombined    SplitRule = "COMBINED"
	RuleNoGroups    SplitRule = "NO_GROUPS"
)

// GroupAggregate holds one agent's totals for a single computation.
type GroupAggregate struct {
	GroupID     string          `json:"group_id"`
	Net         decimal.Decimal `json:"net"`
	MemberCount int             `json:"member_count"`
	Members     []AnnotatedRow  `json:"members"`
}

// Share is an agent's entitlement and what it still owes (positive Delta)
// or is owed (negative Delta) to reach it.
type Share struct {
	GroupID     string          `json:"group_id"`
	Fraction    decimal.Decimal `json:"fraction"`
	Entitlement decimal.Decimal `json:"entitlement"`
	Delta       decimal.Decimal `json:"delta"`
}

// Transfer is a single payment between two agents.
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Settlement is the full result of one weekly computation.
type Settlement struct {
	Groups      []*GroupAggregate `json:"groups"`
	BookTotal   decimal.Decimal   `json:"book_total"`
	Rule        SplitRule         `json:"rule"`
	Explanation string            `json:"explanation"`
	Shares      []Share           `json:"shares"`
	Transfers   []Transfer        `json:"transfers"`
	Bubble      BubbleOutcome     `json:"bubble"`
}

// Group returns the aggregate for id, or nil.
func (s *Settlement) Group(id string) *GroupAggregate {
	for _, g := range s.Groups {
		if g.GroupID == id {
			return g
		}
	}
	return nil
}

// Share returns the share for id and whether it exists.
func (s *Settlement) Share(id string) (Share, bool) {
	for _, sh := range s.Shares {
		if sh.GroupID == id {
			return sh, true
		}
	}
	return Share{}, false
}
