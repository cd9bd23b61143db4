package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BubbleState is the running balance kept for the bubble entity.
// WeekID and Previous name the week that produced Balance and the balance
// carried into it; both are empty for the initial seed.
type BubbleState struct {
	EntityID  string          `json:"entity_id"`
	Balance   decimal.Decimal `json:"balance"`
	WeekID    string          `json:"week_id,omitempty"`
	Previous  decimal.Decimal `json:"previous"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BubbleOutcome describes what the bubble did during one computation.
type BubbleOutcome struct {
	EntityID   string          `json:"entity_id"`
	Applied    bool            `json:"applied"`
	Released   bool            `json:"released"`
	Previous   decimal.Decimal `json:"previous"`
	Weekly     decimal.Decimal `json:"weekly"`
	Emitted    decimal.Decimal `json:"emitted"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Note       string          `json:"note"`
}

// BubbleStatus is the display view of the bubble balance.
type BubbleStatus struct {
	EntityID  string          `json:"entity_id"`
	Balance   decimal.Decimal `json:"balance"`
	Threshold decimal.Decimal `json:"threshold"`
	Active    bool            `json:"active"`
}
