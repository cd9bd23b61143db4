package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Action tells the agent whether to collect from or pay out to a player.
type Action string

const (
	ActionPay     Action = "Pay"
	ActionRequest Action = "Request"
)

// Rank orders actions for display: Pay before Request.
// Any other label is a programming error.
func (a Action) Rank() int {
	switch a {
	case ActionPay:
		return 0
	case ActionRequest:
		return 1
	default:
		panic(fmt.Sprintf("model: unknown action %q", string(a)))
	}
}

// Row is one player's weekly result as seen by the player:
// a positive Amount means the player won.
type Row struct {
	GroupID     string          `json:"group_id"`
	EntityID    string          `json:"entity_id"`
	DisplayName string          `json:"display_name"`
	Amount      decimal.Decimal `json:"amount"`
	Engaged     bool            `json:"engaged"`
	Paid        bool            `json:"paid"`
}

// AnnotatedRow is a Row seen from the operator's side.
type AnnotatedRow struct {
	Row
	Contribution decimal.Decimal `json:"contribution"`
	Action       Action          `json:"action"`
	AbsAmount    decimal.Decimal `json:"abs_amount"`
}

var amountCleaner = strings.NewReplacer(",", "", "$", "")

// ParseAmount reads a money amount leniently. Dollar signs and thousands
// separators are stripped; blank or malformed input yields zero.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(amountCleaner.Replace(s))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
