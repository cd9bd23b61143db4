package notifier

import (
	"strings"
	"testing"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFormatSettlementReport(t *testing.T) {
	st := &model.Settlement{
		Groups: []*model.GroupAggregate{
			{GroupID: "G", Net: d("800"), MemberCount: 1, Members: []model.AnnotatedRow{{
				Row:    model.Row{GroupID: "G", EntityID: "p1", DisplayName: "Pat <1>", Amount: d("-800"), Paid: true},
				Action: model.ActionPay, Contribution: d("800"), AbsAmount: d("800"),
			}}},
			{GroupID: "T", Net: d("-200"), MemberCount: 1},
		},
		BookTotal:   d("600"),
		Rule:        model.RuleEven,
		Explanation: "Standard splits this week",
		Shares: []model.Share{
			{GroupID: "G", Fraction: d("0.5"), Entitlement: d("300"), Delta: d("500")},
			{GroupID: "T", Fraction: d("0.5"), Entitlement: d("300"), Delta: d("-500")},
		},
		Transfers: []model.Transfer{{From: "G", To: "T", Amount: d("500")}},
		Bubble:    model.BubbleOutcome{Note: "pyr109 bubble: $40.00 added"},
	}

	msg := FormatSettlementReport("2024-W07", st)

	assert.Contains(t, msg, "2024-W07")
	assert.Contains(t, msg, "Book total: $600.00")
	assert.Contains(t, msg, "share 50.0% = $300.00, owes $500.00")
	assert.Contains(t, msg, "owed $500.00")
	assert.Contains(t, msg, "G → T: $500.00")
	assert.Contains(t, msg, "Pay Pat &lt;1&gt; $800.00 [paid]")
	assert.Contains(t, msg, "Standard splits this week")
	assert.Contains(t, msg, "pyr109 bubble")
	assert.False(t, strings.Contains(msg, "none, agents are square"))
}

func TestFormatSettlementReport_NoTransfers(t *testing.T) {
	msg := FormatSettlementReport("w1", &model.Settlement{Rule: model.RuleNoGroups})
	assert.Contains(t, msg, "none, agents are square")
	assert.Contains(t, msg, "Book total: $0.00")
}

func TestFormatBubbleStatus(t *testing.T) {
	tests := []struct {
		name   string
		status model.BubbleStatus
		want   []string
	}{
		{"disabled", model.BubbleStatus{}, []string{"No bubble player configured"}},
		{"active", model.BubbleStatus{EntityID: "pyr109", Balance: d("-40"), Threshold: d("100"), Active: true},
			[]string{"pyr109", "Balance: -$40.00", "Threshold: $100.00", "carrying a balance"}},
		{"clear", model.BubbleStatus{EntityID: "pyr109", Balance: decimal.Zero, Threshold: d("100")},
			[]string{"Balance: $0.00", "clear"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FormatBubbleStatus(tt.status)
			for _, w := range tt.want {
				assert.Contains(t, msg, w)
			}
		})
	}
}
