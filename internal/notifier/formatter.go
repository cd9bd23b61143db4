package notifier

import (
	"fmt"
	"html"
	"strings"

	"SettleBook/internal/model"

	"github.com/shopspring/decimal"
)

// FormatSettlementReport formats one week's settlement into a Telegram message.
func FormatSettlementReport(weekID string, st *model.Settlement) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Weekly settlement</b> | %s\n\n", html.EscapeString(weekID)))
	b.WriteString(fmt.Sprintf("Book total: %s\n", money(st.BookTotal)))
	b.WriteString(fmt.Sprintf("Split: %s\n", st.Rule))
	if st.Explanation != "" {
		b.WriteString(fmt.Sprintf("<i>%s</i>\n", html.EscapeString(st.Explanation)))
	}

	if len(st.Groups) > 0 {
		b.WriteString("\n👥 <b>Agents:</b>\n")
	}
	for _, g := range st.Groups {
		line := fmt.Sprintf("  <b>%s</b> (%d players): net %s", html.EscapeString(g.GroupID), g.MemberCount, money(g.Net))
		if sh, ok := st.Share(g.GroupID); ok {
			line += fmt.Sprintf(", share %s%% = %s, %s",
				sh.Fraction.Mul(decimal.NewFromInt(100)).StringFixed(1), money(sh.Entitlement), balance(sh.Delta))
		}
		b.WriteString(line + "\n")
		for _, m := range g.Members {
			b.WriteString(fmt.Sprintf("    %s %s %s%s\n",
				m.Action, html.EscapeString(m.DisplayName), money(m.AbsAmount), flags(m.Row)))
		}
	}

	b.WriteString("\n💸 <b>Transfers:</b>\n")
	if len(st.Transfers) == 0 {
		b.WriteString("  none, agents are square\n")
	}
	for _, t := range st.Transfers {
		b.WriteString(fmt.Sprintf("  %s → %s: %s\n", html.EscapeString(t.From), html.EscapeString(t.To), money(t.Amount)))
	}

	if st.Bubble.Note != "" {
		b.WriteString(fmt.Sprintf("\n🫧 %s\n", html.EscapeString(st.Bubble.Note)))
	}
	return b.String()
}

// FormatBubbleStatus formats the bubble balance for display.
func FormatBubbleStatus(s model.BubbleStatus) string {
	if s.EntityID == "" {
		return "🫧 No bubble player configured"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🫧 <b>Bubble</b> | %s\n\n", html.EscapeString(s.EntityID)))
	b.WriteString(fmt.Sprintf("Balance: %s\n", money(s.Balance)))
	b.WriteString(fmt.Sprintf("Threshold: %s\n", money(s.Threshold)))
	if s.Active {
		b.WriteString("Status: carrying a balance")
	} else {
		b.WriteString("Status: clear")
	}
	return b.String()
}

// FormatHelp lists the chat commands.
func FormatHelp() string {
	return "Commands:\n" +
		"• /settle [week] - settle the given or latest week\n" +
		"• /bubble - show the bubble balance\n" +
		"• /mark &lt;week&gt; &lt;player&gt; &lt;engaged|paid&gt; &lt;on|off&gt; - update a player's status\n" +
		"• /help - this message"
}

func money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func balance(delta decimal.Decimal) string {
	switch {
	case delta.IsPositive():
		return "owes " + money(delta)
	case delta.IsNegative():
		return "owed " + money(delta.Neg())
	default:
		return "square"
	}
}

func flags(r model.Row) string {
	var parts []string
	if r.Engaged {
		parts = append(parts, "engaged")
	}
	if r.Paid {
		parts = append(parts, "paid")
	}
	if len(parts) == 0 {
		return ""
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
