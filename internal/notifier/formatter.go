package notifier

import (
	"fmt"
	"strings"
	"time"

	"UpkeepSentinel/internal/model"

	"github.com/dustin/go-humanize"
	"golang.org/x/net/html"
)

// Money renders an amount the way the game does: $1,057,500.
func Money(v int64) string {
	return "$" + humanize.Comma(v)
}

func whoseTurn(st model.AccountingState, counterparty string) string {
	if st.IsSelfTurn {
		return "yours"
	}
	if counterparty == "" {
		return "the other party's"
	}
	return html.EscapeString(counterparty) + "'s"
}

// FormatReminder is the message sent when it is the user's turn and money is owed.
func FormatReminder(st model.AccountingState, deadline time.Time) string {
	var b strings.Builder
	b.WriteString("🏝 <b>Upkeep reminder</b>\n\n")
	b.WriteString(fmt.Sprintf("It is your turn to pay. Owed: <b>%s</b>\n", Money(st.Owed)))
	if !st.EffectiveLastPayment.IsZero() {
		b.WriteString(fmt.Sprintf("Last payment: %s\n", st.EffectiveLastPayment))
	}
	b.WriteString(fmt.Sprintf("Due before %s UTC (%s)", deadline.UTC().Format("15:04"), humanize.Time(deadline)))
	return b.String()
}

// FormatStatus renders the accounting state and the settings behind it.
func FormatStatus(st model.AccountingState, s model.Settings) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Upkeep status</b> | %s\n\n", st.Today))
	b.WriteString(fmt.Sprintf("Owed: %s\n", Money(st.Owed)))
	b.WriteString(fmt.Sprintf("Turn: %s", whoseTurn(st, s.Counterparty)))
	if st.Override != model.OverrideUnset {
		b.WriteString(fmt.Sprintf(" (pinned: %s)", st.Override))
	}
	b.WriteString("\n")
	last := "never"
	if !st.EffectiveLastPayment.IsZero() {
		last = st.EffectiveLastPayment.String()
	}
	b.WriteString(fmt.Sprintf("Last payment: %s\n", last))
	b.WriteString(fmt.Sprintf("Daily cost: %s\n", Money(s.DailyCost)))
	if s.Counterparty != "" {
		b.WriteString(fmt.Sprintf("Shared with: %s\n", html.EscapeString(s.Counterparty)))
	}
	if !s.CycleAnchor.IsZero() {
		b.WriteString(fmt.Sprintf("Cycle anchor: %s\n", s.CycleAnchor))
	}
	synced := "never"
	if !s.LastSyncDate.IsZero() {
		synced = s.LastSyncDate.String()
	}
	b.WriteString(fmt.Sprintf("Last sync: %s\n", synced))
	if !s.HasCredential() {
		b.WriteString("⚠️ No API key set, use /key\n")
	}
	if s.RemindersMuted {
		b.WriteString("🔕 Reminders muted\n")
	}
	return b.String()
}

// FormatCredentialProblem asks the user for a new key.
func FormatCredentialProblem(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("🔑 <b>API key problem</b>\n\n%v\nSend a new key with /key &lt;key&gt;", html.EscapeString(err.Error()))
}

// FormatFetchProblem reports a non-fatal fetch failure.
func FormatFetchProblem(err error, st model.AccountingState) string {
	return fmt.Sprintf("⚠️ Could not reach the payment feed (%s).\nUsing the local estimate: %s owed.", html.EscapeString(fmt.Sprint(err)), Money(st.Owed))
}

// FormatError renders a rejected command.
func FormatError(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}

// Escape makes free text safe inside an HTML-formatted message.
func Escape(s string) string {
	return html.EscapeString(s)
}
