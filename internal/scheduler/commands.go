package scheduler

import (
	"fmt"
	"strings"

	"UpkeepSentinel/internal/notifier"

	"github.com/agnivade/levenshtein"
)

const helpText = `Commands:
/status - owed amount and whose turn it is
/refresh - sync with the game now
/cost N - set the daily upkeep cost
/name X - set the other party's name
/anchor YYYY-MM-DD - set the cycle anchor date
/override self|them|clear - pin whose turn it is
/key K - set the API key
/mute, /unmute - switch reminders off or on`

var commandNames = []string{
	"/status", "/refresh", "/cost", "/name", "/anchor", "/override", "/key", "/mute", "/unmute", "/help",
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return helpText
	}
	cmd := strings.ToLower(fields[0])
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), fields[0]))

	switch cmd {
	case "/status", "/start":
		return s.status()
	case "/refresh":
		out, err := s.Refresh(s.Ctx)
		if err != nil {
			return notifier.FormatError(err)
		}
		if msg := failureMessage(out); msg != "" {
			return msg
		}
		return s.status()
	case "/cost":
		if err := s.Manager.SetDailyCost(arg); err != nil {
			return notifier.FormatError(err)
		}
		return s.confirm("Daily cost updated")
	case "/name":
		if err := s.Manager.SetCounterparty(arg); err != nil {
			return notifier.FormatError(err)
		}
		return s.confirm("Counterparty updated")
	case "/anchor":
		if err := s.Manager.SetCycleAnchor(arg); err != nil {
			return notifier.FormatError(err)
		}
		return s.confirm("Cycle anchor updated")
	case "/override":
		if err := s.Manager.SetOverride(arg); err != nil {
			return notifier.FormatError(err)
		}
		return s.confirm("Turn override updated")
	case "/key":
		if err := s.Manager.SetCredential(arg); err != nil {
			return notifier.FormatError(err)
		}
		return "🔑 API key saved. Send /refresh to sync now."
	case "/mute":
		if err := s.Manager.SetMuted(true); err != nil {
			return notifier.FormatError(err)
		}
		return "🔕 Reminders muted"
	case "/unmute":
		if err := s.Manager.SetMuted(false); err != nil {
			return notifier.FormatError(err)
		}
		return "🔔 Reminders on"
	case "/help":
		return helpText
	default:
		if guess := closestCommand(cmd); guess != "" {
			return fmt.Sprintf("Unknown command %s, did you mean %s?\n\n%s", notifier.Escape(cmd), guess, helpText)
		}
		return helpText
	}
}

// closestCommand returns a known command within two edits of cmd, if any.
func closestCommand(cmd string) string {
	if !strings.HasPrefix(cmd, "/") {
		return ""
	}
	best, bestDist := "", 3
	for _, name := range commandNames {
		if d := levenshtein.ComputeDistance(cmd, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

func (s *Scheduler) status() string {
	now := s.now()
	st, err := s.Manager.Current(now)
	if err != nil {
		return notifier.FormatError(err)
	}
	snap, err := s.Manager.Snapshot()
	if err != nil {
		return notifier.FormatError(err)
	}
	return notifier.FormatStatus(st, snap) +
		fmt.Sprintf("Next reminder: %s UTC", s.NextReminderAt(now).Format("2006-01-02 15:04"))
}

func (s *Scheduler) confirm(what string) string {
	return "✅ " + what + "\n\n" + s.status()
}
