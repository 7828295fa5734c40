package model

import (
	"fmt"
	"strings"
)

// TurnOverride is a manual pin on whose turn it is.
type TurnOverride int

const (
	OverrideUnset TurnOverride = iota
	OverrideSelf
	OverrideCounterparty
)

func (o TurnOverride) String() string {
	switch o {
	case OverrideSelf:
		return "self"
	case OverrideCounterparty:
		return "counterparty"
	default:
		return ""
	}
}

// ParseTurnOverride accepts the words users type in commands and settings.
func ParseTurnOverride(s string) (TurnOverride, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clear", "unset", "none", "auto":
		return OverrideUnset, nil
	case "self", "me", "mine":
		return OverrideSelf, nil
	case "counterparty", "them", "other", "theirs":
		return OverrideCounterparty, nil
	}
	return OverrideUnset, fmt.Errorf("%w: unknown turn override %q", ErrConfigInvalid, s)
}

// Settings is the durable state shared by the accounting engine, the scheduler
// and user edits.
type Settings struct {
	Credential      string
	CycleAnchor     Day
	Counterparty    string
	DailyCost       int64
	TurnOverride    TurnOverride
	LastPaymentDate Day
	AmountOwed      int64

	// OwedBase is the owed amount known on OwedAsOf; accrual runs from there.
	OwedBase int64
	OwedAsOf Day

	LastSyncDate   Day
	RemindersMuted bool
}

// Unconfigured is the placeholder key shipped in fresh installs.
const Unconfigured = "YOUR_API_KEY_HERE"

// HasCredential reports whether a usable credential is set.
func (s Settings) HasCredential() bool {
	c := strings.TrimSpace(s.Credential)
	return c != "" && c != Unconfigured
}
