// Package settings holds the durable key/value store behind the Settings
// aggregate and the mapping between the two.
package settings

import (
	"fmt"
	"log"
	"strconv"

	"UpkeepSentinel/internal/model"
)

// Store is a durable string key/value store. Values survive restarts.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// SetMany writes all values in one step.
	SetMany(values map[string]string) error
	Close() error
}

const (
	KeyCredential      = "credential"
	KeyCycleAnchor     = "cycle_anchor"
	KeyCounterparty    = "counterparty"
	KeyDailyCost       = "daily_cost"
	KeyTurnOverride    = "turn_override"
	KeyLastPaymentDate = "last_payment_date"
	KeyAmountOwed      = "amount_owed"
	KeyOwedBase        = "owed_base"
	KeyOwedAsOf        = "owed_as_of"
	KeyLastSyncDate    = "last_sync_date"
	KeyRemindersMuted  = "reminders_muted"
)

// GetOr returns the stored value for key, or def when it is absent.
func GetOr(s Store, key, def string) (string, error) {
	v, ok, err := s.Get(key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// Load reads the Settings aggregate, starting from defaults. A stored value
// that no longer parses is dropped in favor of the default. The credential is
// resolved separately by the auth package.
func Load(s Store, defaults model.Settings) (model.Settings, error) {
	out := defaults

	str := func(key string, dst *string) error {
		v, ok, err := s.Get(key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if ok {
			*dst = v
		}
		return nil
	}
	day := func(key string, dst *model.Day) error {
		v, ok, err := s.Get(key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if !ok {
			return nil
		}
		d, err := model.ParseDay(v)
		if err != nil {
			log.Printf("[WARN] stored %s=%q is invalid, keeping %q", key, v, dst.String())
			return nil
		}
		*dst = d
		return nil
	}
	num := func(key string, dst *int64, min int64) error {
		v, ok, err := s.Get(key)
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		if !ok {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < min {
			log.Printf("[WARN] stored %s=%q is invalid, keeping %d", key, v, *dst)
			return nil
		}
		*dst = n
		return nil
	}

	steps := []func() error{
		func() error { return str(KeyCounterparty, &out.Counterparty) },
		func() error { return day(KeyCycleAnchor, &out.CycleAnchor) },
		func() error { return num(KeyDailyCost, &out.DailyCost, 1) },
		func() error { return day(KeyLastPaymentDate, &out.LastPaymentDate) },
		func() error { return num(KeyAmountOwed, &out.AmountOwed, 0) },
		func() error { return num(KeyOwedBase, &out.OwedBase, 0) },
		func() error { return day(KeyOwedAsOf, &out.OwedAsOf) },
		func() error { return day(KeyLastSyncDate, &out.LastSyncDate) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return defaults, err
		}
	}

	if v, ok, err := s.Get(KeyTurnOverride); err != nil {
		return defaults, fmt.Errorf("get %s: %w", KeyTurnOverride, err)
	} else if ok {
		o, err := model.ParseTurnOverride(v)
		if err != nil {
			log.Printf("[WARN] stored %s=%q is invalid, clearing override", KeyTurnOverride, v)
		}
		out.TurnOverride = o
	}
	if v, ok, err := s.Get(KeyRemindersMuted); err != nil {
		return defaults, fmt.Errorf("get %s: %w", KeyRemindersMuted, err)
	} else if ok {
		out.RemindersMuted = v == "true"
	}

	return out, nil
}

// Save writes every Settings field except the credential.
func Save(s Store, st model.Settings) error {
	values := map[string]string{
		KeyCounterparty:    st.Counterparty,
		KeyCycleAnchor:     st.CycleAnchor.String(),
		KeyDailyCost:       strconv.FormatInt(st.DailyCost, 10),
		KeyTurnOverride:    st.TurnOverride.String(),
		KeyLastPaymentDate: st.LastPaymentDate.String(),
		KeyAmountOwed:      strconv.FormatInt(st.AmountOwed, 10),
		KeyOwedBase:        strconv.FormatInt(st.OwedBase, 10),
		KeyOwedAsOf:        st.OwedAsOf.String(),
		KeyLastSyncDate:    st.LastSyncDate.String(),
		KeyRemindersMuted:  strconv.FormatBool(st.RemindersMuted),
	}
	if err := s.SetMany(values); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
