package accounting

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"UpkeepSentinel/internal/auth"
	"UpkeepSentinel/internal/model"
	"UpkeepSentinel/internal/settings"
)

// Outcome describes one fold for logging, recording and notification.
type Outcome struct {
	Result model.FetchResult
	Before model.Settings
	After  model.Settings
	State  model.AccountingState
}

// Manager serializes every read-modify-write of the settings aggregate.
// Only Manager writes derived fields.
type Manager struct {
	mu       sync.Mutex
	store    settings.Store
	defaults model.Settings
}

// NewManager creates a Manager, initializing the store with defaults on first run.
func NewManager(store settings.Store, defaults model.Settings) (*Manager, error) {
	m := &Manager{store: store, defaults: defaults}

	_, seeded, err := store.Get(settings.KeyDailyCost)
	if err != nil {
		return nil, fmt.Errorf("probe settings: %w", err)
	}
	if !seeded {
		log.Println("[INFO] first run, writing default settings")
		if err := settings.Save(store, defaults); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Snapshot returns a copy of the current settings, credential included.
func (m *Manager) Snapshot() (model.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return model.Settings{}, err
	}
	if key, err := auth.LoadCredential(m.store, m.defaults.Credential); err == nil {
		s.Credential = key
	}
	return s, nil
}

// Credential resolves the API key for the payment feeds. The default
// settings' credential, taken from the config file, is the last resort.
func (m *Manager) Credential() (string, error) {
	return auth.LoadCredential(m.store, m.defaults.Credential)
}

// Fold applies a fetch result and persists the new settings.
func (m *Manager) Fold(res model.FetchResult, now time.Time) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before, err := m.load()
	if err != nil {
		return Outcome{}, err
	}
	after, state := Fold(before, res, model.DayOf(now))
	if err := settings.Save(m.store, after); err != nil {
		return Outcome{}, err
	}

	log.Printf("[INFO] fold %s/%s: owed %d -> %d, last payment %q, self turn %v",
		res.Source, res.Kind, before.AmountOwed, after.AmountOwed, after.LastPaymentDate.String(), state.IsSelfTurn)
	return Outcome{Result: res, Before: before, After: after, State: state}, nil
}

// Current evaluates the persisted settings at now without writing anything.
func (m *Manager) Current(now time.Time) (model.AccountingState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return model.AccountingState{}, err
	}
	return Evaluate(s, model.DayOf(now)), nil
}

// SyncedOn reports whether a successful remote fetch was already folded on day.
func (m *Manager) SyncedOn(day model.Day) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return false, err
	}
	return s.LastSyncDate.Equal(day), nil
}

// RemindersMuted reports whether reminder delivery is switched off.
func (m *Manager) RemindersMuted() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return false, err
	}
	return s.RemindersMuted, nil
}

// SetCredential stores a new API key.
func (m *Manager) SetCredential(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return auth.SaveCredential(m.store, key)
}

// SetCounterparty renames the other party. Blank names are rejected.
func (m *Manager) SetCounterparty(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: counterparty name cannot be empty", model.ErrConfigInvalid)
	}
	return m.edit(func(s *model.Settings) { s.Counterparty = name })
}

// SetCycleAnchor parses a YYYY-MM-DD anchor date.
func (m *Manager) SetCycleAnchor(text string) error {
	text = strings.TrimSpace(text)
	d, err := model.ParseDay(text)
	if err != nil || d.IsZero() {
		return fmt.Errorf("%w: anchor date must be YYYY-MM-DD, got %q", model.ErrConfigInvalid, text)
	}
	return m.edit(func(s *model.Settings) { s.CycleAnchor = d })
}

// SetDailyCost parses a positive whole amount; "$352,500" is accepted.
func (m *Manager) SetDailyCost(text string) error {
	clean := strings.NewReplacer("$", "", ",", "", "_", "", " ", "").Replace(text)
	cost, err := strconv.ParseInt(clean, 10, 64)
	if err != nil || cost <= 0 {
		return fmt.Errorf("%w: daily cost must be a positive number, got %q", model.ErrConfigInvalid, text)
	}
	return m.edit(func(s *model.Settings) { s.DailyCost = cost })
}

// SetOverride pins or clears whose turn it is.
func (m *Manager) SetOverride(text string) error {
	o, err := model.ParseTurnOverride(text)
	if err != nil {
		return err
	}
	return m.edit(func(s *model.Settings) { s.TurnOverride = o })
}

// SetMuted switches reminder delivery off or on.
func (m *Manager) SetMuted(muted bool) error {
	return m.edit(func(s *model.Settings) { s.RemindersMuted = muted })
}

func (m *Manager) edit(apply func(*model.Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.load()
	if err != nil {
		return err
	}
	apply(&s)
	return settings.Save(m.store, s)
}

func (m *Manager) load() (model.Settings, error) {
	s, err := settings.Load(m.store, m.defaults)
	if err != nil {
		return model.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}
