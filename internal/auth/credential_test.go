package auth

import (
	"errors"
	"testing"

	"UpkeepSentinel/internal/model"
	"UpkeepSentinel/internal/settings"

	"github.com/zalando/go-keyring"
)

func TestLoadCredentialPrefersEnv(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TORN_API_KEY", "env-key")
	store := settings.NewMemoryStore()
	_ = store.Set(settings.KeyCredential, "stored-key")

	got, err := LoadCredential(store, "")
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if got != "env-key" {
		t.Fatalf("LoadCredential() = %q, want %q", got, "env-key")
	}
}

func TestSaveThenLoadUsesKeyring(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TORN_API_KEY", "")
	store := settings.NewMemoryStore()

	if err := SaveCredential(store, "  keyring-key \n"); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	got, err := LoadCredential(store, "")
	if err != nil {
		t.Fatalf("LoadCredential() error = %v", err)
	}
	if got != "keyring-key" {
		t.Fatalf("LoadCredential() = %q, want %q", got, "keyring-key")
	}
	if v, _, _ := store.Get(settings.KeyCredential); v != "" {
		t.Fatalf("stored plaintext key = %q, want empty", v)
	}
}

func TestSaveFallsBackToStore(t *testing.T) {
	t.Setenv("TORN_API_KEY", "")
	origGet, origSet, origDelete := keyringGet, keyringSet, keyringDelete
	t.Cleanup(func() { keyringGet, keyringSet, keyringDelete = origGet, origSet, origDelete })
	keyringSet = func(_, _, _ string) error { return errors.New("no dbus") }
	keyringGet = func(_, _ string) (string, error) { return "", errors.New("no dbus") }
	keyringDelete = func(_, _ string) error { return errors.New("no dbus") }

	store := settings.NewMemoryStore()
	if err := SaveCredential(store, "fallback-key"); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	got, err := LoadCredential(store, "")
	if err != nil || got != "fallback-key" {
		t.Fatalf("LoadCredential() = %q, %v; want fallback-key", got, err)
	}
}

func TestMissingAndPlaceholderCredential(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TORN_API_KEY", model.Unconfigured)
	store := settings.NewMemoryStore()
	_ = store.Set(settings.KeyCredential, model.Unconfigured)

	_, err := LoadCredential(store, "")
	if !errors.Is(err, model.ErrCredentialMissing) {
		t.Fatalf("LoadCredential() error = %v, want ErrCredentialMissing", err)
	}
	if err := SaveCredential(store, "   "); !errors.Is(err, model.ErrConfigInvalid) {
		t.Fatalf("SaveCredential(blank) error = %v, want ErrConfigInvalid", err)
	}
}

func TestFallbackKeyShadowsStaleKeyringItem(t *testing.T) {
	t.Setenv("TORN_API_KEY", "")
	origGet, origSet, origDelete := keyringGet, keyringSet, keyringDelete
	t.Cleanup(func() { keyringGet, keyringSet, keyringDelete = origGet, origSet, origDelete })
	keyringGet = func(_, _ string) (string, error) { return "old-key", nil }
	keyringSet = func(_, _, _ string) error { return errors.New("locked") }
	deleted := false
	keyringDelete = func(_, _ string) error { deleted = true; return errors.New("locked") }

	store := settings.NewMemoryStore()
	if err := SaveCredential(store, "new-key"); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	if !deleted {
		t.Error("expected an attempt to delete the stale keyring item")
	}
	got, err := LoadCredential(store, "")
	if err != nil || got != "new-key" {
		t.Fatalf("LoadCredential() = %q, %v; want new-key", got, err)
	}
}

func TestConfiguredKeyIsLowestPrecedence(t *testing.T) {
	keyring.MockInit()
	t.Setenv("TORN_API_KEY", "")
	store := settings.NewMemoryStore()

	got, err := LoadCredential(store, " config-key ")
	if err != nil || got != "config-key" {
		t.Fatalf("LoadCredential() = %q, %v; want config-key", got, err)
	}

	if err := SaveCredential(store, "keyring-key"); err != nil {
		t.Fatalf("SaveCredential() error = %v", err)
	}
	got, err = LoadCredential(store, "config-key")
	if err != nil || got != "keyring-key" {
		t.Fatalf("LoadCredential() = %q, %v; want keyring-key over the config file", got, err)
	}

	keyring.MockInit()
	if _, err := LoadCredential(settings.NewMemoryStore(), model.Unconfigured); !errors.Is(err, model.ErrCredentialMissing) {
		t.Fatalf("placeholder config key: error = %v, want ErrCredentialMissing", err)
	}
}
