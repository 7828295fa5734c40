// Package auth resolves and stores the payment feed API key.
package auth

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"UpkeepSentinel/internal/model"
	"UpkeepSentinel/internal/settings"

	"github.com/zalando/go-keyring"
)

const (
	defaultSecretService = "upkeep-sentinel"
	defaultSecretUser    = "torn_api_key"
)

var (
	keyringGet    = keyring.Get
	keyringSet    = keyring.Set
	keyringDelete = keyring.Delete
)

// LoadCredential returns the API key.
//
// Order of precedence:
// 1) TORN_API_KEY environment variable.
// 2) The settings store. It only holds a key when the keyring write failed,
// so it is newer than any keyring item.
// 3) OS keyring item referenced by service/account.
// 4) configured, the key from the config file.
//
// A missing or placeholder key yields model.ErrCredentialMissing.
func LoadCredential(store settings.Store, configured string) (string, error) {
	if key := strings.TrimSpace(os.Getenv("TORN_API_KEY")); usable(key) {
		return key, nil
	}

	if store != nil {
		v, _, err := store.Get(settings.KeyCredential)
		if err != nil {
			return "", fmt.Errorf("read stored credential: %w", err)
		}
		if usable(strings.TrimSpace(v)) {
			return strings.TrimSpace(v), nil
		}
	}

	service, account := secretRef()
	secret, err := keyringGet(service, account)
	switch {
	case err == nil && usable(strings.TrimSpace(secret)):
		return strings.TrimSpace(secret), nil
	case err != nil && !errors.Is(err, keyring.ErrNotFound):
		log.Printf("[WARN] read keyring item service=%q account=%q: %v", service, account, err)
	}

	if key := strings.TrimSpace(configured); usable(key) {
		return key, nil
	}
	return "", model.ErrCredentialMissing
}

// SaveCredential stores the key in the OS keyring, falling back to the
// settings store when no keyring is available.
func SaveCredential(store settings.Store, key string) error {
	trimmed := strings.TrimSpace(key)
	if !usable(trimmed) {
		return fmt.Errorf("%w: api key cannot be empty", model.ErrConfigInvalid)
	}

	service, account := secretRef()
	if err := keyringSet(service, account, trimmed); err != nil {
		log.Printf("[WARN] keyring unavailable (%v), storing api key in settings", err)
		if store == nil {
			return fmt.Errorf("store api key: %w", err)
		}
		if err := store.Set(settings.KeyCredential, trimmed); err != nil {
			return fmt.Errorf("store api key: %w", err)
		}
		if err := keyringDelete(service, account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("[WARN] keyring item service=%q account=%q may be stale, the settings copy takes precedence: %v", service, account, err)
		}
		return nil
	}
	if store != nil {
		// Clear any plaintext copy left by an earlier fallback.
		if err := store.Set(settings.KeyCredential, ""); err != nil {
			return fmt.Errorf("clear stored api key: %w", err)
		}
	}
	return nil
}

func usable(key string) bool {
	return key != "" && key != model.Unconfigured
}

func secretRef() (string, string) {
	return envOrDefault("UPKEEP_KEYRING_SERVICE", defaultSecretService),
		envOrDefault("UPKEEP_KEYRING_ACCOUNT", defaultSecretUser)
}

func envOrDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
