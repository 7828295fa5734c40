package model

import "errors"

var (
	// ErrCredentialMissing means no usable API key is configured.
	ErrCredentialMissing = errors.New("credential missing")
	// ErrCredentialInvalid means the remote side rejected the API key.
	ErrCredentialInvalid = errors.New("credential invalid")
	// ErrTransientFetch covers network, timeout, status and parse failures.
	ErrTransientFetch = errors.New("transient fetch failure")
	// ErrConfigInvalid marks user input or configuration that was rejected.
	ErrConfigInvalid = errors.New("config invalid")
)

// IsCredentialError reports whether err should send the user back to set a key.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredentialMissing) || errors.Is(err, ErrCredentialInvalid)
}
