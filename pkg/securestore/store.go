// Package securestore persists small secrets: auth tokens and the push
// device token. FileStore seals everything into one passphrase-encrypted
// file; MemoryStore keeps values in process for tests and ephemeral sessions.
package securestore

import "errors"

// Well-known keys.
const (
	KeyAccessToken  = "auth.access_token"
	KeyRefreshToken = "auth.refresh_token"
	KeyDeviceToken  = "push.device_token"
)

var (
	// ErrWrongPassphrase is returned when the store cannot be opened with the given passphrase,
	// or the file was modified.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted store")

	// ErrCorruptStore is returned when the store file is not a valid envelope
	// or carries key derivation parameters outside the accepted range.
	ErrCorruptStore = errors.New("corrupted secure store")

	// ErrEmptyKey is returned for operations with an empty key.
	ErrEmptyKey = errors.New("key must not be empty")
)

// Store is a secure key-value store. Get reports ok=false for absent keys.
type Store interface {
	Set(key, value string) error
	Get(key string) (value string, ok bool, err error)
	Delete(key string) error
}
