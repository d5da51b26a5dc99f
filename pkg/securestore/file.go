package securestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// FileStore is a Store sealed into a single encrypted file. The contents are
// decrypted once on open and re-sealed with a fresh salt and nonce on every write.
type FileStore struct {
	mu         sync.Mutex
	path       string
	passphrase string
	params     scryptParams
	values     map[string]string
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithScryptCost overrides the key derivation cost. Lower values are only
// suitable for tests.
func WithScryptCost(n, r, p int) FileOption {
	return func(s *FileStore) {
		s.params = scryptParams{N: n, R: r, P: p}
	}
}

// OpenFileStore opens the store at path, creating an empty one if the file
// does not exist. A wrong passphrase returns ErrWrongPassphrase.
func OpenFileStore(path, passphrase string, opts ...FileOption) (*FileStore, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase is required")
	}

	s := &FileStore{
		path:       path,
		passphrase: passphrase,
		params:     defaultScryptParams(),
		values:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Secure store not found, starting empty")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secure store: %w", err)
	}

	raw, err := open(passphrase, data)
	if err != nil {
		return nil, err
	}
	defer zero(raw)

	if err := json.Unmarshal(raw, &s.values); err != nil {
		return nil, fmt.Errorf("decode secure store: %w", err)
	}
	return s, nil
}

// Set stores value under key and re-seals the file. The in-memory value is
// rolled back when the write fails.
func (s *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	s.values[key] = value
	if err := s.persistLocked(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Delete removes key and re-seals the file. Deleting an absent key is a no-op.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.values[key]
	if !existed {
		return nil
	}
	delete(s.values, key)
	if err := s.persistLocked(); err != nil {
		s.values[key] = prev
		return err
	}
	return nil
}

// persistLocked seals the values and writes them via a temp file then rename.
func (s *FileStore) persistLocked() error {
	raw, err := json.Marshal(s.values)
	if err != nil {
		return err
	}
	defer zero(raw)

	sealed, err := seal(s.passphrase, raw, s.params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write secure store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace secure store: %w", err)
	}
	return nil
}
