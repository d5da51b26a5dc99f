package securestore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

// formatVersion is the current on-disk envelope version.
const formatVersion = 1

// envelope is the on-disk JSON structure holding the ciphertext and KDF parameters.
type envelope struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// scryptParams are the key derivation cost parameters.
type scryptParams struct {
	N, R, P int
}

func defaultScryptParams() scryptParams { return scryptParams{N: 1 << 15, R: 8, P: 1} }

// Upper bounds accepted when reading a store file.
const (
	maxScryptN = 1 << 20
	maxScryptR = 32
	maxScryptP = 16
	minSaltLen = 16
)

// check rejects parameters scrypt cannot use or that would make opening the
// store unreasonably expensive.
func (p scryptParams) check() error {
	switch {
	case p.N < 2 || p.N > maxScryptN || p.N&(p.N-1) != 0:
		return fmt.Errorf("scrypt N %d out of range", p.N)
	case p.R < 1 || p.R > maxScryptR:
		return fmt.Errorf("scrypt r %d out of range", p.R)
	case p.P < 1 || p.P > maxScryptP:
		return fmt.Errorf("scrypt p %d out of range", p.P)
	}
	return nil
}

// seal derives a key from passphrase with a fresh salt and encrypts raw.
func seal(passphrase string, raw []byte, params scryptParams) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return json.Marshal(envelope{
		V:      formatVersion,
		Salt:   salt,
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Nonce:  nonce,
		Cipher: aead.Seal(nil, nonce, raw, salt),
	})
}

// open decrypts an envelope produced by seal.
func open(passphrase string, data []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	if env.V > formatVersion {
		return nil, fmt.Errorf("unsupported store version %d", env.V)
	}
	if len(env.Nonce) != chacha20poly1305.NonceSizeX || len(env.Salt) < minSaltLen {
		return nil, fmt.Errorf("%w: malformed nonce or salt", ErrCorruptStore)
	}
	if err := (scryptParams{N: env.N, R: env.R, P: env.P}).check(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}

	key, err := scrypt.Key([]byte(passphrase), env.Salt, env.N, env.R, env.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	raw, err := aead.Open(nil, env.Nonce, env.Cipher, env.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
