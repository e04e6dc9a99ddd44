// Package secret stores the provider API key sealed on disk.
//
// The key is encrypted with XChaCha20-Poly1305 under a key derived by HKDF
// from a random master key kept next to it with owner-only permissions.
package secret

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"inplace/internal/security"
)

const (
	masterKeyFile = "master.key"
	sealedKeyFile = "api_key.sealed"

	// sealedVersion prefixes every sealed blob.
	sealedVersion byte = 1

	maxSealedSize = 64 << 10
)

// ErrCorrupt is returned when the sealed key cannot be opened.
var ErrCorrupt = errors.New("secret: sealed key is corrupt")

// EnvAPIKey overrides the stored key when set.
const EnvAPIKey = "INPLACE_API_KEY"

// Store keeps one API key under dir.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore returns a store rooted at dir. Nothing is created until Set.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the directory holding the key files.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// APIKey returns the key to use for requests: the environment override if
// set, otherwise the stored key, otherwise "".
func (s *Store) APIKey() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v, nil
	}
	return s.Get()
}

// Get returns the stored key, or "" when none is stored.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := security.ReadSecureFile(s.path(sealedKeyFile), maxSealedSize)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read sealed key: %w", err)
	}
	master, err := security.ReadSecureFile(s.path(masterKeyFile), 1024)
	if err != nil {
		return "", fmt.Errorf("%w: master key: %v", ErrCorrupt, err)
	}
	defer security.Wipe(master)

	plain, err := open(master, blob)
	if err != nil {
		return "", err
	}
	defer security.Wipe(plain)
	return string(plain), nil
}

// Has reports whether a key is stored.
func (s *Store) Has() bool {
	_, err := os.Stat(s.path(sealedKeyFile))
	return err == nil
}

// Set stores key, replacing any previous one. An empty key clears.
func (s *Store) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := security.EnsureSecureDir(s.dir); err != nil {
		return fmt.Errorf("create secret dir: %w", err)
	}
	return security.WithFileLock(s.path(sealedKeyFile), func() error {
		master, err := s.masterKey()
		if err != nil {
			return err
		}
		defer security.Wipe(master)

		blob, err := seal(master, []byte(key))
		if err != nil {
			return err
		}
		return security.WriteSecretFile(s.path(sealedKeyFile), blob)
	})
}

// Clear removes the stored key. The master key is kept.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(sealedKeyFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove sealed key: %w", err)
	}
	return nil
}

// masterKey loads the master key, creating it on first use.
func (s *Store) masterKey() ([]byte, error) {
	path := s.path(masterKeyFile)
	master, err := security.ReadSecureFile(path, 1024)
	if err == nil {
		if len(master) < security.MinKeySize {
			return nil, fmt.Errorf("%w: master key too short", ErrCorrupt)
		}
		return master, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read master key: %w", err)
	}

	master, err = security.GenerateKey(security.RecommendedKeySize)
	if err != nil {
		return nil, err
	}
	if err := security.WriteSecretFile(path, master); err != nil {
		return nil, fmt.Errorf("write master key: %w", err)
	}
	// The sealed key under an older master can no longer be opened.
	os.Remove(s.path(sealedKeyFile))
	return master, nil
}

func aead(master []byte) (cipher.AEAD, error) {
	k, err := security.DeriveKeyWithLabel(master, "api-key", chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer security.Wipe(k)
	return chacha20poly1305.NewX(k)
}

// seal returns version || nonce || ciphertext.
func seal(master, plain []byte) ([]byte, error) {
	a, err := aead(master)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, a.NonceSize())
	if err := security.GenerateSecureRandom(nonce); err != nil {
		return nil, err
	}
	out := append([]byte{sealedVersion}, nonce...)
	return a.Seal(out, nonce, plain, []byte{sealedVersion}), nil
}

func open(master, blob []byte) ([]byte, error) {
	a, err := aead(master)
	if err != nil {
		return nil, err
	}
	if len(blob) < 1+a.NonceSize()+a.Overhead() || blob[0] != sealedVersion {
		return nil, ErrCorrupt
	}
	nonce := blob[1 : 1+a.NonceSize()]
	plain, err := a.Open(nil, nonce, blob[1+a.NonceSize():], blob[:1])
	if err != nil {
		return nil, ErrCorrupt
	}
	return plain, nil
}
