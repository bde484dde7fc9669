package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/logger"
)

// Keyring coordinates for the master key.
const (
	KeyringService = "quonitor"
	KeyringUser    = "master_key"
)

// ErrKeyNotFound is returned by a KeyStore that holds no key yet.
var ErrKeyNotFound = errors.New("master key not found")

// KeyStore persists the base64-encoded master key.
type KeyStore interface {
	Name() string
	Load() (string, error)
	Save(encoded string) error
}

// KeyringStore keeps the key in the OS credential store.
type KeyringStore struct {
	Service string
	User    string
}

func (k KeyringStore) Name() string { return "keyring" }

func (k KeyringStore) Load() (string, error) {
	v, err := keyring.Get(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrKeyNotFound
	}
	return v, err
}

func (k KeyringStore) Save(encoded string) error {
	return keyring.Set(k.Service, k.User, encoded)
}

// FileStore keeps the key in an owner-only file. Used on hosts without a
// keyring daemon.
type FileStore struct {
	Path string
}

func (f FileStore) Name() string { return "file" }

func (f FileStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileStore) Save(encoded string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	return os.WriteFile(f.Path, []byte(encoded+"\n"), 0o600)
}

// DefaultKeyStores returns the keyring followed by the key file fallback.
func DefaultKeyStores(keyFile string) []KeyStore {
	return []KeyStore{
		KeyringStore{Service: KeyringService, User: KeyringUser},
		FileStore{Path: keyFile},
	}
}

// LoadOrCreateKey returns the first key found in stores, in order. When none
// holds a key a new one is generated and saved to the first store that
// accepts it. A stored key that does not decode is an error rather than a
// reason to regenerate, since that would orphan every sealed credential.
func LoadOrCreateKey(stores ...KeyStore) ([]byte, error) {
	if len(stores) == 0 {
		return nil, apperr.Encryption("no master key store configured")
	}
	for _, s := range stores {
		encoded, err := s.Load()
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			logger.Warn("master key store unavailable", "store", s.Name(), "error", err)
			continue
		}
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, apperr.Encryption("failed to decode master key from %s: %v", s.Name(), err)
		}
		if len(key) != KeySize {
			return nil, apperr.Encryption("master key from %s has %d bytes, want %d", s.Name(), len(key), KeySize)
		}
		logger.Debug("loaded master key", "store", s.Name())
		return key, nil
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, apperr.Wrap(apperr.ErrEncryption, err, "failed to generate master key")
	}
	encoded := base64.StdEncoding.EncodeToString(key)

	var errs []error
	for _, s := range stores {
		if err := s.Save(encoded); err != nil {
			logger.Warn("failed to persist master key", "store", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		logger.Info("created master key", "store", s.Name())
		return key, nil
	}

	return nil, apperr.Wrap(apperr.ErrEncryption, errors.Join(errs...), "failed to store master key")
}
