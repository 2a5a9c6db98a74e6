// Package secrets keeps the loopback API token in the OS keychain, with a
// 0600 file fallback for hosts that have no keyring service.
package secrets

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
	"lukechampine.com/frand"
)

const (
	// DefaultService is the keychain service name entries are filed under.
	DefaultService = "everything-launcher"

	keyAPIToken = "api-token"
	tokenBytes  = 24
)

// ErrNotFound is returned when no token has been stored.
var ErrNotFound = keyring.ErrNotFound

// TokenStore reads and writes the loopback API token.
type TokenStore struct {
	service      string
	fallbackPath string
	mu           sync.Mutex
}

// NewTokenStore creates a store. fallbackPath may be empty to disable the
// file fallback.
func NewTokenStore(service, fallbackPath string) *TokenStore {
	if strings.TrimSpace(service) == "" {
		service = DefaultService
	}
	return &TokenStore{service: service, fallbackPath: fallbackPath}
}

// Token returns the stored token or ErrNotFound.
func (s *TokenStore) Token() (string, error) {
	val, err := keyring.Get(s.service, keyAPIToken)
	if err == nil {
		return val, nil
	}
	if !isKeyringUnavailable(err) && !errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("secrets: keyring get: %w", err)
	}

	fallback, ferr := s.getFallback()
	if ferr == nil {
		return fallback, nil
	}
	if errors.Is(err, keyring.ErrNotFound) || errors.Is(ferr, ErrNotFound) {
		return "", ErrNotFound
	}
	return "", ferr
}

// SetToken stores token, replacing any previous one.
func (s *TokenStore) SetToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("secrets: token is empty")
	}
	err := keyring.Set(s.service, keyAPIToken, token)
	if err == nil {
		return nil
	}
	if !isKeyringUnavailable(err) {
		return fmt.Errorf("secrets: keyring set: %w", err)
	}
	return s.setFallback(token)
}

// LoadOrCreate returns the stored token, generating and storing a new
// random one on first use.
func (s *TokenStore) LoadOrCreate() (token string, created bool, err error) {
	token, err = s.Token()
	if err == nil {
		return token, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}

	token = hex.EncodeToString(frand.Bytes(tokenBytes))
	if err := s.SetToken(token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Delete removes the token from the keyring and the fallback file.
func (s *TokenStore) Delete() error {
	err := keyring.Delete(s.service, keyAPIToken)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) && !isKeyringUnavailable(err) {
		return fmt.Errorf("secrets: keyring delete: %w", err)
	}
	if strings.TrimSpace(s.fallbackPath) == "" {
		return nil
	}
	if err := os.Remove(s.fallbackPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("secrets: remove fallback: %w", err)
	}
	return nil
}

func isKeyringUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, keyring.ErrUnsupportedPlatform) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "secret service") ||
		strings.Contains(msg, "dbus") ||
		strings.Contains(msg, "no keychain") ||
		strings.Contains(msg, "keyring backend not available")
}

type fallbackFile map[string]string

func (s *TokenStore) getFallback() (string, error) {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return "", fmt.Errorf("secrets: fallback path not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallbackUnlocked()
	if err != nil {
		return "", err
	}
	val, ok := data[keyAPIToken]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *TokenStore) setFallback(token string) error {
	if strings.TrimSpace(s.fallbackPath) == "" {
		return fmt.Errorf("secrets: keyring unavailable and no fallback path configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.readFallbackUnlocked()
	if err != nil {
		return err
	}
	data[keyAPIToken] = token

	if err := os.MkdirAll(filepath.Dir(s.fallbackPath), 0o700); err != nil {
		return fmt.Errorf("secrets: mkdir fallback dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("secrets: encode fallback: %w", err)
	}
	if err := os.WriteFile(s.fallbackPath, raw, 0o600); err != nil {
		return fmt.Errorf("secrets: write fallback: %w", err)
	}
	return nil
}

func (s *TokenStore) readFallbackUnlocked() (fallbackFile, error) {
	out := fallbackFile{}
	raw, err := os.ReadFile(s.fallbackPath)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("secrets: read fallback: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("secrets: decode fallback: %w", err)
	}
	return out, nil
}
