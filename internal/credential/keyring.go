package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName = "planner"
	tokenKey    = "auth-token"
)

// ErrNoToken is returned when no bearer token has been stored.
var ErrNoToken = errors.New("not logged in")

// Vault persists the bearer token in the system keyring.
type Vault struct {
	ring keyring.Keyring
}

// OpenVault opens the system keyring, falling back to an encrypted file
// under configDir/credentials when no native backend is available.
func OpenVault(configDir string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(configDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("planner-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewVault(ring), nil
}

// NewVault wraps an already opened keyring.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Token returns the stored bearer token, or ErrNoToken.
func (v *Vault) Token() (string, error) {
	item, err := v.ring.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", tokenKey, err)
	}
	if len(item.Data) == 0 {
		return "", ErrNoToken
	}
	return string(item.Data), nil
}

// SetToken stores the bearer token.
func (v *Vault) SetToken(token string) error {
	err := v.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "planner bearer token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", tokenKey, err)
	}
	return nil
}

// Clear removes the bearer token. Clearing an empty vault is not an error.
func (v *Vault) Clear() error {
	err := v.ring.Remove(tokenKey)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", tokenKey, err)
	}
	return nil
}
