// Package vault keeps the backend session token in the OS keyring
// (macOS Keychain, Windows Credential Manager, Secret Service on Linux).
package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// keyringService is the keyring service label; the account is the backend URL.
const keyringService = "sercha-connect"

// Ensure KeyringVault implements the interface.
var _ driven.SessionVault = (*KeyringVault)(nil)

// KeyringVault is a driven.SessionVault backed by the OS keyring.
// Tokens are stored per backend so switching backend.url does not leak a
// session to another host.
type KeyringVault struct {
	account string
}

// NewKeyringVault creates a vault for the given backend URL.
func NewKeyringVault(backendURL string) *KeyringVault {
	return &KeyringVault{account: strings.TrimRight(backendURL, "/")}
}

// Token returns the stored session token.
func (v *KeyringVault) Token() (string, error) {
	tok, err := keyring.Get(keyringService, v.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read keyring: %w", err)
	}
	return tok, nil
}

// SetToken stores the session token.
func (v *KeyringVault) SetToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: empty session token", domain.ErrInvalidInput)
	}
	if err := keyring.Set(keyringService, v.account, token); err != nil {
		return fmt.Errorf("write keyring: %w", err)
	}
	return nil
}

// Clear removes the session token. Clearing an empty vault is not an error.
func (v *KeyringVault) Clear() error {
	err := keyring.Delete(keyringService, v.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring entry: %w", err)
	}
	return nil
}
