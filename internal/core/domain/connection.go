package domain

import (
	"fmt"
	"strings"
)

// Well-known settings keys.
const (
	// SettingConnected is always present; true once authorization succeeded.
	SettingConnected = "connected"
	// SettingAccountID holds the provider account identifier.
	SettingAccountID = "accountId"
	// SettingUsername holds the provider login name.
	SettingUsername = "username"
	// SettingDisplayName holds a human-readable account name.
	SettingDisplayName = "displayName"
	// SettingResources holds the dependent resource list (e.g., repositories).
	SettingResources = "resources"
	// SettingDefaultResource holds the first dependent resource.
	SettingDefaultResource = "defaultResource"
	// SettingTokenHint holds the masked form of a captured secret.
	//nolint:gosec // G101: key name, not a credential.
	SettingTokenHint = "tokenHint"
	// SettingOwnerID holds a project-board owner.
	SettingOwnerID = "ownerId"
	// SettingRepository holds the repository a project board is linked to.
	SettingRepository = "repository"
	// SettingProjectTitle holds the selected project title.
	SettingProjectTitle = "projectTitle"
	// SettingPermissions lists the scopes granted to the stored credential.
	SettingPermissions = "permissions"
)

// Settings is the free-form key/value bag of a provider.
type Settings map[string]any

// Clone returns a shallow copy with slice values copied.
func (s Settings) Clone() Settings {
	out := make(Settings, len(s))
	for k, v := range s {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the string value of key, or "" when absent or not a string.
func (s Settings) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}

// Bool returns the boolean value of key.
func (s Settings) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Strings returns the string slice value of key.
func (s Settings) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether key is absent or holds an empty value.
func (s Settings) IsEmpty(key string) bool {
	return IsEmptyValue(s[key])
}

// IsEmptyValue reports whether v counts as empty for default-fill purposes.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]any, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// ConnectionState is the per-user, per-provider state held by the configuration store.
type ConnectionState struct {
	// Enabled is whether the user has toggled this integration on.
	Enabled bool `json:"enabled"`
	// Settings always contains SettingConnected.
	Settings Settings `json:"settings"`
}

// NewConnectionState returns the default disconnected state.
func NewConnectionState() ConnectionState {
	return ConnectionState{
		Settings: Settings{SettingConnected: false},
	}
}

// Clone returns a deep-enough copy safe to hand to callers.
func (c ConnectionState) Clone() ConnectionState {
	out := ConnectionState{Enabled: c.Enabled, Settings: c.Settings.Clone()}
	if _, ok := out.Settings[SettingConnected]; !ok {
		out.Settings[SettingConnected] = false
	}
	return out
}

// IsConnected returns true if authorization has completed.
func (c ConnectionState) IsConnected() bool {
	return c.Settings.Bool(SettingConnected)
}

// AccountID returns the account identifier, if any.
func (c ConnectionState) AccountID() string {
	return c.Settings.String(SettingAccountID)
}

// Validate checks the connected-implies-account invariant.
func (c ConnectionState) Validate() error {
	if c.IsConnected() && c.AccountID() == "" {
		return fmt.Errorf("%w: connected state without account identifier", ErrInvalidInput)
	}
	return nil
}

// Identity is the normalized account information produced by a successful flow.
type Identity struct {
	// AccountID is the provider's stable account identifier.
	AccountID string
	// Username is the login name, when the provider has one.
	Username string
	// DisplayName is a human-readable name.
	DisplayName string
	// Resources are dependent resources needed for later auto-population.
	Resources []string
	// Extra holds provider-specific identity fields.
	Extra map[string]any
}

// Settings converts the identity into a partial settings update marking the
// provider connected.
func (i Identity) Settings() Settings {
	out := Settings{
		SettingConnected: true,
		SettingAccountID: i.AccountID,
	}
	if i.Username != "" {
		out[SettingUsername] = i.Username
	}
	if i.DisplayName != "" {
		out[SettingDisplayName] = i.DisplayName
	}
	if len(i.Resources) > 0 {
		res := make([]string, len(i.Resources))
		copy(res, i.Resources)
		out[SettingResources] = res
		out[SettingDefaultResource] = res[0]
	}
	for k, v := range i.Extra {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}
