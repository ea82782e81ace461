package domain

import "time"

// OAuthToken is the access credential produced by a code exchange.
// It lives only inside a flow and is forwarded to the backend once.
type OAuthToken struct {
	// AccessToken is the bearer token for API access.
	AccessToken string `json:"accessToken"`
	// RefreshToken is used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`
	// TokenType is typically "Bearer".
	TokenType string `json:"tokenType"`
	// Scope is the granted scope, when the provider reports it.
	Scope string `json:"scope,omitempty"`
	// Expiry is when the access token expires.
	Expiry time.Time `json:"expiry,omitempty"`
}

// IsExpired returns true if the token has expired.
func (t *OAuthToken) IsExpired() bool {
	if t.Expiry.IsZero() {
		return false
	}
	return time.Now().After(t.Expiry)
}

// Permissions returns the granted scopes as a list.
func (t *OAuthToken) Permissions() []string {
	if t.Scope == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(t.Scope); i++ {
		if i == len(t.Scope) || t.Scope[i] == ' ' || t.Scope[i] == ',' {
			if i > start {
				out = append(out, t.Scope[start:i])
			}
			start = i + 1
		}
	}
	return out
}
