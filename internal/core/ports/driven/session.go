package driven

// SessionVault holds the bearer token used to talk to the backend.
type SessionVault interface {
	// Token returns the stored session token.
	// Returns domain.ErrNotFound when none is stored.
	Token() (string, error)

	// SetToken stores the session token.
	SetToken(token string) error

	// Clear removes the session token.
	Clear() error
}
