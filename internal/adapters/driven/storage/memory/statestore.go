package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.OAuthStateStore = (*StateStore)(nil)

// StateStore is an in-memory implementation of driven.OAuthStateStore.
// It lives as long as the process, which bounds attempts to one session.
type StateStore struct {
	mu       sync.Mutex
	attempts map[domain.ProviderID]domain.OAuthAttempt
	now      func() time.Time
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		attempts: make(map[domain.ProviderID]domain.OAuthAttempt),
		now:      time.Now,
	}
}

// Save records an attempt, replacing any previous one for the provider.
func (s *StateStore) Save(_ context.Context, attempt *domain.OAuthAttempt) error {
	if attempt == nil || attempt.Provider == "" || attempt.CSRFToken == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attempt.Provider] = *attempt
	return nil
}

// Take returns and removes the attempt for a provider.
func (s *StateStore) Take(_ context.Context, provider domain.ProviderID) (*domain.OAuthAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[provider]
	if !ok {
		return nil, nil
	}
	delete(s.attempts, provider)
	if attempt.IsExpired(s.now()) {
		return nil, nil
	}
	return &attempt, nil
}

// Purge removes expired attempts.
func (s *StateStore) Purge(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, attempt := range s.attempts {
		if attempt.IsExpired(now) {
			delete(s.attempts, id)
		}
	}
	return nil
}
