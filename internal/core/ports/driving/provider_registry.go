package driving

import "github.com/custodia-labs/sercha-connect/internal/core/domain"

// ProviderRegistry exposes the static provider catalogue.
type ProviderRegistry interface {
	// List returns every provider in display order.
	List() []domain.Provider

	// Get returns a provider by id.
	// Returns domain.ErrUnknownProvider for ids not in the catalogue.
	Get(id domain.ProviderID) (*domain.Provider, error)

	// Available returns providers that can currently be connected.
	Available() []domain.Provider

	// Rules returns the cross-provider propagation rule table.
	Rules() []domain.PropagationRule
}
