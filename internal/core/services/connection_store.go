package services

import (
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
)

// storeEntry is the mutable state of one provider.
type storeEntry struct {
	enabled    bool
	enabledRev uint64
	settings   domain.Settings
	// revs records the store revision of the last local write per key.
	revs map[string]uint64
}

func newStoreEntry() *storeEntry {
	return &storeEntry{
		settings: domain.Settings{domain.SettingConnected: false},
		revs:     make(map[string]uint64),
	}
}

func (e *storeEntry) snapshot() domain.ConnectionState {
	return domain.ConnectionState{Enabled: e.enabled, Settings: e.settings}.Clone()
}

// ConnectionStore is the in-memory Configuration Store.
//
// Every mutation runs under one mutex, so merges never interleave. Local
// writes are stamped with a monotonically increasing revision; hydration
// skips keys written after the revision it started from.
type ConnectionStore struct {
	mu      sync.Mutex
	entries map[domain.ProviderID]*storeEntry
	rules   []domain.PropagationRule
	rev     uint64
	dirty   map[domain.ProviderID]bool
}

// NewConnectionStore creates a store with a disconnected default entry per provider.
func NewConnectionStore(ids []domain.ProviderID, rules []domain.PropagationRule) *ConnectionStore {
	s := &ConnectionStore{
		entries: make(map[domain.ProviderID]*storeEntry, len(ids)),
		rules:   rules,
		dirty:   make(map[domain.ProviderID]bool),
	}
	for _, id := range ids {
		s.entries[id] = newStoreEntry()
	}
	return s
}

// entry returns the entry for id, creating it. Caller holds mu.
func (s *ConnectionStore) entry(id domain.ProviderID) *storeEntry {
	e, ok := s.entries[id]
	if !ok {
		e = newStoreEntry()
		s.entries[id] = e
	}
	return e
}

// Get returns a snapshot of a provider's state.
func (s *ConnectionStore) Get(id domain.ProviderID) domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e.snapshot()
	}
	return domain.NewConnectionState()
}

// Snapshot returns a copy of every provider's state.
func (s *ConnectionStore) Snapshot() map[domain.ProviderID]domain.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.ProviderID]domain.ConnectionState, len(s.entries))
	for id, e := range s.entries {
		out[id] = e.snapshot()
	}
	return out
}

// Revision returns the revision of the latest local write.
func (s *ConnectionStore) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev
}

// Merge shallow-merges partial into the provider's settings.
//
// The merge is rejected without changes when the result would be connected
// without an account identifier. When connected flips to true the
// propagation rules for the provider run before Merge returns; the ids of
// providers they changed are returned and marked dirty.
func (s *ConnectionStore) Merge(id domain.ProviderID, partial domain.Settings) ([]domain.ProviderID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	wasConnected := e.settings.Bool(domain.SettingConnected)

	next := e.settings.Clone()
	for k, v := range partial {
		next[k] = v
	}
	if err := (domain.ConnectionState{Settings: next}).Validate(); err != nil {
		return nil, err
	}

	s.rev++
	for k := range partial {
		e.revs[k] = s.rev
	}
	e.settings = next

	if !wasConnected && next.Bool(domain.SettingConnected) {
		return s.propagateFrom(id), nil
	}
	return nil, nil
}

// SetEnabled toggles a provider. Settings are left untouched.
func (s *ConnectionStore) SetEnabled(id domain.ProviderID, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(id)
	s.rev++
	e.enabled = enabled
	e.enabledRev = s.rev
}

// Clear removes keys and marks the provider disconnected.
func (s *ConnectionStore) Clear(id domain.ProviderID, keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(id)
	s.rev++
	for _, k := range keys {
		delete(e.settings, k)
		e.revs[k] = s.rev
	}
	e.settings[domain.SettingConnected] = false
	e.revs[domain.SettingConnected] = s.rev
}

// Hydrate applies a state loaded from the backend.
//
// Keys and the enabled flag written locally after since are kept. After
// applying, every propagation rule is re-evaluated; changed providers are
// returned and marked dirty.
func (s *ConnectionStore) Hydrate(id domain.ProviderID, state domain.ConnectionState, since uint64) []domain.ProviderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(id)

	next := e.settings.Clone()
	for k, v := range state.Settings {
		if e.revs[k] > since {
			continue
		}
		next[k] = v
	}
	if (domain.ConnectionState{Settings: next}).Validate() != nil {
		// A local edit and the loaded record disagree on identity; keep local.
		next = e.settings
	}
	e.settings = next
	if e.enabledRev <= since {
		e.enabled = state.Enabled
	}
	return s.propagateAll()
}

// Established reports whether a provider holds state worth keeping over a
// failed load: a local write, the enabled flag or a live connection.
func (s *ConnectionStore) Established(id domain.ProviderID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	return e.enabled || e.enabledRev > 0 || len(e.revs) > 0 || e.snapshot().IsConnected()
}

// Reevaluate runs every propagation rule against the current state.
func (s *ConnectionStore) Reevaluate() []domain.ProviderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.propagateAll()
}

// TakeDirty returns and clears the providers changed by propagation.
func (s *ConnectionStore) TakeDirty() []domain.ProviderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]domain.ProviderID, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	s.dirty = make(map[domain.ProviderID]bool)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
