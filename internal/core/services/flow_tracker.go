package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

type flowSlot struct {
	attempt  string
	phase    domain.FlowPhase
	deadline time.Time
	cancel   func()
}

// FlowTracker holds the flow phase of every provider and enforces at most
// one in-flight attempt per provider.
//
// Every slot belongs to one attempt ID. Updates naming another attempt are
// ignored, so a stale or forged callback cannot end an attempt it does not own.
type FlowTracker struct {
	mu    sync.Mutex
	slots map[domain.ProviderID]*flowSlot
	now   func() time.Time
}

// NewFlowTracker creates an empty tracker.
func NewFlowTracker() *FlowTracker {
	return &FlowTracker{
		slots: make(map[domain.ProviderID]*flowSlot),
		now:   time.Now,
	}
}

// inFlight reports whether slot blocks a new attempt. Caller holds mu.
func (t *FlowTracker) inFlight(slot *flowSlot) bool {
	if slot == nil || !slot.phase.IsInFlight() {
		return false
	}
	return slot.deadline.IsZero() || t.now().Before(slot.deadline)
}

// owned returns the slot of id if it belongs to attempt. Caller holds mu.
func (t *FlowTracker) owned(id domain.ProviderID, attempt string) (*flowSlot, bool) {
	slot, ok := t.slots[id]
	if !ok || slot.attempt != attempt {
		return nil, false
	}
	return slot, true
}

// Begin starts attempt in phase. An attempt still in flight for the
// provider yields a FlowInProgress error. A zero deadline never expires;
// such attempts end only through Finish or Release.
func (t *FlowTracker) Begin(id domain.ProviderID, attempt string, phase domain.FlowPhase, deadline time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight(t.slots[id]) {
		return errFlowInProgress(id)
	}
	t.slots[id] = &flowSlot{attempt: attempt, phase: phase, deadline: deadline}
	logger.Debug("%s: flow %s -> %s", id, attempt, phase)
	return nil
}

// Claim moves attempt into phase to and clears its deadline. The live
// slot must belong to attempt and be in one of the from phases.
//
// A provider with no live attempt is adopted, which lets a callback finish
// an attempt started by an earlier process. A live slot held by another
// attempt, or in another phase, is left untouched and yields FlowInProgress.
func (t *FlowTracker) Claim(id domain.ProviderID, attempt string, to domain.FlowPhase, from ...domain.FlowPhase) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot := t.slots[id]; t.inFlight(slot) && (slot.attempt != attempt || !hasPhase(from, slot.phase)) {
		return errFlowInProgress(id)
	}
	t.slots[id] = &flowSlot{attempt: attempt, phase: to}
	logger.Debug("%s: flow %s -> %s", id, attempt, to)
	return nil
}

// Transition moves attempt from phase from to phase to. It reports false
// when attempt no longer owns the slot or has already moved on.
func (t *FlowTracker) Transition(id domain.ProviderID, attempt string, from, to domain.FlowPhase) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok := t.owned(id, attempt)
	if !ok || slot.phase != from {
		return false
	}
	slot.phase = to
	logger.Debug("%s: flow %s -> %s", id, attempt, to)
	return true
}

// Finish ends attempt in a terminal phase. It is a no-op when attempt no
// longer owns the slot.
func (t *FlowTracker) Finish(id domain.ProviderID, attempt string, phase domain.FlowPhase) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.owned(id, attempt); !ok {
		logger.Debug("%s: ignoring %s for superseded attempt %s", id, phase, attempt)
		return
	}
	t.slots[id] = &flowSlot{attempt: attempt, phase: phase}
	logger.Debug("%s: flow %s finished: %s", id, attempt, phase)
}

// Release returns the provider to idle if attempt still owns it.
func (t *FlowTracker) Release(id domain.ProviderID, attempt string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.owned(id, attempt); ok {
		delete(t.slots, id)
	}
}

// Reset returns a provider to idle whatever attempt holds it.
func (t *FlowTracker) Reset(id domain.ProviderID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.slots, id)
}

// SetCancel registers the function that aborts attempt.
func (t *FlowTracker) SetCancel(id domain.ProviderID, attempt string, cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if slot, ok := t.owned(id, attempt); ok {
		slot.cancel = cancel
	}
}

// Cancel aborts the current attempt. Returns false when nothing is cancellable.
func (t *FlowTracker) Cancel(id domain.ProviderID) bool {
	t.mu.Lock()
	slot, ok := t.slots[id]
	var cancel func()
	if ok && t.inFlight(slot) {
		cancel = slot.cancel
		slot.cancel = nil
	}
	t.mu.Unlock()

	if cancel == nil {
		return false
	}
	cancel()
	return true
}

// Phase returns the provider's current phase. Expired attempts read as idle.
func (t *FlowTracker) Phase(id domain.ProviderID) domain.FlowPhase {
	t.mu.Lock()
	defer t.mu.Unlock()
	slot, ok := t.slots[id]
	if !ok {
		return domain.PhaseIdle
	}
	if slot.phase.IsInFlight() && !t.inFlight(slot) {
		return domain.PhaseIdle
	}
	return slot.phase
}

func errFlowInProgress(id domain.ProviderID) error {
	return domain.NewFlowError(domain.KindFlowInProgress, id,
		"an authorization attempt is already in progress", nil)
}

func hasPhase(phases []domain.FlowPhase, phase domain.FlowPhase) bool {
	for _, p := range phases {
		if p == phase {
			return true
		}
	}
	return false
}
