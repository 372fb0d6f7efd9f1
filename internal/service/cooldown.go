package service

import (
	"sync"
	"time"
)

// CooldownTracker keeps the last recorded trigger instant per rule and
// suppresses re-firing inside the rule's cooldown window. The window is
// measured from the last recorded trigger, not from rule creation.
type CooldownTracker struct {
	mu          sync.Mutex
	lastTrigger map[string]time.Time
}

// NewCooldownTracker creates an empty tracker.
func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{lastTrigger: make(map[string]time.Time)}
}

// ShouldSuppress reports whether a trigger for the rule must be
// suppressed at instant now.
func (t *CooldownTracker) ShouldSuppress(ruleID string, window time.Duration, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.suppressedLocked(ruleID, window, now)
}

// RecordTrigger records a trigger for the rule at instant now.
func (t *CooldownTracker) RecordTrigger(ruleID string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastTrigger[ruleID] = now
}

// TryAcquire atomically performs the check-then-record sequence: it
// returns true and records the trigger when the rule is outside its
// cooldown window, false otherwise. Concurrent callers for the same
// rule see exactly one winner, which prevents double-firing when a
// manual evaluation races a scheduled tick.
func (t *CooldownTracker) TryAcquire(ruleID string, window time.Duration, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.suppressedLocked(ruleID, window, now) {
		return false
	}
	t.lastTrigger[ruleID] = now
	return true
}

func (t *CooldownTracker) suppressedLocked(ruleID string, window time.Duration, now time.Time) bool {
	last, ok := t.lastTrigger[ruleID]
	if !ok {
		return false
	}
	return now.Sub(last) < window
}

// Remove purges the rule's entry so state does not leak across the
// rule lifecycle.
func (t *CooldownTracker) Remove(ruleID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastTrigger, ruleID)
}

// Export returns a copy of the tracked state for persistence.
func (t *CooldownTracker) Export() map[string]time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]time.Time, len(t.lastTrigger))
	for id, ts := range t.lastTrigger {
		out[id] = ts
	}
	return out
}

// Restore replaces the tracked state from a persisted snapshot.
func (t *CooldownTracker) Restore(entries map[string]time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastTrigger = make(map[string]time.Time, len(entries))
	for id, ts := range entries {
		t.lastTrigger[id] = ts
	}
}
