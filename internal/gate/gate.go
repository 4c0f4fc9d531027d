// Package gate implements the per-provider failure gate: after enough
// consecutive failures inside a rolling window, a provider is gated off
// for a cooldown period so a flapping upstream doesn't get hammered.
package gate

import (
	"sync"
	"time"

	"github.com/sawpanic/vibeusage/internal/models"
)

const (
	// MaxConsecutiveFailures is the number of consecutive failures that
	// trips the gate.
	MaxConsecutiveFailures = 3
	// Window bounds how long a failure record is kept in the failure log.
	// It does not reset the consecutive count; only a success does.
	Window = 10 * time.Minute
	// Duration is how long a tripped gate stays closed.
	Duration = 5 * time.Minute
)

// Gate tracks one provider's recent failures and whether it is currently
// gated. It is safe for concurrent use.
type Gate struct {
	mu               sync.Mutex
	providerID       string
	failures         []models.FailureRecord
	gatedUntil       *time.Time
	consecutiveCount int
}

// New returns a fresh, ungated gate for a provider.
func New(providerID string) *Gate {
	return &Gate{providerID: providerID}
}

// FromState reconstructs a gate from its persisted form.
func FromState(s models.GateState) *Gate {
	return &Gate{
		providerID:       s.ProviderID,
		failures:         append([]models.FailureRecord(nil), s.Failures...),
		gatedUntil:       s.GatedUntil,
		consecutiveCount: s.ConsecutiveCount,
	}
}

// State returns the gate's persisted-form snapshot.
func (g *Gate) State() models.GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.GateState{
		ProviderID:       g.providerID,
		Failures:         append([]models.FailureRecord(nil), g.failures...),
		GatedUntil:       g.gatedUntil,
		ConsecutiveCount: g.consecutiveCount,
	}
}

// RecordFailure records a failure, drops failure records older than
// Window, and, once the consecutive count reaches MaxConsecutiveFailures,
// closes the gate for Duration. Recording a
// failure while the provider is already gated does not extend the gate
// further or reset anything — it simply adds to the failure log.
func (g *Gate) RecordFailure(category, message string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-Window)

	kept := g.failures[:0]
	for _, f := range g.failures {
		if f.Timestamp.After(cutoff) {
			kept = append(kept, f)
		}
	}
	g.failures = append(kept, models.FailureRecord{
		Timestamp: now, Category: category, Message: message,
	})

	g.consecutiveCount++
	if g.consecutiveCount >= MaxConsecutiveFailures && !g.isGatedLocked() {
		gatedUntil := now.Add(Duration)
		g.gatedUntil = &gatedUntil
	}
}

// RecordSuccess resets the consecutive-failure count. It does not clear
// an already-tripped gate; the gate only opens when its own duration
// elapses (see IsGated).
func (g *Gate) RecordSuccess() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.consecutiveCount = 0
}

// IsGated reports whether the provider is currently gated. A gate whose
// deadline has passed is lazily cleared and reports false.
func (g *Gate) IsGated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.isGatedLocked()
}

func (g *Gate) isGatedLocked() bool {
	if g.gatedUntil == nil {
		return false
	}
	if time.Now().After(*g.gatedUntil) {
		g.gatedUntil = nil
		return false
	}
	return true
}

// Remaining returns the time left until the gate opens, or zero if the
// provider is not currently gated.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.isGatedLocked() {
		return 0
	}
	remaining := time.Until(*g.gatedUntil)
	if remaining <= 0 {
		return 0
	}
	return remaining
}

// RecentFailures returns up to limit of the most recent failure records,
// most-recent last, for diagnostics.
func (g *Gate) RecentFailures(limit int) []models.FailureRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	if limit <= 0 || limit > len(g.failures) {
		limit = len(g.failures)
	}
	start := len(g.failures) - limit
	out := make([]models.FailureRecord, limit)
	copy(out, g.failures[start:])
	return out
}

// Clear wipes all failure state and opens the gate immediately.
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = nil
	g.gatedUntil = nil
	g.consecutiveCount = 0
}

// ProviderID returns the provider this gate tracks.
func (g *Gate) ProviderID() string {
	return g.providerID
}
