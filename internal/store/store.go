// Package store implements persistence for usage snapshots and failure
// gate state: a file-based store that is always authoritative, plus
// optional best-effort tiers (a Redis read-through cache, a Postgres
// audit trail) that never block or fail a fetch when they're unavailable.
package store

import (
	"time"

	"github.com/sawpanic/vibeusage/internal/models"
)

// Store is the persistence contract the fetch pipeline and gate manager
// depend on. Implementations must treat corrupted or unreadable state as
// absent rather than erroring — a damaged cache file should look like a
// cold cache, not crash the fetch.
type Store interface {
	LoadSnapshot(providerID string) (models.UsageSnapshot, bool)
	SaveSnapshot(snapshot models.UsageSnapshot) error
	ClearSnapshot(providerID string) error

	// SnapshotAge reports how long ago a provider's cached snapshot was
	// fetched, or ok=false if there is no cached snapshot.
	SnapshotAge(providerID string) (age time.Duration, ok bool)
	// IsFresh reports whether a provider's cached snapshot exists and is
	// younger than maxAge.
	IsFresh(providerID string, maxAge time.Duration) bool

	// ClearAll removes every cached kind (snapshot and org id) for
	// providerID, or for every provider when providerID is empty.
	ClearAll(providerID string) error

	LoadGateState(providerID string) (models.GateState, bool)
	SaveGateState(state models.GateState) error

	LoadOrgID(providerID string) (string, bool)
	SaveOrgID(providerID, orgID string) error
	ClearOrgID(providerID string) error
}
