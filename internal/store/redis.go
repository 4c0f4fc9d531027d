package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeusage/internal/models"
)

// RedisTier wraps a Store with a distributed read-through cache. It is
// strictly best-effort: any Redis error is logged and swallowed, and the
// call falls through to the wrapped Store so a down Redis never fails a
// fetch. This exists for multi-host deployments sharing one snapshot
// cache; a single-host install has no need for it.
type RedisTier struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTier builds a tier in front of next, using client for the
// distributed cache with the given snapshot TTL.
func NewRedisTier(next Store, client *redis.Client, ttl time.Duration) *RedisTier {
	return &RedisTier{next: next, client: client, ttl: ttl}
}

func snapshotKey(providerID string) string {
	return "vibeusage:snapshot:" + providerID
}

func (r *RedisTier) LoadSnapshot(providerID string) (models.UsageSnapshot, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := r.client.Get(ctx, snapshotKey(providerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Str("provider", providerID).Msg("redis snapshot read failed, falling back to file store")
		}
		return r.next.LoadSnapshot(providerID)
	}

	var snap models.UsageSnapshot
	if json.Unmarshal(data, &snap) != nil {
		return r.next.LoadSnapshot(providerID)
	}
	return snap, true
}

func (r *RedisTier) SaveSnapshot(snapshot models.UsageSnapshot) error {
	if err := r.next.SaveSnapshot(snapshot); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil
	}
	if err := r.client.Set(ctx, snapshotKey(snapshot.Provider), data, r.ttl).Err(); err != nil {
		log.Debug().Err(err).Str("provider", snapshot.Provider).Msg("redis snapshot write failed, file store remains authoritative")
	}
	return nil
}

func (r *RedisTier) ClearSnapshot(providerID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.client.Del(ctx, snapshotKey(providerID)).Err(); err != nil {
		log.Debug().Err(err).Str("provider", providerID).Msg("redis snapshot delete failed")
	}
	return r.next.ClearSnapshot(providerID)
}

// SnapshotAge consults the same read-through path as LoadSnapshot, so a
// snapshot freshly replicated to Redis by another process is reflected
// here rather than only the locally-authoritative file store.
func (r *RedisTier) SnapshotAge(providerID string) (time.Duration, bool) {
	snap, ok := r.LoadSnapshot(providerID)
	if !ok {
		return 0, false
	}
	return time.Since(snap.FetchedAt), true
}

func (r *RedisTier) IsFresh(providerID string, maxAge time.Duration) bool {
	age, ok := r.SnapshotAge(providerID)
	if !ok {
		return false
	}
	return age < maxAge
}

// ClearAll clears the wrapped store and, for a single named provider,
// also evicts its Redis entry. A global clear (providerID == "") does
// not attempt to enumerate and delete every Redis key — those entries
// simply expire via their TTL, consistent with this tier's best-effort
// posture.
func (r *RedisTier) ClearAll(providerID string) error {
	if providerID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.client.Del(ctx, snapshotKey(providerID)).Err(); err != nil {
			log.Debug().Err(err).Str("provider", providerID).Msg("redis snapshot delete failed")
		}
	}
	return r.next.ClearAll(providerID)
}

func (r *RedisTier) LoadGateState(providerID string) (models.GateState, bool) {
	return r.next.LoadGateState(providerID)
}

func (r *RedisTier) SaveGateState(state models.GateState) error {
	return r.next.SaveGateState(state)
}

func (r *RedisTier) LoadOrgID(providerID string) (string, bool) {
	return r.next.LoadOrgID(providerID)
}

func (r *RedisTier) SaveOrgID(providerID, orgID string) error {
	return r.next.SaveOrgID(providerID, orgID)
}

func (r *RedisTier) ClearOrgID(providerID string) error {
	return r.next.ClearOrgID(providerID)
}
