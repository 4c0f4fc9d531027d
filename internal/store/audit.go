package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeusage/internal/models"
)

// AuditWriter records every fetch outcome to a Postgres fetch_history
// table for operator diagnostics. It is write-only, best-effort, and
// non-blocking in the sense that a write failure is logged and
// discarded — nothing in the fetch path depends on the audit trail
// succeeding.
type AuditWriter struct {
	db *sqlx.DB
}

// NewAuditWriter wraps an already-connected database handle.
func NewAuditWriter(db *sqlx.DB) *AuditWriter {
	return &AuditWriter{db: db}
}

// Schema is the DDL the operator runs once to provision the audit
// trail. It is exposed rather than executed automatically: this system
// doesn't run migrations against an operator's database on its own.
const Schema = `
CREATE TABLE IF NOT EXISTS fetch_history (
	id BIGSERIAL PRIMARY KEY,
	provider_id TEXT NOT NULL,
	success BOOLEAN NOT NULL,
	source TEXT,
	error TEXT,
	cached BOOLEAN NOT NULL DEFAULT false,
	gated BOOLEAN NOT NULL DEFAULT false,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Record inserts one audit row for a fetch outcome. Failures are logged
// at debug level and otherwise ignored.
func (a *AuditWriter) Record(ctx context.Context, outcome models.FetchOutcome) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO fetch_history (provider_id, success, source, error, cached, gated, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		outcome.ProviderID, outcome.Success, outcome.Source, outcome.Error,
		outcome.Cached, outcome.Gated, time.Now().UTC(),
	)
	if err != nil {
		log.Debug().Err(err).Str("provider", outcome.ProviderID).Msg("audit write failed, fetch pipeline unaffected")
	}
}
