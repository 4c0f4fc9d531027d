// Package pipeline executes a provider's fetch strategies in priority
// order, honoring the failure gate and falling back to cached data when
// a fresh fetch can't be obtained.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	vuerrors "github.com/sawpanic/vibeusage/internal/errors"
	"github.com/sawpanic/vibeusage/internal/gate"
	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/store"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

// Pipeline runs a single provider's strategies against its gate and
// snapshot store.
type Pipeline struct {
	Gates   *gate.Manager
	Store   store.Store
	Timeout time.Duration

	// StaleThreshold marks a cached fallback snapshot as stale once it's
	// older than this. Zero disables the check (every cache hit counts
	// as fresh), matching a stale_threshold_minutes of 0 in config.
	StaleThreshold time.Duration
}

// New builds a pipeline with the given timeout applied to each strategy
// attempt and staleThreshold applied to cache fallbacks.
func New(gates *gate.Manager, st store.Store, timeout, staleThreshold time.Duration) *Pipeline {
	return &Pipeline{Gates: gates, Store: st, Timeout: timeout, StaleThreshold: staleThreshold}
}

// isStale reports whether a cached snapshot used as a fallback should be
// flagged stale, per StaleThreshold.
func (p *Pipeline) isStale(providerID string) bool {
	if p.StaleThreshold <= 0 {
		return false
	}
	return !p.Store.IsFresh(providerID, p.StaleThreshold)
}

// Execute tries providerID's strategies in order until one succeeds,
// records the outcome against the failure gate, and falls back to a
// cached snapshot when useCache is set and every strategy failed (or the
// provider is currently gated).
func (p *Pipeline) Execute(ctx context.Context, providerID string, strategies []strategy.Strategy, useCache bool) models.FetchOutcome {
	g := p.Gates.Get(providerID)

	if g.IsGated() {
		remaining := g.Remaining()
		if remaining > 0 {
			if useCache {
				if cached, ok := p.Store.LoadSnapshot(providerID); ok {
					return models.FetchOutcome{
						ProviderID: providerID, Success: true, Snapshot: &cached,
						Source: "cache", Cached: true, Stale: p.isStale(providerID),
						GateRemaining: remaining.String(),
					}
				}
			}
			return models.FetchOutcome{
				ProviderID: providerID, Success: false,
				Error: fmt.Sprintf("provider gated for %s", remaining), Gated: true,
				GateRemaining: remaining.String(),
			}
		}
	}

	var attempts []models.FetchAttempt

	for _, s := range strategies {
		if !s.IsAvailable(ctx) {
			attempts = append(attempts, models.FetchAttempt{Strategy: s.Name(), Success: false, Error: "strategy not available"})
			continue
		}

		start := time.Now()
		result := p.runWithTimeout(ctx, s)
		durationMS := time.Since(start).Milliseconds()

		switch {
		case result.Success && result.Snapshot != nil:
			g.RecordSuccess()
			if err := p.Store.SaveSnapshot(*result.Snapshot); err != nil {
				log.Warn().Err(err).Str("provider", providerID).Msg("failed to persist snapshot")
			}
			return models.FetchOutcome{
				ProviderID: providerID, Success: true, Snapshot: result.Snapshot,
				Source: s.Name(), Attempts: attempts,
			}

		case !result.ShouldFallback:
			attempts = append(attempts, models.FetchAttempt{
				Strategy: s.Name(), Success: false, Error: errString(result.Error), DurationMS: durationMS,
			})
			if classified := vuerrors.Classify(result.Error, providerID); classified != nil {
				g.RecordFailure(string(classified.Category), errString(result.Error))
			}
			return models.FetchOutcome{
				ProviderID: providerID, Success: false, Attempts: attempts,
				Error: errString(result.Error), Fatal: true,
			}

		default:
			attempts = append(attempts, models.FetchAttempt{
				Strategy: s.Name(), Success: false, Error: errString(result.Error), DurationMS: durationMS,
			})
		}
	}

	lastError := "no strategies available"
	if len(attempts) > 0 {
		lastError = attempts[len(attempts)-1].Error
	}
	classified := vuerrors.Classify(fmt.Errorf("%s", lastError), providerID)
	g.RecordFailure(string(classified.Category), lastError)

	if useCache {
		if cached, ok := p.Store.LoadSnapshot(providerID); ok {
			return models.FetchOutcome{
				ProviderID: providerID, Success: true, Snapshot: &cached,
				Source: "cache", Attempts: attempts, Cached: true, Stale: p.isStale(providerID),
			}
		}
	}

	return models.FetchOutcome{
		ProviderID: providerID, Success: false, Attempts: attempts, Error: lastError,
	}
}

func (p *Pipeline) runWithTimeout(ctx context.Context, s strategy.Strategy) strategy.Result {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	resultCh := make(chan strategy.Result, 1)
	go func() {
		resultCh <- s.Fetch(ctx)
	}()

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return strategy.Fail(fmt.Errorf("%s: fetch timed out", s.Name()))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
