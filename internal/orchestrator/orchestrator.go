// Package orchestrator fans a fetch out across every enabled provider
// with bounded concurrency, isolating one provider's panic or error from
// the rest, then folds the outcomes into an aggregated result.
package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

// Pipeline is the subset of pipeline.Pipeline the orchestrator needs,
// narrowed to an interface so tests can stub it without a real store.
type Pipeline interface {
	Execute(ctx context.Context, providerID string, strategies []strategy.Strategy, useCache bool) models.FetchOutcome
}

// ProviderSet maps a provider id to the ordered strategies to try for it.
type ProviderSet map[string][]strategy.Strategy

// Orchestrator runs a ProviderSet through a Pipeline with bounded
// concurrency.
type Orchestrator struct {
	pipeline      Pipeline
	maxConcurrent int
}

// New builds an orchestrator backed by pipeline, running at most
// maxConcurrent fetches at once.
func New(pipeline Pipeline, maxConcurrent int) *Orchestrator {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Orchestrator{pipeline: pipeline, maxConcurrent: maxConcurrent}
}

// OnComplete is called once per provider as soon as its outcome is
// known, before FetchAll returns — useful for live progress reporting.
type OnComplete func(models.FetchOutcome)

// FetchAll runs every provider in providers concurrently, bounded by the
// orchestrator's semaphore, and returns every outcome keyed by provider
// id. A panic or error from a single provider's pipeline run is isolated
// and turned into a failed outcome for that provider only; it never
// aborts the rest of the fetch.
func (o *Orchestrator) FetchAll(ctx context.Context, providers ProviderSet, onComplete OnComplete) map[string]models.FetchOutcome {
	outcomes := make(map[string]models.FetchOutcome, len(providers))
	var mu sync.Mutex

	sem := make(chan struct{}, o.maxConcurrent)
	var wg sync.WaitGroup

	for providerID, strategies := range providers {
		providerID, strategies := providerID, strategies
		wg.Add(1)
		sem <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.runIsolated(ctx, providerID, strategies)

			mu.Lock()
			outcomes[providerID] = outcome
			mu.Unlock()

			if onComplete != nil {
				onComplete(outcome)
			}
		}()
	}

	wg.Wait()
	return outcomes
}

// runIsolated executes one provider's pipeline, converting a panic into
// a failed outcome instead of letting it propagate and take down the
// whole fetch.
func (o *Orchestrator) runIsolated(ctx context.Context, providerID string, strategies []strategy.Strategy) (outcome models.FetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("provider", providerID).Msg("provider fetch panicked, isolated from the rest of the batch")
			outcome = models.FetchOutcome{
				ProviderID: providerID, Success: false,
				Error: "internal error during fetch",
			}
		}
	}()
	return o.pipeline.Execute(ctx, providerID, strategies, true)
}

// FetchEnabled runs FetchAll over only the providers for which enabled
// reports true, mirroring the config-driven provider filter upstream.
func (o *Orchestrator) FetchEnabled(ctx context.Context, providers ProviderSet, enabled func(string) bool, onComplete OnComplete) map[string]models.FetchOutcome {
	filtered := make(ProviderSet, len(providers))
	for id, strategies := range providers {
		if enabled(id) {
			filtered[id] = strategies
		}
	}
	return o.FetchAll(ctx, filtered, onComplete)
}

// CategorizeResults buckets outcomes by result type: gated, cached,
// success, or failure. Gated takes priority over success/cache, matching
// the outcome priority an operator cares about most when scanning a
// multi-provider report.
func CategorizeResults(outcomes map[string]models.FetchOutcome) map[string][]string {
	categories := map[string][]string{}
	for providerID, outcome := range outcomes {
		var key string
		switch {
		case outcome.Gated:
			key = "gated"
		case outcome.Success && outcome.Cached:
			key = "cached"
		case outcome.Success:
			key = "success"
		default:
			key = "failure"
		}
		categories[key] = append(categories[key], providerID)
	}
	return categories
}
