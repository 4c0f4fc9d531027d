package orchestrator

import (
	"time"

	"github.com/sawpanic/vibeusage/internal/models"
)

// AggregatedResult folds many providers' outcomes into the snapshots and
// errors a display layer consumes directly.
type AggregatedResult struct {
	Snapshots map[string]models.UsageSnapshot
	Errors    map[string]string
	FetchedAt time.Time
}

// SuccessfulProviders returns the ids of providers with a snapshot.
func (a AggregatedResult) SuccessfulProviders() []string {
	out := make([]string, 0, len(a.Snapshots))
	for id := range a.Snapshots {
		out = append(out, id)
	}
	return out
}

// FailedProviders returns the ids of providers with an error.
func (a AggregatedResult) FailedProviders() []string {
	out := make([]string, 0, len(a.Errors))
	for id := range a.Errors {
		out = append(out, id)
	}
	return out
}

// HasAnyData reports whether at least one provider produced a snapshot.
func (a AggregatedResult) HasAnyData() bool {
	return len(a.Snapshots) > 0
}

// AllFailed reports whether every provider that was attempted failed.
func (a AggregatedResult) AllFailed() bool {
	return len(a.Snapshots) == 0 && len(a.Errors) > 0
}

// Aggregate folds a map of fetch outcomes into an AggregatedResult: a
// provider lands in Snapshots if it succeeded with data, in Errors if it
// reported a failure, and is simply absent from both if neither held
// (which should not happen for a well-formed outcome).
func Aggregate(outcomes map[string]models.FetchOutcome) AggregatedResult {
	result := AggregatedResult{
		Snapshots: make(map[string]models.UsageSnapshot),
		Errors:    make(map[string]string),
		FetchedAt: time.Now().UTC(),
	}

	for providerID, outcome := range outcomes {
		switch {
		case outcome.Success && outcome.Snapshot != nil:
			result.Snapshots[providerID] = *outcome.Snapshot
		case outcome.Error != "":
			result.Errors[providerID] = outcome.Error
		}
	}

	return result
}
