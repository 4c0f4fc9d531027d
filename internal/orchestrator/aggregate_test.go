package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/vibeusage/internal/models"
)

func TestAggregateSplitsSnapshotsAndErrors(t *testing.T) {
	snap := models.UsageSnapshot{Provider: "claude", Source: "cli"}
	outcomes := map[string]models.FetchOutcome{
		"claude": {ProviderID: "claude", Success: true, Snapshot: &snap},
		"gemini": {ProviderID: "gemini", Success: false, Error: "rate limited"},
	}

	agg := Aggregate(outcomes)
	assert.Contains(t, agg.Snapshots, "claude")
	assert.Contains(t, agg.Errors, "gemini")
	assert.True(t, agg.HasAnyData())
	assert.False(t, agg.AllFailed())
}

func TestAggregateAllFailedWhenNoSnapshots(t *testing.T) {
	outcomes := map[string]models.FetchOutcome{
		"claude": {ProviderID: "claude", Success: false, Error: "down"},
	}
	agg := Aggregate(outcomes)
	assert.True(t, agg.AllFailed())
	assert.False(t, agg.HasAnyData())
}

func TestAggregateSuccessfulAndFailedProviderLists(t *testing.T) {
	snap := models.UsageSnapshot{Provider: "claude", Source: "cli"}
	outcomes := map[string]models.FetchOutcome{
		"claude": {ProviderID: "claude", Success: true, Snapshot: &snap},
		"gemini": {ProviderID: "gemini", Success: false, Error: "down"},
	}
	agg := Aggregate(outcomes)
	assert.ElementsMatch(t, []string{"claude"}, agg.SuccessfulProviders())
	assert.ElementsMatch(t, []string{"gemini"}, agg.FailedProviders())
}
