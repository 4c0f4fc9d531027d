package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/vibeusage/internal/gate"
	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/store"
	"github.com/sawpanic/vibeusage/internal/strategy"
)

type stubStrategy struct {
	name      string
	available bool
	result    strategy.Result
	delay     time.Duration
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) IsAvailable(ctx context.Context) bool { return s.available }
func (s stubStrategy) Fetch(ctx context.Context) strategy.Result {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return strategy.Fail(ctx.Err())
		}
	}
	return s.result
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	return New(gate.NewManager(), store.NewFileStore(t.TempDir()), 50*time.Millisecond, 0)
}

func TestExecuteSucceedsOnFirstStrategy(t *testing.T) {
	p := newTestPipeline(t)
	snap := &models.UsageSnapshot{Provider: "claude", Source: "cli", Periods: []models.UsagePeriod{{Name: "x", PeriodType: models.PeriodDaily}}}
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: true, result: strategy.Ok(snap)},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.True(t, outcome.Success)
	assert.Equal(t, "cli", outcome.Source)
}

func TestExecuteFallsThroughToNextStrategyOnRecoverableFailure(t *testing.T) {
	p := newTestPipeline(t)
	snap := &models.UsageSnapshot{Provider: "claude", Source: "api", Periods: []models.UsagePeriod{{Name: "x", PeriodType: models.PeriodDaily}}}
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: true, result: strategy.Fail(errors.New("not found"))},
		stubStrategy{name: "api", available: true, result: strategy.Ok(snap)},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.True(t, outcome.Success)
	assert.Equal(t, "api", outcome.Source)
	assert.Len(t, outcome.Attempts, 1)
}

func TestExecuteStopsOnFatalError(t *testing.T) {
	p := newTestPipeline(t)
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: true, result: strategy.Fatal(errors.New("hard rate limit"))},
		stubStrategy{name: "api", available: true, result: strategy.Ok(&models.UsageSnapshot{Provider: "claude", Source: "api"})},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.False(t, outcome.Success)
	assert.True(t, outcome.Fatal)
	assert.Len(t, outcome.Attempts, 1, "the second strategy must never run after a fatal result")
}

func TestExecuteSkipsUnavailableStrategy(t *testing.T) {
	p := newTestPipeline(t)
	snap := &models.UsageSnapshot{Provider: "claude", Source: "api"}
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: false},
		stubStrategy{name: "api", available: true, result: strategy.Ok(snap)},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.True(t, outcome.Success)
	assert.Equal(t, "api", outcome.Source)
}

func TestExecuteTimesOutSlowStrategy(t *testing.T) {
	p := newTestPipeline(t)
	strategies := []strategy.Strategy{
		stubStrategy{name: "slow", available: true, delay: time.Second},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.False(t, outcome.Success)
	assert.Len(t, outcome.Attempts, 1)
}

func TestExecuteFallsBackToCacheWhenAllStrategiesFail(t *testing.T) {
	st := store.NewFileStore(t.TempDir())
	cached := models.UsageSnapshot{Provider: "claude", Source: "cli", Periods: []models.UsagePeriod{{Name: "x", PeriodType: models.PeriodDaily}}}
	require.NoError(t, st.SaveSnapshot(cached))

	p := New(gate.NewManager(), st, 50*time.Millisecond, 0)
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: true, result: strategy.Fail(errors.New("down"))},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Cached)
	assert.Equal(t, "cache", outcome.Source)
	assert.False(t, outcome.Stale, "stale threshold of 0 disables the check")
}

func TestExecuteFlagsStaleCacheFallback(t *testing.T) {
	st := store.NewFileStore(t.TempDir())
	cached := models.UsageSnapshot{
		Provider: "claude", Source: "cli",
		Periods:   []models.UsagePeriod{{Name: "x", PeriodType: models.PeriodDaily}},
		FetchedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, st.SaveSnapshot(cached))

	p := New(gate.NewManager(), st, 50*time.Millisecond, time.Hour)
	strategies := []strategy.Strategy{
		stubStrategy{name: "cli", available: true, result: strategy.Fail(errors.New("down"))},
	}

	outcome := p.Execute(context.Background(), "claude", strategies, true)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Cached)
	assert.True(t, outcome.Stale, "snapshot is 2h old against a 1h stale threshold")
}

func TestExecuteReturnsGatedOutcomeWithoutCache(t *testing.T) {
	gates := gate.NewManager()
	g := gates.Get("claude")
	for i := 0; i < gate.MaxConsecutiveFailures; i++ {
		g.RecordFailure("network", "down")
	}

	p := New(gates, store.NewFileStore(t.TempDir()), 50*time.Millisecond, 0)
	outcome := p.Execute(context.Background(), "claude", nil, true)
	assert.True(t, outcome.Gated)
	assert.False(t, outcome.Success)
}

func TestExecuteReturnsCachedDataWhileGated(t *testing.T) {
	gates := gate.NewManager()
	g := gates.Get("claude")
	for i := 0; i < gate.MaxConsecutiveFailures; i++ {
		g.RecordFailure("network", "down")
	}

	st := store.NewFileStore(t.TempDir())
	cached := models.UsageSnapshot{Provider: "claude", Source: "cli", Periods: []models.UsagePeriod{{Name: "x", PeriodType: models.PeriodDaily}}}
	require.NoError(t, st.SaveSnapshot(cached))

	p := New(gates, st, 50*time.Millisecond, 0)
	outcome := p.Execute(context.Background(), "claude", nil, true)
	assert.True(t, outcome.Success)
	assert.True(t, outcome.Cached)
	assert.NotEmpty(t, outcome.GateRemaining)
}
