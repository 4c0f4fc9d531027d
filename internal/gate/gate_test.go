package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateOpensBeforeThreshold(t *testing.T) {
	g := New("claude")
	g.RecordFailure("network", "timeout")
	g.RecordFailure("network", "timeout")
	assert.False(t, g.IsGated())
}

func TestGateTripsAtThreshold(t *testing.T) {
	g := New("claude")
	for i := 0; i < MaxConsecutiveFailures; i++ {
		g.RecordFailure("network", "timeout")
	}
	assert.True(t, g.IsGated())
	assert.Greater(t, g.Remaining(), time.Duration(0))
	assert.LessOrEqual(t, g.Remaining(), Duration)
}

func TestGateSuccessResetsConsecutiveCount(t *testing.T) {
	g := New("claude")
	g.RecordFailure("network", "timeout")
	g.RecordFailure("network", "timeout")
	g.RecordSuccess()
	g.RecordFailure("network", "timeout")
	assert.False(t, g.IsGated(), "success should reset the streak so one more failure doesn't trip it")
}

func TestGateFailureWhileGatedDoesNotExtendOrReset(t *testing.T) {
	g := New("claude")
	for i := 0; i < MaxConsecutiveFailures; i++ {
		g.RecordFailure("network", "timeout")
	}
	require.True(t, g.IsGated())
	firstRemaining := g.Remaining()

	g.RecordFailure("network", "timeout again")
	assert.LessOrEqual(t, g.Remaining(), firstRemaining, "an extra failure while gated must not push gated_until further out")
}

func TestGateExpiresAfterDuration(t *testing.T) {
	g := New("claude")
	past := time.Now().Add(-time.Second)
	g.gatedUntil = &past
	assert.False(t, g.IsGated())
	assert.Equal(t, time.Duration(0), g.Remaining())
}

func TestGateClearResetsEverything(t *testing.T) {
	g := New("claude")
	for i := 0; i < MaxConsecutiveFailures; i++ {
		g.RecordFailure("network", "timeout")
	}
	g.Clear()
	assert.False(t, g.IsGated())
	assert.Empty(t, g.RecentFailures(5))
}

func TestGateRecentFailuresCapsAtLimit(t *testing.T) {
	g := New("claude")
	for i := 0; i < 5; i++ {
		g.RecordFailure("network", "timeout")
	}
	assert.Len(t, g.RecentFailures(2), 2)
}

func TestManagerGetIsLazyAndStable(t *testing.T) {
	m := NewManager()
	a := m.Get("claude")
	b := m.Get("claude")
	assert.Same(t, a, b)
}

func TestManagerRestoreReplacesGate(t *testing.T) {
	m := NewManager()
	m.Get("claude")

	restored := FromState(New("claude").State())
	restored.RecordFailure("network", "x")
	m.Restore(restored)

	assert.Same(t, restored, m.Get("claude"))
}
