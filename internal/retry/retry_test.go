package retry

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vuerrors "github.com/sawpanic/vibeusage/internal/errors"
)

func TestDelayGrowsExponentiallyAndCaps(t *testing.T) {
	cfg := Config{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 4 * time.Second, ExponentialBase: 2.0, Jitter: false}
	assert.Equal(t, time.Second, cfg.Delay(0))
	assert.Equal(t, 2*time.Second, cfg.Delay(1))
	assert.Equal(t, 4*time.Second, cfg.Delay(2))
	assert.Equal(t, 4*time.Second, cfg.Delay(3), "delay must cap at MaxDelay")
}

func TestDelayWithJitterStaysWithinBounds(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 10 * time.Second, ExponentialBase: 2.0, Jitter: true}
	d := cfg.Delay(0)
	assert.GreaterOrEqual(t, d, time.Second)
	assert.LessOrEqual(t, d, time.Duration(float64(time.Second)*1.25))
}

func TestShouldRetryNetworkAndRateLimited(t *testing.T) {
	network := vuerrors.New("timeout", vuerrors.CategoryNetwork, vuerrors.SeverityTransient)
	assert.True(t, ShouldRetry(network))

	rateLimited := vuerrors.New("429", vuerrors.CategoryRateLimited, vuerrors.SeverityTransient)
	assert.True(t, ShouldRetry(rateLimited))

	auth := vuerrors.New("bad token", vuerrors.CategoryAuthentication, vuerrors.SeverityRecoverable)
	assert.False(t, ShouldRetry(auth))
}

func TestRetryAfterParsesSeconds(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"5"}}}
	d, ok := RetryAfter(resp)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, d)
}

func TestRetryAfterMissingHeader(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	_, ok := RetryAfter(resp)
	assert.False(t, ok)
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	resp, err := Do(context.Background(), DefaultConfig(), func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return &http.Response{StatusCode: 200}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestDoDoesNotRetryNonRetryableError(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), DefaultConfig(), func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return nil, vuerrors.New("bad auth", vuerrors.CategoryAuthentication, vuerrors.SeverityRecoverable)
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUpToMaxAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 1.0, Jitter: false}
	calls := 0
	_, err := Do(context.Background(), cfg, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		return nil, vuerrors.New("down", vuerrors.CategoryNetwork, vuerrors.SeverityTransient)
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoHonorsRetryAfterOn429WhenLargerThanComputedDelay(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 1.0, Jitter: false}
	calls := 0
	start := time.Now()
	_, _ = Do(context.Background(), cfg, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		resp := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"1"}}}
		return resp, vuerrors.New("rate limited", vuerrors.CategoryRateLimited, vuerrors.SeverityTransient)
	})
	elapsed := time.Since(start)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, elapsed, time.Second, "a 429's Retry-After must raise the delay to at least the header value")
}

func TestDoKeepsLargerComputedDelayWhenRetryAfterIsSmaller(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second, ExponentialBase: 1.0, Jitter: false}
	calls := 0
	start := time.Now()
	_, _ = Do(context.Background(), cfg, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		resp := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"0"}}}
		return resp, vuerrors.New("rate limited", vuerrors.CategoryRateLimited, vuerrors.SeverityTransient)
	})
	elapsed := time.Since(start)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond, "Retry-After must never shorten the computed backoff")
}

func TestDoIgnoresRetryAfterOnNon429Response(t *testing.T) {
	cfg := Config{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, ExponentialBase: 1.0, Jitter: false}
	calls := 0
	start := time.Now()
	_, _ = Do(context.Background(), cfg, func(ctx context.Context, attempt int) (*http.Response, error) {
		calls++
		resp := &http.Response{StatusCode: 503, Header: http.Header{"Retry-After": []string{"5"}}}
		return resp, vuerrors.New("unavailable", vuerrors.CategoryProvider, vuerrors.SeverityTransient)
	})
	elapsed := time.Since(start)
	assert.Equal(t, 2, calls)
	assert.Less(t, elapsed, 2*time.Second, "a stray Retry-After on a non-429 response must not override exponential backoff")
}
