// Package retry implements the exponential-backoff-with-jitter retry
// engine shared by every provider strategy.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	vuerrors "github.com/sawpanic/vibeusage/internal/errors"
)

// Config controls backoff shape. The zero value is not usable; use
// DefaultConfig.
type Config struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
}

// DefaultConfig matches the retry behavior every provider strategy gets
// unless it opts into something stricter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     3,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Delay computes the backoff before the next attempt, given how many
// attempts have already completed (0-indexed).
func (c Config) Delay(attempt int) time.Duration {
	delay := float64(c.BaseDelay) * math.Pow(c.ExponentialBase, float64(attempt))
	if c.Jitter {
		delay *= 1.0 + rand.Float64()*0.25
	}
	if max := float64(c.MaxDelay); delay > max {
		delay = max
	}
	return time.Duration(delay)
}

// ShouldRetry decides whether an error is worth another attempt: network
// errors, timeouts, 5xx, and 429 are retryable; everything else is not.
func ShouldRetry(err error) bool {
	var ve *vuerrors.VibeusageError
	if errors.As(err, &ve) {
		return retryableCategory(ve)
	}
	if err == nil {
		return false
	}
	return retryableCategory(vuerrors.Classify(err, ""))
}

func retryableCategory(ve *vuerrors.VibeusageError) bool {
	switch ve.Category {
	case vuerrors.CategoryNetwork, vuerrors.CategoryRateLimited:
		return true
	case vuerrors.CategoryProvider:
		return ve.Severity == vuerrors.SeverityTransient
	default:
		return false
	}
}

// RetryAfter parses a Retry-After response header (seconds, or an HTTP
// date) into a duration. It returns ok=false when the header is absent
// or unparseable, in which case the caller should fall back to computed
// backoff.
func RetryAfter(resp *http.Response) (time.Duration, bool) {
	if resp == nil {
		return 0, false
	}
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(header); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, true
		}
		return delay, true
	}
	return 0, false
}

// Do runs fn with retries per cfg. fn should return the response it
// obtained (for Retry-After inspection) alongside its error; resp may be
// nil when the error isn't HTTP-shaped. Do returns fn's last result.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) (*http.Response, error)) (*http.Response, error) {
	var lastResp *http.Response
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastResp, lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return lastResp, nil
		}
		if !ShouldRetry(lastErr) {
			return lastResp, lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		delay := cfg.Delay(attempt)
		if lastResp != nil && vuerrors.ClassifyHTTPStatus(lastResp.StatusCode).RetryAfterAware {
			if after, ok := RetryAfter(lastResp); ok && after > delay {
				delay = after
			}
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastResp, ctx.Err()
		case <-timer.C:
		}
	}

	return lastResp, lastErr
}
