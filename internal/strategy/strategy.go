// Package strategy defines the contract every provider fetch strategy
// implements, and the result type the fetch pipeline consumes.
package strategy

import (
	"context"

	"github.com/sawpanic/vibeusage/internal/models"
)

// Strategy is one way of fetching usage data from a provider — a CLI
// subprocess, an API key call, a browser cookie jar, whatever a given
// provider supports. A provider tries its strategies in priority order
// until one succeeds.
type Strategy interface {
	// Name identifies the strategy (e.g. "cli", "api_key", "oauth").
	Name() string
	// IsAvailable reports whether this strategy can be attempted right
	// now — credentials present, binary on PATH, and so on. It must not
	// make network calls.
	IsAvailable(ctx context.Context) bool
	// Fetch attempts to retrieve a usage snapshot.
	Fetch(ctx context.Context) Result
}

// Result is what a strategy's Fetch call returns: success with a
// snapshot, a recoverable failure that should fall through to the next
// strategy, or a fatal failure that should stop the pipeline outright.
type Result struct {
	Success       bool
	Snapshot      *models.UsageSnapshot
	Error         error
	ShouldFallback bool
}

// Ok builds a successful result.
func Ok(snapshot *models.UsageSnapshot) Result {
	return Result{Success: true, Snapshot: snapshot, ShouldFallback: false}
}

// Fail builds a recoverable failure: the pipeline will try the next
// strategy.
func Fail(err error) Result {
	return Result{Success: false, Error: err, ShouldFallback: true}
}

// Fatal builds an unrecoverable failure: the pipeline stops immediately
// without trying remaining strategies (e.g. a hard rate limit that would
// only get worse by hammering other endpoints).
func Fatal(err error) Result {
	return Result{Success: false, Error: err, ShouldFallback: false}
}
