package httpclient

import (
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// breakerDefaults mirrors the conservative settings used for every
// provider transport breaker: trip after a majority of a small sample
// fails, then allow a single probe request after the cooldown.
var breakerDefaults = gobreaker.Settings{
	MaxRequests: 1,
	Interval:    60 * time.Second,
	Timeout:     30 * time.Second,
	ReadyToTrip: func(counts gobreaker.Counts) bool {
		return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
	},
}

// Breakers owns one transport-level circuit breaker per provider. This is
// distinct from the domain failure gate: the gate tracks semantic fetch
// failures across strategies, this tracks raw transport health for a
// single HTTP round trip.
type Breakers struct {
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewBreakers returns an empty breaker registry.
func NewBreakers() *Breakers {
	return &Breakers{breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (b *Breakers) get(provider string) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cb, ok := b.breakers[provider]; ok {
		return cb
	}
	settings := breakerDefaults
	settings.Name = provider
	cb := gobreaker.NewCircuitBreaker(settings)
	b.breakers[provider] = cb
	return cb
}

// Execute runs fn through the provider's breaker, translating an open
// breaker into a plain error the caller can classify like any other
// transport failure.
func (b *Breakers) Execute(provider string, fn func() (any, error)) (any, error) {
	result, err := b.get(provider).Execute(fn)
	if err == gobreaker.ErrOpenState {
		return nil, fmt.Errorf("%s: circuit breaker open, refusing request: %w", provider, err)
	}
	return result, err
}

// State reports the current breaker state for a provider.
func (b *Breakers) State(provider string) gobreaker.State {
	return b.get(provider).State()
}
