package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// Manager hands out one *http.Client per provider, each wrapping the
// shared connection pool with that provider's rate limiter and transport
// circuit breaker.
type Manager struct {
	pool      *Pool
	breakers  *Breakers
	limiters  *RateLimiters
	providers map[string]*http.Client
}

// NewManager builds a manager backed by a fresh pool, breaker registry,
// and rate limiter registry.
func NewManager() *Manager {
	return &Manager{
		pool:      NewPool(),
		breakers:  NewBreakers(),
		limiters:  NewRateLimiters(),
		providers: make(map[string]*http.Client),
	}
}

// ConfigureRateLimit sets a provider's per-host request rate.
func (m *Manager) ConfigureRateLimit(provider string, rps float64, burst int) {
	m.limiters.Configure(provider, rps, burst)
}

// Client returns the *http.Client for a provider, building one on first
// use. Every client shares the pool's connections but has its own
// breaker and rate limiter.
func (m *Manager) Client(provider string, timeout time.Duration) *http.Client {
	if c, ok := m.providers[provider]; ok {
		return c
	}
	base := m.pool.Client(timeout)
	c := &http.Client{
		Timeout: timeout,
		Transport: &roundTripper{
			provider: provider,
			base:     base.Transport,
			breakers: m.breakers,
			limiters: m.limiters,
		},
	}
	m.providers[provider] = c
	return c
}

// BreakerState reports a provider's transport circuit breaker state, for
// diagnostics and the monitor endpoint.
func (m *Manager) BreakerState(provider string) string {
	return m.breakers.State(provider).String()
}

// Shutdown releases pooled connections.
func (m *Manager) Shutdown() {
	m.pool.Shutdown()
}

// roundTripper composes rate limiting and circuit breaking around the
// shared transport, the way the core HTTP client pool is meant to be
// used by every strategy.
type roundTripper struct {
	provider string
	base     http.RoundTripper
	breakers *Breakers
	limiters *RateLimiters
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := rt.limiters.Wait(req.Context(), rt.provider, req.URL.Host); err != nil {
		return nil, fmt.Errorf("%s: rate limit wait: %w", rt.provider, err)
	}

	result, err := rt.breakers.Execute(rt.provider, func() (any, error) {
		return rt.base.RoundTrip(req)
	})
	if err != nil {
		return nil, err
	}
	resp, _ := result.(*http.Response)
	return resp, nil
}
