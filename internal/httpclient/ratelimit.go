package httpclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter hands out a token-bucket limiter per host within a single
// provider, created lazily so providers that only ever talk to one host
// don't pay for a map of limiters they'll never use.
type hostLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

func newHostLimiter(rps float64, burst int) *hostLimiter {
	return &hostLimiter{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (h *hostLimiter) get(host string) *rate.Limiter {
	h.mu.RLock()
	l, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return l
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if l, ok := h.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(rate.Limit(h.rps), h.burst)
	h.limiters[host] = l
	return l
}

// Wait blocks until a request to host is permitted or ctx is done.
func (h *hostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

// RateLimiters owns one per-host token bucket per provider.
type RateLimiters struct {
	mu       sync.RWMutex
	byProvider map[string]*hostLimiter
}

// NewRateLimiters returns an empty rate limiter registry.
func NewRateLimiters() *RateLimiters {
	return &RateLimiters{byProvider: make(map[string]*hostLimiter)}
}

// Configure sets (or replaces) the rate limit for a provider's hosts.
func (r *RateLimiters) Configure(provider string, rps float64, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byProvider[provider] = newHostLimiter(rps, burst)
}

// Wait blocks until a request for provider/host is permitted. Providers
// with no configured limiter proceed immediately — rate limiting is
// opt-in per provider.
func (r *RateLimiters) Wait(ctx context.Context, provider, host string) error {
	r.mu.RLock()
	l, ok := r.byProvider[provider]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return l.Wait(ctx, host)
}
