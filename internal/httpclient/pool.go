// Package httpclient provides the shared, pooled HTTP transport used by
// every provider strategy: connection pooling, per-host rate limiting,
// and a transport-level circuit breaker layered on top via RoundTripper
// wrapping.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

const (
	connectTimeout      = 10 * time.Second
	maxIdleConns        = 20
	maxIdleConnsPerHost = 5
	idleConnTimeout     = 90 * time.Second
)

// NewPooledTransport builds the base transport shared by every provider
// client: a bounded connection pool with conservative timeouts, so one
// slow provider can't starve the others of sockets.
func NewPooledTransport() *http.Transport {
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: connectTimeout,
	}
}

// Pool lazily builds and shuts down the process-wide pooled transport.
// It exists so callers don't each pay the dial-timeout setup cost, and
// so tests can swap in a fresh pool without touching http.DefaultTransport.
type Pool struct {
	transport *http.Transport
}

// NewPool returns an uninitialized pool; the transport is built on first
// use by Client.
func NewPool() *Pool {
	return &Pool{}
}

// Client returns an *http.Client backed by the pool's shared transport,
// building the transport on first call.
func (p *Pool) Client(timeout time.Duration) *http.Client {
	if p.transport == nil {
		p.transport = NewPooledTransport()
	}
	return &http.Client{Transport: p.transport, Timeout: timeout}
}

// Shutdown closes idle connections held by the pool. Call it once at
// process exit.
func (p *Pool) Shutdown() {
	if p.transport != nil {
		p.transport.CloseIdleConnections()
	}
}
