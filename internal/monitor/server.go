// Package monitor serves a local read-only HTTP view over the fetch
// subsystem: health, Prometheus metrics, the last snapshot per provider,
// and a websocket stream of live fetch outcomes.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/vibeusage/internal/gate"
	"github.com/sawpanic/vibeusage/internal/store"
)

// Server is the monitor's HTTP server.
type Server struct {
	router  *mux.Router
	server  *http.Server
	config  Config
	store   store.Store
	gates   *gate.Manager
	hub     *streamHub
	metrics *Metrics
}

// Config controls the monitor server's bind address and timeouts.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig is a conservative, local-only default.
func DefaultConfig(addr string) Config {
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	return Config{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// New builds a monitor server backed by st for snapshot lookups, gates
// for the per-provider health summary, and m for Prometheus metrics. It
// does not bind a listener until Start.
func New(cfg Config, st store.Store, gates *gate.Manager, m *Metrics) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		config:  cfg,
		store:   st,
		gates:   gates,
		hub:     newStreamHub(),
		metrics: m,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/snapshot/{provider}", s.handleSnapshot).Methods(http.MethodGet)
	s.router.HandleFunc("/stream", s.handleStream)
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, requestID)))
	})
}

type requestIDKey struct{}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusCapture{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("request_id", fmt.Sprint(r.Context().Value(requestIDKey{}))).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("monitor request")
	})
}

type statusCapture struct {
	http.ResponseWriter
	status int
}

func (w *statusCapture) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// healthGate summarizes one provider's failure gate for /health.
type healthGate struct {
	Gated     bool   `json:"gated"`
	Remaining string `json:"remaining,omitempty"`
	Failures  int    `json:"failures"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}

	if s.gates != nil {
		gates := map[string]healthGate{}
		for providerID, g := range s.gates.All() {
			summary := healthGate{Gated: g.IsGated(), Failures: len(g.RecentFailures(0))}
			if summary.Gated {
				summary.Remaining = g.Remaining().String()
			}
			gates[providerID] = summary
		}
		body["gates"] = gates
	}

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]
	snap, ok := s.store.LoadSnapshot(provider)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no snapshot for provider " + provider})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Broadcast pushes a fetch outcome (or any JSON-serializable event) to
// every connected /stream client.
func (s *Server) Broadcast(event any) {
	s.hub.broadcast(event)
}

// Start binds the listener and serves until Shutdown is called or the
// server errors out. It verifies the port is free before committing to
// ListenAndServe so a busy port fails fast with a clear message.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("monitor: address %s is busy or unavailable: %w", s.config.Addr, err)
	}
	listener.Close()

	log.Info().Str("addr", s.config.Addr).Msg("starting monitor server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
