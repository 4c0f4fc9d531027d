package monitor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every Prometheus collector the fetch subsystem exports.
type Metrics struct {
	FetchDuration *prometheus.HistogramVec
	FetchTotal    *prometheus.CounterVec
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec
	GatedProviders prometheus.Gauge
	ActiveFetches prometheus.Gauge
}

// NewMetrics builds and registers the fetch-subsystem metrics against
// reg. Use prometheus.NewRegistry() in tests to avoid collisions with
// the global default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vibeusage_fetch_duration_seconds",
				Help:    "Duration of a provider fetch pipeline run",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider", "result"},
		),
		FetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibeusage_fetch_total",
				Help: "Total fetch pipeline runs by provider and result",
			},
			[]string{"provider", "result"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibeusage_cache_hits_total",
				Help: "Total snapshot cache hits by tier",
			},
			[]string{"tier"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vibeusage_cache_misses_total",
				Help: "Total snapshot cache misses by tier",
			},
			[]string{"tier"},
		),
		GatedProviders: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibeusage_gated_providers",
			Help: "Number of providers currently gated",
		}),
		ActiveFetches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vibeusage_active_fetches",
			Help: "Number of fetches currently in flight",
		}),
	}

	reg.MustRegister(m.FetchDuration, m.FetchTotal, m.CacheHits, m.CacheMisses, m.GatedProviders, m.ActiveFetches)
	return m
}

// ObserveOutcome records a fetch's duration and result against the
// histogram and counter, keyed by provider and a coarse result label.
func (m *Metrics) ObserveOutcome(provider, result string, seconds float64) {
	m.FetchDuration.WithLabelValues(provider, result).Observe(seconds)
	m.FetchTotal.WithLabelValues(provider, result).Inc()
}
