package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the reporting service.
type Metrics struct {
	// Upstream fetch metrics
	Fetches        *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	RecordsFetched *prometheus.GaugeVec

	// Pipeline metrics
	DeriveDuration *prometheus.HistogramVec
	DeriveFailures *prometheus.CounterVec
	DroppedRecords *prometheus.CounterVec
	StaleCycles    prometheus.Counter
	SnapshotLoads  *prometheus.CounterVec

	// HTTP metrics
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		Fetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_fetches_total",
				Help:      "Upstream collection fetches by outcome",
			},
			[]string{"collection", "status"},
		),
		FetchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_fetch_duration_seconds",
				Help:      "Upstream fetch latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"collection"},
		),
		RecordsFetched: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records_fetched",
				Help:      "Raw records held from the last successful fetch",
			},
			[]string{"collection"},
		),
		DeriveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "derive_duration_seconds",
				Help:      "Duration of one derivation stage",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"stage"},
		),
		DeriveFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "derive_failures_total",
				Help:      "Derivation stage failures",
			},
			[]string{"stage"},
		),
		DroppedRecords: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_records_total",
				Help:      "Raw records dropped during normalization",
			},
			[]string{"reason"},
		),
		StaleCycles: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stale_cycles_discarded_total",
				Help:      "Fetch cycles discarded because a newer cycle started",
			},
		),
		SnapshotLoads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_loads_total",
				Help:      "Snapshot store fallback loads by outcome",
			},
			[]string{"status"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"endpoint"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch records one upstream fetch outcome.
func (m *Metrics) RecordFetch(collection, status string, d time.Duration) {
	m.Fetches.WithLabelValues(collection, status).Inc()
	m.FetchDuration.WithLabelValues(collection).Observe(d.Seconds())
}

// RecordFetchSize records the raw record count held for a collection.
func (m *Metrics) RecordFetchSize(collection string, n int) {
	m.RecordsFetched.WithLabelValues(collection).Set(float64(n))
}

// RecordDerive records one derivation stage run.
func (m *Metrics) RecordDerive(stage string, d time.Duration, failed bool) {
	m.DeriveDuration.WithLabelValues(stage).Observe(d.Seconds())
	if failed {
		m.DeriveFailures.WithLabelValues(stage).Inc()
	}
}

// RecordDropped records raw records discarded during normalization.
func (m *Metrics) RecordDropped(reason string, n int) {
	if n > 0 {
		m.DroppedRecords.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordStaleCycle records a fetch cycle whose result was discarded.
func (m *Metrics) RecordStaleCycle() {
	m.StaleCycles.Inc()
}

// RecordSnapshotLoad records a snapshot fallback attempt.
func (m *Metrics) RecordSnapshotLoad(status string) {
	m.SnapshotLoads.WithLabelValues(status).Inc()
}

// RecordRateLimitHit records a rate limit rejection.
func (m *Metrics) RecordRateLimitHit(endpoint string) {
	m.RateLimitHits.WithLabelValues(endpoint).Inc()
}
