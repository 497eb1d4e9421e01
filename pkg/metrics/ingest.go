package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailure     = "failure"
)

// Fetch endpoints and record kinds.
const (
	EndpointCatalog = "catalog"
	EndpointVendors = "vendors"

	KindCatalog = "catalog"
	KindVendor  = "vendor"
)

// IngestMetrics records what an ingest run did. A nil *IngestMetrics is a no-op.
type IngestMetrics struct {
	fetches  *prometheus.CounterVec
	upserts  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	failures *prometheus.CounterVec
	trips    prometheus.Counter
	phase    *prometheus.HistogramVec
}

// NewIngestMetrics registers the ingest metrics on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_fetch_total",
		Help: "Upstream fetches by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	upserts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_upserted_total",
		Help: "Records written by kind.",
	}, []string{"kind"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_records_dropped_total",
		Help: "Raw payloads rejected by the mappers.",
	}, []string{"kind"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_store_failures_total",
		Help: "Upserts that failed and were skipped.",
	}, []string{"kind"})
	trips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_circuit_breaker_trips_total",
		Help: "Vendor phases aborted after sustained rate limiting.",
	})
	phase := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_phase_duration_seconds",
		Help:    "Duration of each ingest phase.",
		Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
	}, []string{"phase"})
	reg.MustRegister(fetches, upserts, dropped, failures, trips, phase)
	return &IngestMetrics{
		fetches:  fetches,
		upserts:  upserts,
		dropped:  dropped,
		failures: failures,
		trips:    trips,
		phase:    phase,
	}
}

func (m *IngestMetrics) IncFetch(endpoint, outcome string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.WithLabelValues(endpoint, outcome).Inc()
}

func (m *IngestMetrics) IncUpserted(kind string) {
	if m == nil || m.upserts == nil {
		return
	}
	m.upserts.WithLabelValues(kind).Inc()
}

func (m *IngestMetrics) AddDropped(kind string, n int) {
	if m == nil || m.dropped == nil || n <= 0 {
		return
	}
	m.dropped.WithLabelValues(kind).Add(float64(n))
}

func (m *IngestMetrics) IncStoreFailure(kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

func (m *IngestMetrics) IncCircuitBreakerTrip() {
	if m == nil || m.trips == nil {
		return
	}
	m.trips.Inc()
}

func (m *IngestMetrics) ObservePhase(phase string, d time.Duration) {
	if m == nil || m.phase == nil {
		return
	}
	m.phase.WithLabelValues(phase).Observe(d.Seconds())
}
