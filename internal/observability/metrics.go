package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the engine.
type Metrics struct {
	PredictRequests  *prometheus.CounterVec // labels: outcome={resolved,not_found}
	DonationsCreated prometheus.Counter
	RequestsCreated  prometheus.Counter
	RequestsMatched  prometheus.Counter
	Allocations      *prometheus.CounterVec // labels: outcome={committed,insufficient,invalid}
	MatchScore       prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PredictRequests,
		m.DonationsCreated,
		m.RequestsCreated,
		m.RequestsMatched,
		m.Allocations,
		m.MatchScore,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering, so parallel
// tests do not panic with "already registered".
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PredictRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relief_engine",
			Name:      "predict_requests_total",
			Help:      "Location predictions by outcome.",
		}, []string{"outcome"}),
		DonationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relief_engine",
			Name:      "donations_created_total",
			Help:      "Total donations recorded.",
		}),
		RequestsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relief_engine",
			Name:      "victim_requests_created_total",
			Help:      "Total victim requests recorded.",
		}),
		RequestsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relief_engine",
			Name:      "victim_requests_matched_total",
			Help:      "Victim requests matched to a hub at creation.",
		}),
		Allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relief_engine",
			Name:      "allocations_total",
			Help:      "Donation allocation attempts by outcome.",
		}, []string{"outcome"}),
		MatchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "relief_engine",
			Name:      "match_score",
			Help:      "Match scores assigned to victim requests.",
			Buckets:   []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}
