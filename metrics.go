package arxivfeed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes recorded per attempt.
const (
	outcomeRecords      = "records"
	outcomeEmpty        = "empty"
	outcomeHTTPError    = "http_error"
	outcomeNetworkError = "network_error"
	outcomeParseError   = "parse_error"
)

// Metrics holds the Prometheus collectors for a Client. A nil *Metrics
// records nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	records   *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
}

// NewMetrics registers the client collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxivfeed_requests_total",
				Help: "Total number of API requests by category, tier and outcome",
			},
			[]string{"category", "tier", "outcome"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "arxivfeed_request_duration_seconds",
				Help:    "API request duration in seconds, including body decoding",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category", "tier"},
		),
		records: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxivfeed_records_total",
				Help: "Total number of paper records assembled",
			},
			[]string{"category"},
		),
		dropped: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxivfeed_fragments_dropped_total",
				Help: "Total number of entry fragments dropped for missing required fields",
			},
			[]string{"category"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "arxivfeed_fallbacks_total",
				Help: "Total number of fallback tiers attempted after an empty result",
			},
			[]string{"category", "tier"},
		),
	}
}

func (m *Metrics) observeAttempt(cat Category, tier Tier, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(cat), tier.String(), outcome).Inc()
	m.duration.WithLabelValues(string(cat), tier.String()).Observe(d.Seconds())
}

func (m *Metrics) observeAssembly(cat Category, records, dropped int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(string(cat)).Add(float64(records))
	m.dropped.WithLabelValues(string(cat)).Add(float64(dropped))
}

func (m *Metrics) observeFallback(cat Category, tier Tier) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(string(cat), tier.String()).Inc()
}
