package research

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records research API request outcomes.
//
//   - research_client_requests_total{endpoint,result}
//   - research_client_request_duration_seconds{endpoint}
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the client metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "research_client_requests_total",
			Help: "Total number of research API requests by endpoint and result",
		}, []string{"endpoint", "result"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "research_client_request_duration_seconds",
			Help: "Research API request duration in seconds",
			// The backend may cold-start, so the tail goes past the fetch timeout.
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) record(endpoint, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, result).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}
