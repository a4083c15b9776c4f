package feed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes the controller's fetch activity.
type Metrics struct {
	FetchesTotal             *prometheus.CounterVec
	FetchDuration            prometheus.Histogram
	Items                    prometheus.Gauge
	Phase                    prometheus.Gauge
	StaleResultsTotal        prometheus.Counter
	DiscardedAfterCloseTotal prometheus.Counter
}

// NewMetrics registers the feed_controller_* metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feed_controller_fetches_total",
			Help: "Total number of feed fetches by trigger and result",
		}, []string{"trigger", "result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "feed_controller_fetch_duration_seconds",
			Help:    "Duration of feed fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		Items: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_controller_items",
			Help: "Number of items in the currently displayed batch",
		}),
		Phase: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feed_controller_phase",
			Help: "Current feed phase (0 loading, 1 ready, 2 error)",
		}),
		StaleResultsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_controller_stale_results_total",
			Help: "Fetch results dropped because a newer request was issued",
		}),
		DiscardedAfterCloseTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "feed_controller_discarded_after_close_total",
			Help: "Fetch results dropped because the controller was closed",
		}),
	}
}

func (m *Metrics) recordFetch(trigger string, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.FetchesTotal.WithLabelValues(trigger, result).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) recordState(s Snapshot) {
	if m == nil {
		return
	}
	m.Items.Set(float64(len(s.Items)))
	m.Phase.Set(float64(s.Phase))
}

func (m *Metrics) recordStale() {
	if m != nil {
		m.StaleResultsTotal.Inc()
	}
}

func (m *Metrics) recordDiscarded() {
	if m != nil {
		m.DiscardedAfterCloseTotal.Inc()
	}
}
