package announce

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks announcement delivery.
type Metrics struct {
	DispatchedTotal *prometheus.CounterVec
	SentTotal       *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
	DroppedTotal    *prometheus.CounterVec
	SkippedTotal    prometheus.Counter
	SeenItems       prometheus.Gauge
	ChannelsEnabled prometheus.Gauge
}

// NewMetrics registers the announce_* metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DispatchedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "announce_dispatched_total",
			Help: "Total number of announcements dispatched",
		}, []string{"channel"}),
		SentTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "announce_sent_total",
			Help: "Total number of announcements sent",
		}, []string{"channel", "status"}), // status: success|failure
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "announce_duration_seconds",
			Help:    "Announcement send duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		}, []string{"channel"}),
		DroppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "announce_dropped_total",
			Help: "Total number of dropped announcements",
		}, []string{"channel", "reason"}), // reason: pool_full|circuit_open|canceled
		SkippedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "announce_skipped_total",
			Help: "New items not announced because the batch cap was reached",
		}),
		SeenItems: factory.NewGauge(prometheus.GaugeOpts{
			Name: "announce_seen_items",
			Help: "Number of item ids remembered as already seen",
		}),
		ChannelsEnabled: factory.NewGauge(prometheus.GaugeOpts{
			Name: "announce_channels_enabled",
			Help: "Number of enabled announcement channels",
		}),
	}
}

func (m *Metrics) recordDispatch(channel string) {
	if m == nil {
		return
	}
	m.DispatchedTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) recordResult(channel string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SentTotal.WithLabelValues(channel, status).Inc()
	m.Duration.WithLabelValues(channel).Observe(d.Seconds())
}

func (m *Metrics) recordDropped(channel, reason string) {
	if m == nil {
		return
	}
	m.DroppedTotal.WithLabelValues(channel, reason).Inc()
}

func (m *Metrics) recordSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SkippedTotal.Add(float64(n))
}

func (m *Metrics) setSeen(n int) {
	if m == nil {
		return
	}
	m.SeenItems.Set(float64(n))
}

func (m *Metrics) setChannelsEnabled(n int) {
	if m == nil {
		return
	}
	m.ChannelsEnabled.Set(float64(n))
}
