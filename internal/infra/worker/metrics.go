package worker

import (
	"time"

	"postlabor-feed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WatcherMetrics contains the feedwatch daemon metrics. It embeds
// config.ConfigMetrics for the feedwatch_config_* family.
//
// Keep-alive metrics:
//   - feedwatch_keepalive_runs_total{status}: ping runs by success/failure
//   - feedwatch_keepalive_duration_seconds: ping duration including retries
//   - feedwatch_keepalive_last_success_timestamp: last successful ping
//
// Readiness:
//   - feedwatch_ready: 1 once the feed reached the Ready phase
type WatcherMetrics struct {
	*config.ConfigMetrics

	KeepAliveRunsTotal            *prometheus.CounterVec
	KeepAliveDurationSeconds      prometheus.Histogram
	KeepAliveLastSuccessTimestamp prometheus.Gauge
	Ready                         prometheus.Gauge
}

// NewWatcherMetrics registers the metrics with reg.
func NewWatcherMetrics(reg prometheus.Registerer) *WatcherMetrics {
	factory := promauto.With(reg)
	return &WatcherMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "feedwatch"),

		KeepAliveRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "feedwatch_keepalive_runs_total",
			Help: "Total number of keep-alive runs by status (success/failure)",
		}, []string{"status"}),

		KeepAliveDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "feedwatch_keepalive_duration_seconds",
			Help:    "Duration of keep-alive runs in seconds, retries included",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),

		KeepAliveLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feedwatch_keepalive_last_success_timestamp",
			Help: "Unix timestamp of the last successful keep-alive run",
		}),

		Ready: factory.NewGauge(prometheus.GaugeOpts{
			Name: "feedwatch_ready",
			Help: "1 once the feed has reached the ready phase, 0 before",
		}),
	}
}

// RecordKeepAlive records one keep-alive run.
func (m *WatcherMetrics) RecordKeepAlive(err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.KeepAliveRunsTotal.WithLabelValues(status).Inc()
	m.KeepAliveDurationSeconds.Observe(d.Seconds())
	if err == nil {
		m.KeepAliveLastSuccessTimestamp.SetToCurrentTime()
	}
}

// SetReady mirrors the health server readiness.
func (m *WatcherMetrics) SetReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.Ready.Set(1)
	} else {
		m.Ready.Set(0)
	}
}
