package config

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics provides parameterized Prometheus metrics for configuration
// loading. One instance exists per component (feedwatch, feedview, announce).
//
// Metrics generated (parameterized by component name):
//   - {component}_config_load_timestamp: Unix timestamp of last configuration load
//   - {component}_config_validation_errors_total: Total validation errors by field
//   - {component}_config_fallbacks_total: Total fallback operations by field
//   - {component}_config_fallback_active: 1 if any fallback active, 0 otherwise
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge

	componentName string
}

// NewConfigMetrics registers the metrics with the default Prometheus registry.
// It panics if metrics for the same component are registered twice.
func NewConfigMetrics(componentName string) *ConfigMetrics {
	return NewConfigMetricsWith(prometheus.DefaultRegisterer, componentName)
}

// NewConfigMetricsWith registers the metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() so they can create the same component repeatedly.
func NewConfigMetricsWith(reg prometheus.Registerer, componentName string) *ConfigMetrics {
	factory := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_load_timestamp", componentName),
			Help: fmt.Sprintf("Unix timestamp of last %s configuration load", componentName),
		}),
		ValidationErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_validation_errors_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration validation errors", componentName),
		}, []string{"field"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: fmt.Sprintf("%s_config_fallbacks_total", componentName),
			Help: fmt.Sprintf("Total number of %s configuration fallback operations", componentName),
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: fmt.Sprintf("%s_config_fallback_active", componentName),
			Help: fmt.Sprintf("1 if any %s configuration fallback is active, 0 otherwise", componentName),
		}),
		componentName: componentName,
	}
}

// Component returns the metric prefix.
func (m *ConfigMetrics) Component() string {
	return m.componentName
}

// RecordLoadTimestamp records the current time as the configuration load timestamp.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError increments the validation error counter for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback increments the fallback counter for field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the fallback active gauge to 1 or 0.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

// Tracker accumulates the outcome of several loads so a component's
// LoadConfigFromEnv reads as a flat list of fields.
//
// Example:
//
//	tr := config.NewTracker(logger, metrics)
//	cfg.BatchLimit = config.Track(tr, "batch_limit", config.LoadEnvInt("FEED_BATCH_LIMIT", 6, nil))
//	tr.Finish()
type Tracker struct {
	logger   *slog.Logger
	metrics  *ConfigMetrics
	fallback bool
}

// NewTracker returns a Tracker. metrics may be nil.
func NewTracker(logger *slog.Logger, metrics *ConfigMetrics) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{logger: logger, metrics: metrics}
}

// Track logs and records the warnings of res and returns its value.
func Track[T any](tr *Tracker, field string, res Result[T]) T {
	if res.FallbackApplied {
		tr.fallback = true
		if tr.metrics != nil {
			tr.metrics.RecordValidationError(field)
			tr.metrics.RecordFallback(field)
		}
		for _, warning := range res.Warnings {
			tr.logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}
	return res.Value
}

// FallbackApplied reports whether any tracked field fell back to its default.
func (tr *Tracker) FallbackApplied() bool {
	return tr.fallback
}

// Finish updates the fallback gauge and the load timestamp.
func (tr *Tracker) Finish() {
	if tr.metrics == nil {
		return
	}
	tr.metrics.SetFallbackActive(tr.fallback)
	tr.metrics.RecordLoadTimestamp()
}
