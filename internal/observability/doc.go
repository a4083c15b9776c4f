// Package observability groups the logging, metrics and tracing helpers
// shared by feedwatch and feedview.
//
// Subpackages:
//   - logging: slog constructors and context-aware attributes
//   - metrics: per-route HTTP metrics on a caller-supplied registry
//   - tracing: OpenTelemetry setup, spans and the server middleware
//
// Example usage:
//
//	logger := logging.NewLogger()
//	reg := prometheus.NewRegistry()
//	shutdown := tracing.Setup("feedwatch")
//	defer shutdown(context.Background())
//	handler := tracing.Middleware(metrics.NewHTTPMetrics(reg).Middleware(mux))
package observability
