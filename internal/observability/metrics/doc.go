// Package metrics provides the HTTP request metrics of the status API.
//
// Metrics are registered on a caller-supplied prometheus.Registerer so
// tests can use a private registry; production code passes
// prometheus.DefaultRegisterer and exposes it through promhttp.
//
// Example usage:
//
//	m := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)
//	handler = m.Middleware(handler)
package metrics
