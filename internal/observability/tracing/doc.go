// Package tracing provides the OpenTelemetry integration of the feed.
//
// Spans are created for every status API request (Middleware), every
// research API call (StartClientSpan) and every controller fetch. Trace IDs
// are propagated to the research backend with the W3C traceparent header
// and written into request logs.
//
// Example usage:
//
//	shutdown := tracing.Setup("feedwatch")
//	defer func() { _ = shutdown(context.Background()) }()
//
//	ctx, span := tracing.StartClientSpan(ctx, "research.latest")
//	defer span.End()
package tracing
