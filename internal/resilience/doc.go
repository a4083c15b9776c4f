// Package resilience groups the fault tolerance helpers used by the
// outbound HTTP clients of the feed: the research API client, the RSS
// source and the chat webhook notifiers.
//
// The package supports:
//   - Circuit breakers around each remote dependency
//   - Retry logic with exponential backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ResearchAPIConfig())
//	items, err := circuitbreaker.Do(cb, func() ([]entity.ContentItem, error) {
//	    return fetchBatch(ctx)
//	})
//
//	err := retry.WithBackoff(ctx, retry.KeepAliveConfig(), func() error {
//	    return client.Ping(ctx)
//	})
package resilience
