// Package resilience provides reliability and fault tolerance patterns for the relay.
//
// The package supports:
//   - Circuit breakers per feed host, per webhook destination and for the watermark database
//   - Retry logic with exponential backoff, optional jitter and a per-attempt timeout
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	items, err := retry.Do(ctx, retry.FeedFetchConfig(), func(ctx context.Context) ([]Item, error) {
//	    return fetch(ctx)
//	})
package resilience
