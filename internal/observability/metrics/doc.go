// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes the relay's metrics:
//   - feed retrieval (attempts, failures, latency)
//   - selection (items kept, unparseable timestamps)
//   - deduplication (exact and near duplicates dropped)
//   - delivery (batches, articles, latency)
//   - watermarks (commits, lag) and run outcomes
//
// All metrics are registered with the Prometheus default registry
// and exposed via the /metrics endpoint of the serve command.
//
// Example usage:
//
//	start := time.Now()
//	doc, err := fetcher.Fetch(ctx, src.URL)
//	metrics.RecordFetchAttempt(src.Name, err == nil, time.Since(start))
package metrics
