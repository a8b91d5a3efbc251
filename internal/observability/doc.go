// Package observability groups the relay's observability infrastructure:
// structured logging, Prometheus metrics and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: slog construction, run-scoped loggers, secret masking
//   - metrics: Prometheus collectors and recorders for fetch, selection, dedup, delivery and runs
//   - tracing: OpenTelemetry span helpers
package observability
