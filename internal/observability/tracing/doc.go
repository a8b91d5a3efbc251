// Package tracing provides OpenTelemetry span helpers for the relay.
//
// Spans are created through the global tracer provider. Without a configured
// provider they are no-ops; tests install an SDK provider with an in-memory
// exporter.
//
// Example usage:
//
//	ctx, span := tracing.StartSpan(ctx, "fetch.source",
//	    attribute.String("source", src.Name))
//	defer span.End()
//	if err != nil {
//	    tracing.RecordError(span, err)
//	}
package tracing
