// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the relay.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation
//   - Context-aware logging
//   - Masking of webhook tokens and DSN passwords
//
// Example usage:
//
//	logger := logging.New(os.Getenv("LOG_FORMAT"))
//	ctx = logging.WithLogger(ctx, logging.WithRunID(logger, runID))
//	logging.FromContext(ctx).Info("run started")
package logging
