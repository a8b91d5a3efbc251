// Package worker runs the relay on a schedule for the serve command: cron
// scheduling, health endpoints and job metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"newsbot/internal/pkg/config"
)

// ServeConfig controls the long-running serve mode.
//
// Environment variables:
//   - CRON_SCHEDULE: cron expression or descriptor (default "*/30 * * * *")
//   - RUN_TIMEOUT: bound on one relay pass (default 10m, range 1m-2h)
//   - HEALTH_PORT: health server port (default 9091)
//   - METRICS_PORT: Prometheus server port (default 9090)
//
// The schedule is interpreted in the engine's TIMEZONE.
type ServeConfig struct {
	CronSchedule string
	RunTimeout   time.Duration
	HealthPort   int
	MetricsPort  int
	// RunOnStart triggers one pass immediately instead of waiting for the
	// first tick.
	RunOnStart bool
}

// DefaultConfig returns a half-hourly schedule.
func DefaultConfig() ServeConfig {
	return ServeConfig{
		CronSchedule: "*/30 * * * *",
		RunTimeout:   10 * time.Minute,
		HealthPort:   9091,
		MetricsPort:  9090,
	}
}

// Validate collects every invalid field into one error.
func (c *ServeConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateDuration(c.RunTimeout, time.Minute, 2*time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health and metrics ports must differ (both %d)", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads the serve configuration, falling back to the
// default for every invalid field. It never fails.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) *ServeConfig {
	cfg := DefaultConfig()
	fallback := false

	record := func(field string, applied bool, warnings []string) {
		if !applied {
			return
		}
		fallback = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field)
		for _, w := range warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", w))
		}
	}

	schedule := config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule)
	cfg.CronSchedule = schedule.Value
	record("cron_schedule", schedule.FallbackApplied, schedule.Warnings)

	timeout := config.LoadEnvDuration("RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Minute, 2*time.Hour)
	})
	cfg.RunTimeout = timeout.Value
	record("run_timeout", timeout.FallbackApplied, timeout.Warnings)

	port := func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }
	health := config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, port)
	cfg.HealthPort = health.Value
	record("health_port", health.FallbackApplied, health.Warnings)

	metricsPort := config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, port)
	cfg.MetricsPort = metricsPort.Value
	record("metrics_port", metricsPort.FallbackApplied, metricsPort.Warnings)

	if cfg.HealthPort == cfg.MetricsPort {
		def := DefaultConfig()
		record("ports", true, []string{fmt.Sprintf("HEALTH_PORT and METRICS_PORT are both %d, falling back to %d and %d",
			cfg.HealthPort, def.HealthPort, def.MetricsPort)})
		cfg.HealthPort, cfg.MetricsPort = def.HealthPort, def.MetricsPort
	}

	onStart := config.LoadEnvBool("RUN_ON_START", false)
	cfg.RunOnStart = onStart.Value
	record("run_on_start", onStart.FallbackApplied, onStart.Warnings)

	if !fallback {
		metrics.ResetFallbackActive()
	}
	metrics.RecordLoadTimestamp()
	return &cfg
}
