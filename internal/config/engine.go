package config

import (
	"fmt"
	"log/slog"
	"time"

	"newsbot/internal/domain/entity"
	pkgconfig "newsbot/internal/pkg/config"
	"newsbot/internal/usecase/dedup"
	"newsbot/internal/usecase/fetch"
	"newsbot/internal/usecase/watermark"
	"newsbot/internal/usecase/window"
)

// Watermark storage backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config is the engine configuration.
type Config struct {
	TopicsFile string
	Timezone   string

	Fetch fetch.Config

	WindowPolicy   window.Policy
	WindowLookback time.Duration
	WindowLag      time.Duration
	// MaxItemsPerSource caps selected items per source (0 = no cap).
	MaxItemsPerSource int

	SimilarityThreshold float64
	DedupStrategy       dedup.Strategy

	WatermarkBackend string
	// WatermarkPath is the JSON file for the file backend and the database
	// file for sqlite.
	WatermarkPath   string
	DatabaseURL     string
	WatermarkKeying watermark.Keying
	DefaultLookback time.Duration

	DeliveryInterval time.Duration

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns the configuration used when no variable is set.
func DefaultConfig() Config {
	return Config{
		TopicsFile:          "topics.yaml",
		Timezone:            "Asia/Seoul",
		Fetch:               fetch.DefaultConfig(),
		WindowPolicy:        window.PolicyWatermark,
		WindowLookback:      2 * time.Hour,
		WindowLag:           0,
		MaxItemsPerSource:   0,
		SimilarityThreshold: dedup.DefaultThreshold,
		DedupStrategy:       dedup.StrategyScan,
		WatermarkBackend:    BackendFile,
		WatermarkPath:       "data/watermarks.json",
		WatermarkKeying:     watermark.KeyByTopic,
		DefaultLookback:     watermark.DefaultLookback,
		DeliveryInterval:    time.Second,
		LogLevel:            "info",
		LogFormat:           "json",
	}
}

// Location loads the reference time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", entity.ErrConfiguration, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks combinations that single-variable validation cannot see.
func (c *Config) Validate() error {
	if c.WindowPolicy == window.PolicyFixed && c.WindowLookback <= c.WindowLag {
		return fmt.Errorf("%w: WINDOW_LOOKBACK (%s) must exceed WINDOW_LAG (%s)",
			entity.ErrConfiguration, c.WindowLookback, c.WindowLag)
	}
	if c.WatermarkBackend == BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("%w: DATABASE_URL is required for the postgres watermark backend", entity.ErrConfiguration)
	}
	if c.WatermarkBackend != BackendPostgres && c.WatermarkPath == "" {
		return fmt.Errorf("%w: WATERMARK_PATH is required for the %s watermark backend", entity.ErrConfiguration, c.WatermarkBackend)
	}
	return nil
}

// Load reads the engine configuration from the environment. Malformed values
// fall back to their defaults with a warning; only inconsistent combinations
// are returned as errors.
func Load(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*Config, error) {
	cfg := DefaultConfig()
	l := &loader{logger: logger, metrics: metrics}
	metrics.ResetFallbackActive()

	cfg.TopicsFile = pkgconfig.LoadEnvString("TOPICS_FILE", cfg.TopicsFile)
	cfg.Timezone = l.str("TIMEZONE", cfg.Timezone, pkgconfig.ValidateTimezone)

	cfg.Fetch.Timeout = l.duration("FETCH_TIMEOUT", cfg.Fetch.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, 100*time.Millisecond, 5*time.Minute)
	})
	cfg.Fetch.MaxAttempts = l.integer("FETCH_MAX_ATTEMPTS", cfg.Fetch.MaxAttempts, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 1, 10)
	})
	cfg.Fetch.BackoffBase = l.duration("FETCH_BACKOFF_BASE", cfg.Fetch.BackoffBase, pkgconfig.ValidateNonNegativeDuration)
	cfg.Fetch.Concurrency = l.integer("FETCH_CONCURRENCY", cfg.Fetch.Concurrency, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 0, 256)
	})

	cfg.WindowPolicy = window.Policy(l.str("WINDOW_POLICY", string(cfg.WindowPolicy),
		pkgconfig.OneOf(string(window.PolicyWatermark), string(window.PolicyFixed))))
	cfg.WindowLookback = l.duration("WINDOW_LOOKBACK", cfg.WindowLookback, pkgconfig.ValidatePositiveDuration)
	cfg.WindowLag = l.duration("WINDOW_LAG", cfg.WindowLag, pkgconfig.ValidateNonNegativeDuration)
	cfg.MaxItemsPerSource = l.integer("MAX_ITEMS_PER_SOURCE", cfg.MaxItemsPerSource, func(n int) error {
		return pkgconfig.ValidateIntRange(n, 0, 1000)
	})

	cfg.SimilarityThreshold = l.float("SIMILARITY_THRESHOLD", cfg.SimilarityThreshold, pkgconfig.ValidateUnitInterval)
	cfg.DedupStrategy = dedup.Strategy(l.str("DEDUP_STRATEGY", string(cfg.DedupStrategy),
		pkgconfig.OneOf(string(dedup.StrategyScan), string(dedup.StrategyIndex))))

	cfg.WatermarkBackend = l.str("WATERMARK_BACKEND", cfg.WatermarkBackend,
		pkgconfig.OneOf(BackendFile, BackendSQLite, BackendPostgres))
	if cfg.WatermarkBackend == BackendSQLite {
		cfg.WatermarkPath = "data/watermarks.db"
	}
	cfg.WatermarkPath = pkgconfig.LoadEnvString("WATERMARK_PATH", cfg.WatermarkPath)
	cfg.DatabaseURL = pkgconfig.LoadEnvString("DATABASE_URL", "")
	cfg.WatermarkKeying = watermark.Keying(l.str("WATERMARK_KEYING", string(cfg.WatermarkKeying),
		pkgconfig.OneOf(string(watermark.KeyByTopic), string(watermark.KeyBySource))))
	cfg.DefaultLookback = l.duration("DEFAULT_LOOKBACK", cfg.DefaultLookback, pkgconfig.ValidatePositiveDuration)

	cfg.DeliveryInterval = l.duration("DELIVERY_INTERVAL", cfg.DeliveryInterval, pkgconfig.ValidateNonNegativeDuration)

	cfg.LogLevel = l.str("LOG_LEVEL", cfg.LogLevel, pkgconfig.OneOf("debug", "info", "warn", "warning", "error"))
	cfg.LogFormat = l.str("LOG_FORMAT", cfg.LogFormat, pkgconfig.OneOf("json", "text"))

	metrics.RecordLoadTimestamp()

	if err := cfg.Validate(); err != nil {
		metrics.RecordValidationError("combination")
		return nil, err
	}
	return &cfg, nil
}

// loader applies one fallback policy to every variable: log each warning and
// count it against the variable name.
type loader struct {
	logger  *slog.Logger
	metrics *pkgconfig.ConfigMetrics
}

func report[T any](l *loader, envKey string, res pkgconfig.LoadResult[T]) T {
	if res.FallbackApplied {
		l.metrics.RecordValidationError(envKey)
		l.metrics.RecordFallback(envKey)
		for _, w := range res.Warnings {
			l.logger.Warn("Configuration fallback applied",
				slog.String("env_key", envKey),
				slog.String("warning", w))
		}
	}
	return res.Value
}

func (l *loader) str(envKey, def string, validate func(string) error) string {
	return report(l, envKey, pkgconfig.LoadEnvWithFallback(envKey, def, validate))
}

func (l *loader) duration(envKey string, def time.Duration, validate func(time.Duration) error) time.Duration {
	return report(l, envKey, pkgconfig.LoadEnvDuration(envKey, def, validate))
}

func (l *loader) integer(envKey string, def int, validate func(int) error) int {
	return report(l, envKey, pkgconfig.LoadEnvInt(envKey, def, validate))
}

func (l *loader) float(envKey string, def float64, validate func(float64) error) float64 {
	return report(l, envKey, pkgconfig.LoadEnvFloat(envKey, def, validate))
}
