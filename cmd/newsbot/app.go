package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"newsbot/internal/config"
	"newsbot/internal/domain/entity"
	"newsbot/internal/infra/adapter/persistence/postgres"
	"newsbot/internal/infra/adapter/persistence/sqlite"
	"newsbot/internal/infra/db"
	"newsbot/internal/infra/notifier"
	"newsbot/internal/infra/scraper"
	filestore "newsbot/internal/infra/watermark"
	"newsbot/internal/observability/logging"
	pkgconfig "newsbot/internal/pkg/config"
	"newsbot/internal/repository"
	"newsbot/internal/resilience/circuitbreaker"
	"newsbot/internal/usecase/dedup"
	"newsbot/internal/usecase/fetch"
	"newsbot/internal/usecase/run"
	"newsbot/internal/usecase/watermark"
	"newsbot/internal/usecase/window"
)

var engineMetrics = sync.OnceValue(func() *pkgconfig.ConfigMetrics {
	return pkgconfig.NewConfigMetrics("newsbot")
})

// app is the wired relay.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	topics      []entity.TopicConfig
	coordinator *run.Coordinator
	router      *notifier.Router
	watermarks  repository.WatermarkLister

	closers []func() error
}

type appOptions struct {
	DryRun bool
}

// loadEngine reads the engine configuration and installs the default logger.
func loadEngine() (*config.Config, *slog.Logger, error) {
	bootstrap := logging.New(os.Getenv("LOG_FORMAT"))
	cfg, err := config.Load(bootstrap, engineMetrics())
	if err != nil {
		return nil, bootstrap, err
	}
	logger := logging.New(cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, logger, err := loadEngine()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	a.topics, err = config.LoadTopics(cfg.TopicsFile)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	repo, err := a.openWatermarks(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	resolver, err := dedup.NewResolver(cfg.SimilarityThreshold, cfg.DedupStrategy)
	if err != nil {
		a.Close()
		return nil, err
	}

	var deliverer run.Deliverer
	if opts.DryRun {
		deliverer = notifier.NewNoOpNotifier()
	} else {
		a.router = notifier.NewRouter(
			notifier.NewSlackNotifier(notifier.DefaultSlackConfig()),
			notifier.NewDiscordNotifier(notifier.DefaultDiscordConfig()),
		)
		deliverer = a.router
	}

	a.coordinator, err = run.NewCoordinator(a.topics, run.Deps{
		Fetcher:   fetch.NewService(scraper.NewRSSFetcher(newHTTPClient()), cfg.Fetch),
		Selector:  window.NewSelector(loc, cfg.MaxItemsPerSource),
		Resolver:  resolver,
		Store:     watermark.NewStore(repo, cfg.DefaultLookback),
		Deliverer: deliverer,
	}, run.Config{
		Policy:           cfg.WindowPolicy,
		Lookback:         cfg.WindowLookback,
		Lag:              cfg.WindowLag,
		Keying:           cfg.WatermarkKeying,
		DeliveryInterval: cfg.DeliveryInterval,
		DryRun:           opts.DryRun,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	logger.Info("relay configured",
		slog.Int("topics", len(a.topics)),
		slog.String("policy", string(cfg.WindowPolicy)),
		slog.String("watermark_backend", cfg.WatermarkBackend),
		slog.String("keying", string(cfg.WatermarkKeying)),
		slog.Float64("similarity_threshold", cfg.SimilarityThreshold),
		slog.String("dedup_strategy", string(cfg.DedupStrategy)),
		slog.Bool("dry_run", opts.DryRun))
	return a, nil
}

// repoWithList is a watermark repository that can also enumerate its keys.
type repoWithList interface {
	repository.WatermarkRepository
	repository.WatermarkLister
}

func (a *app) openWatermarks(ctx context.Context) (repository.WatermarkRepository, error) {
	repo, closer, err := openWatermarkRepo(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.watermarks = repo
	return repo, nil
}

func openWatermarkRepo(ctx context.Context, cfg *config.Config) (repoWithList, func() error, error) {
	switch cfg.WatermarkBackend {
	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.WatermarkPath), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create watermark directory: %w", err)
		}
		conn, err := db.Open(ctx, db.DriverSQLite, cfg.WatermarkPath)
		if err != nil {
			return nil, nil, err
		}
		if err := db.MigrateUp(ctx, conn, db.DriverSQLite); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return sqlite.NewWatermarkRepo(conn), conn.Close, nil

	case config.BackendPostgres:
		conn, err := db.Open(ctx, db.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open watermark database: %s", logging.SanitizeError(err))
		}
		if err := db.MigrateUp(ctx, conn, db.DriverPostgres); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		return postgres.NewWatermarkRepo(circuitbreaker.NewDBCircuitBreaker(conn)), conn.Close, nil

	default:
		return filestore.NewFileStore(cfg.WatermarkPath), nil, nil
	}
}

// Close releases the watermark backend.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("failed to close resource", slog.Any("error", err))
		}
	}
	a.closers = nil
}

// newHTTPClient creates the feed client. TLS 1.2+ is enforced.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
