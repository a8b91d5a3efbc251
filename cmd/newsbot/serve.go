package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"newsbot/internal/infra/worker"
	"newsbot/internal/observability/logging"
	"newsbot/internal/observability/tracing"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run relay passes on a cron schedule",
	Long: `Run relay passes over every configured topic on CRON_SCHEDULE (interpreted
in TIMEZONE), with health endpoints on HEALTH_PORT and Prometheus metrics on
METRICS_PORT.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, appOptions{})
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	defer a.Close()

	shutdown := tracing.Setup(a.logger)
	defer func() { _ = shutdown(context.Background()) }()

	workerMetrics := worker.NewWorkerMetrics()
	serveCfg := worker.LoadConfigFromEnv(a.logger, workerMetrics)
	loc, err := a.cfg.Location()
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	a.logger.Info("serve configuration loaded",
		slog.String("cron_schedule", serveCfg.CronSchedule),
		slog.String("timezone", loc.String()),
		slog.Duration("run_timeout", serveCfg.RunTimeout),
		slog.Int("health_port", serveCfg.HealthPort),
		slog.Int("metrics_port", serveCfg.MetricsPort))

	startMetricsServer(ctx, a.logger, serveCfg.MetricsPort, a.router)

	health := worker.NewHealthServer(fmt.Sprintf(":%d", serveCfg.HealthPort), a.logger)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	sched, err := worker.NewScheduler(*serveCfg, loc, a.job, workerMetrics, health, a.logger)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	return sched.Run(ctx)
}

// job runs one pass over every configured topic.
func (a *app) job(ctx context.Context) (worker.RunSummary, error) {
	report, err := a.coordinator.Run(logging.WithLogger(ctx, a.logger), nil)
	if report == nil {
		return worker.RunSummary{}, err
	}
	return summarize(report), nil
}
