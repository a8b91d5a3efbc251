package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"newsbot/internal/observability/logging"

	"github.com/robfig/cron/v3"
)

// Job runs one relay pass and summarizes it. A returned error means the pass
// could not produce a report at all.
type Job func(ctx context.Context) (RunSummary, error)

// Scheduler triggers Job on a cron schedule. A tick that arrives while the
// previous pass is still running is skipped.
type Scheduler struct {
	cfg     ServeConfig
	cron    *cron.Cron
	job     Job
	metrics *WorkerMetrics
	health  *HealthServer
	logger  *slog.Logger

	running atomic.Bool
}

// NewScheduler parses the schedule in loc and wires the job.
func NewScheduler(cfg ServeConfig, loc *time.Location, job Job, metrics *WorkerMetrics, health *HealthServer, logger *slog.Logger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cfg:     cfg,
		cron:    cron.New(cron.WithLocation(loc)),
		job:     job,
		metrics: metrics,
		health:  health,
		logger:  logger,
	}, nil
}

// Run starts the schedule and blocks until ctx is canceled. On return every
// in-flight pass has finished.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, func() { s.Trigger(ctx) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	s.cron.Start()
	s.health.SetReady(true)
	s.logger.Info("scheduler started", slog.String("schedule", s.cfg.CronSchedule))

	if s.cfg.RunOnStart {
		go s.Trigger(ctx)
	}

	<-ctx.Done()
	s.health.SetReady(false)
	<-s.cron.Stop().Done()
	for s.running.Load() {
		time.Sleep(10 * time.Millisecond)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// Trigger runs one pass now unless one is already running. It reports
// whether the pass ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.RecordSkipped()
		s.logger.Warn("previous relay pass still running, tick skipped")
		return false
	}
	defer s.running.Store(false)

	if ctx.Err() != nil {
		return false
	}
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	start := time.Now()
	summary, err := s.job(runCtx)
	s.metrics.RecordJobDuration(time.Since(start).Seconds())

	if err != nil {
		s.metrics.RecordJobRun("error")
		s.logger.Error("relay pass failed", slog.String("error", logging.SanitizeError(err)))
		return true
	}

	s.metrics.RecordJobRun(summary.State)
	if summary.ExitCode == 0 {
		s.metrics.RecordLastSuccess()
	}
	s.health.RecordRun(summary)
	return true
}
