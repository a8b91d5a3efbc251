package worker

import (
	"newsbot/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics embeds the configuration metrics of the "worker" component
// and adds scheduled job metrics:
//   - worker_cron_job_runs_total{state}
//   - worker_cron_job_duration_seconds
//   - worker_cron_job_skipped_total
//   - worker_cron_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	CronJobRunsTotal            *prometheus.CounterVec
	CronJobDurationSeconds      prometheus.Histogram
	CronJobSkippedTotal         prometheus.Counter
	CronJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with the default registry.
// Call it once per process.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CronJobRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of scheduled relay passes by final state",
		}, []string{"state"}),

		CronJobDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of scheduled relay passes in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		CronJobSkippedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_cron_job_skipped_total",
			Help: "Ticks skipped because the previous pass was still running",
		}),

		CronJobLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last pass that completed without failures",
		}),
	}
}

func (m *WorkerMetrics) RecordJobRun(state string) {
	m.CronJobRunsTotal.WithLabelValues(state).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.CronJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordSkipped() {
	m.CronJobSkippedTotal.Inc()
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.CronJobLastSuccessTimestamp.SetToCurrentTime()
}
