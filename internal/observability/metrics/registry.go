package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Feed retrieval metrics
var (
	// FeedFetchAttemptsTotal counts retrieval attempts per source and result
	FeedFetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_feed_fetch_attempts_total",
			Help: "Total number of feed retrieval attempts",
		},
		[]string{"source", "result"},
	)

	// FeedFetchFailuresTotal counts sources that exhausted their retries, by failure kind
	FeedFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_feed_fetch_failures_total",
			Help: "Total number of sources that failed after all retries",
		},
		[]string{"source", "kind"},
	)

	// FeedFetchDuration measures the duration of a single retrieval attempt
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsbot_feed_fetch_duration_seconds",
			Help:    "Duration of feed retrieval attempts in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)
)

// Selection and dedup metrics
var (
	// ItemsSelectedTotal counts items that passed the time window, per topic
	ItemsSelectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_items_selected_total",
			Help: "Total number of feed items selected by the time window",
		},
		[]string{"topic"},
	)

	// ItemsParseFailedTotal counts items dropped for an unparseable publish time
	ItemsParseFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_items_parse_failed_total",
			Help: "Total number of feed items with an unparseable publish time",
		},
		[]string{"source"},
	)

	// DuplicatesDroppedTotal counts dropped duplicates by kind (exact, near)
	DuplicatesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_duplicates_dropped_total",
			Help: "Total number of articles dropped as duplicates",
		},
		[]string{"kind"},
	)
)

// Delivery metrics
var (
	// DeliveriesTotal counts batch deliveries per topic and result
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_deliveries_total",
			Help: "Total number of batch deliveries",
		},
		[]string{"topic", "result"},
	)

	// ArticlesDeliveredTotal counts articles in successfully delivered batches
	ArticlesDeliveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_articles_delivered_total",
			Help: "Total number of articles delivered",
		},
		[]string{"topic"},
	)

	// DeliveryDuration measures batch delivery duration
	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsbot_delivery_duration_seconds",
			Help:    "Duration of batch deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)

// Watermark and run metrics
var (
	// WatermarkCommitsTotal counts watermark commits by result
	WatermarkCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_watermark_commits_total",
			Help: "Total number of watermark commits",
		},
		[]string{"result"},
	)

	// WatermarkLag is the age of each key's watermark at the start of the last run
	WatermarkLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsbot_watermark_lag_seconds",
			Help: "Age of the watermark at run start in seconds",
		},
		[]string{"key"},
	)

	// RunsTotal counts runs by final state
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsbot_runs_total",
			Help: "Total number of runs by final state",
		},
		[]string{"state"},
	)

	// RunDuration measures end-to-end run duration
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "newsbot_run_duration_seconds",
			Help:    "Duration of runs in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	// LastRunTimestamp is the unix time the last run finished
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsbot_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last finished run",
		},
	)
)

// Database metrics
var (
	// DBQueryDuration measures watermark store query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsbot_db_query_duration_seconds",
			Help:    "Watermark store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)
)
