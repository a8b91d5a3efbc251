package metrics

import (
	"time"
)

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordFetchAttempt records one retrieval attempt against a source.
func RecordFetchAttempt(source string, success bool, duration time.Duration) {
	FeedFetchAttemptsTotal.WithLabelValues(source, resultLabel(success)).Inc()
	FeedFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordFetchFailure records a source that exhausted its retries.
// Kind is the failure classification (fetch_timeout, fetch_malformed, fetch_transport).
func RecordFetchFailure(source, kind string) {
	FeedFetchFailuresTotal.WithLabelValues(source, kind).Inc()
}

// RecordSelection records the outcome of applying the time window to one source.
func RecordSelection(topic, source string, selected, parseFailures int) {
	if selected > 0 {
		ItemsSelectedTotal.WithLabelValues(topic).Add(float64(selected))
	}
	if parseFailures > 0 {
		ItemsParseFailedTotal.WithLabelValues(source).Add(float64(parseFailures))
	}
}

// RecordDuplicatesDropped records the dedup outcome of a run.
func RecordDuplicatesDropped(exact, near int) {
	if exact > 0 {
		DuplicatesDroppedTotal.WithLabelValues("exact").Add(float64(exact))
	}
	if near > 0 {
		DuplicatesDroppedTotal.WithLabelValues("near").Add(float64(near))
	}
}

// RecordDelivery records one batch delivery.
func RecordDelivery(topic string, articles int, success bool, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(topic, resultLabel(success)).Inc()
	DeliveryDuration.WithLabelValues(topic).Observe(duration.Seconds())
	if success {
		ArticlesDeliveredTotal.WithLabelValues(topic).Add(float64(articles))
	}
}

// RecordWatermarkCommit records a watermark commit.
func RecordWatermarkCommit(success bool) {
	WatermarkCommitsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// UpdateWatermarkLag sets how far behind now the watermark of key is.
func UpdateWatermarkLag(key string, watermark, now time.Time) {
	WatermarkLag.WithLabelValues(key).Set(now.Sub(watermark).Seconds())
}

// RecordRun records a finished run.
func RecordRun(state string, duration time.Duration, finishedAt time.Time) {
	RunsTotal.WithLabelValues(state).Inc()
	RunDuration.Observe(duration.Seconds())
	LastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// RecordDBQuery records the duration of a watermark store operation.
// Operation should describe the query type (e.g., "get_watermark", "advance_watermark").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
