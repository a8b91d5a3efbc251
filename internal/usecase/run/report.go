package run

import (
	"log/slog"
	"time"

	"newsbot/internal/domain/entity"
)

// State is the terminal state of a run.
type State string

const (
	// StateCompleted: every requested topic and source succeeded.
	StateCompleted State = "completed"
	// StateCompletedWithFailures: some source, delivery or commit failed.
	StateCompletedWithFailures State = "completed_with_failures"
	// StateAborted: the run stopped before any per-source work.
	StateAborted State = "aborted"
)

// Failure is one recorded problem. Subject is a source name, a topic id or a
// watermark key depending on Kind.
type Failure struct {
	Subject string             `json:"subject"`
	Kind    entity.FailureKind `json:"kind"`
	Message string             `json:"message"`
}

// Report is the structured end-of-run summary.
type Report struct {
	RunID      string    `json:"run_id"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	TopicsSucceeded int `json:"topics_succeeded"`
	TopicsFailed    int `json:"topics_failed"`
	SourcesFetched  int `json:"sources_fetched"`
	SourcesFailed   int `json:"sources_failed"`

	ArticlesSelected  int `json:"articles_selected"`
	ArticlesDelivered int `json:"articles_delivered"`
	ParseFailures     int `json:"parse_failures"`
	ExactDuplicates   int `json:"exact_duplicates"`
	NearDuplicates    int `json:"near_duplicates"`

	// Committed maps each advanced watermark key to its new instant.
	Committed map[string]time.Time `json:"committed,omitempty"`
	Failures  []Failure            `json:"failures,omitempty"`
}

// ExitCode maps the run state to a process exit status: 0 only when the run
// completed without failures.
func (r *Report) ExitCode() int {
	switch r.State {
	case StateCompleted:
		return 0
	case StateAborted:
		return 2
	default:
		return 1
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) fail(subject string, kind entity.FailureKind, msg string) {
	r.Failures = append(r.Failures, Failure{Subject: subject, Kind: kind, Message: msg})
}

func (r *Report) finish(now time.Time) {
	r.FinishedAt = now
	if r.State == StateAborted {
		return
	}
	if len(r.Failures) > 0 {
		r.State = StateCompletedWithFailures
	} else {
		r.State = StateCompleted
	}
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", r.RunID),
		slog.String("state", string(r.State)),
		slog.Int("topics_succeeded", r.TopicsSucceeded),
		slog.Int("topics_failed", r.TopicsFailed),
		slog.Int("articles_delivered", r.ArticlesDelivered),
		slog.Int("parse_failures", r.ParseFailures),
		slog.Int("duplicates_exact", r.ExactDuplicates),
		slog.Int("duplicates_near", r.NearDuplicates),
		slog.Int("failures", len(r.Failures)),
		slog.Duration("duration", r.Duration()),
	)
}
