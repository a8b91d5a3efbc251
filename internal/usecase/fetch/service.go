package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/logging"
	"newsbot/internal/observability/metrics"
	"newsbot/internal/observability/tracing"
	"newsbot/internal/resilience/retry"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// DocumentFetcher retrieves and parses the document at a source URL.
// One call is one attempt.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (*entity.Document, error)
}

// Config controls retrieval behavior.
type Config struct {
	// Timeout bounds each attempt
	Timeout time.Duration
	// MaxAttempts is the total number of attempts per source
	MaxAttempts int
	// BackoffBase is the delay before the second attempt; it doubles after that
	BackoffBase time.Duration
	// Concurrency caps simultaneous sources (0 = one goroutine per source)
	Concurrency int
}

// DefaultConfig returns ten-second attempts, three attempts, one-second base backoff.
func DefaultConfig() Config {
	return Config{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		BackoffBase: 1 * time.Second,
	}
}

func (c Config) retryConfig() retry.Config {
	rc := retry.FeedFetchConfig()
	rc.MaxAttempts = c.MaxAttempts
	rc.InitialDelay = c.BackoffBase
	rc.AttemptTimeout = c.Timeout
	// Timeouts, malformed documents and transport errors are all worth another try;
	// parent cancellation is handled by retry.Do before this is consulted.
	rc.ShouldRetry = func(error) bool { return true }
	return rc
}

// Result is the outcome for one source.
type Result struct {
	Source   entity.Source
	Document *entity.Document
	Attempts int
	// Err is nil on success
	Err *FetchError
}

// OK reports whether the source produced a usable document.
func (r Result) OK() bool {
	return r.Err == nil
}

// Service provides feed retrieval use cases.
type Service struct {
	fetcher DocumentFetcher
	cfg     Config
}

// NewService creates a fetch Service.
func NewService(fetcher DocumentFetcher, cfg Config) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Service{fetcher: fetcher, cfg: cfg}
}

// FetchSource retrieves src with bounded retries. It never returns a bare
// error: exhaustion and cancellation are reported through Result.Err.
func (s *Service) FetchSource(ctx context.Context, src entity.Source) Result {
	logger := logging.FromContext(ctx).With(slog.String("source", src.Name))
	ctx, span := tracing.StartSpan(ctx, "fetch.source",
		attribute.String("source", src.Name),
		attribute.String("topic", string(src.Topic)))
	defer span.End()

	var attempts atomic.Int32
	doc, err := retry.Do(ctx, s.cfg.retryConfig(), func(ctx context.Context) (*entity.Document, error) {
		n := attempts.Add(1)
		start := time.Now()
		doc, err := s.attempt(ctx, src.URL)
		metrics.RecordFetchAttempt(src.Name, err == nil, time.Since(start))
		if err != nil {
			logger.Debug("fetch attempt failed",
				slog.Int("attempt", int(n)),
				slog.String("error", logging.SanitizeError(err)))
		}
		return doc, err
	})

	result := Result{Source: src, Document: doc, Attempts: int(attempts.Load())}
	if err == nil {
		logger.Info("source fetched",
			slog.Int("items", len(doc.Items)),
			slog.Int("attempts", result.Attempts))
		return result
	}

	fe := newFetchError(src.Name, result.Attempts, err)
	result.Document = nil
	result.Err = fe
	tracing.RecordError(span, fe)
	metrics.RecordFetchFailure(src.Name, string(fe.Kind))
	logger.Warn("source failed",
		slog.String("kind", string(fe.Kind)),
		slog.Int("attempts", fe.Attempts),
		slog.String("error", logging.SanitizeString(fe.Message)))
	return result
}

// FetchAll fetches every source concurrently. Results come back in input order
// once all sources have settled; one source's failure never affects another.
func (s *Service) FetchAll(ctx context.Context, sources []entity.Source) []Result {
	results := make([]Result, len(sources))

	var g errgroup.Group
	if s.cfg.Concurrency > 0 {
		g.SetLimit(s.cfg.Concurrency)
	}
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			// Each goroutine owns exactly one slot.
			results[i] = s.FetchSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// attempt performs one retrieval and validates the document shape.
func (s *Service) attempt(ctx context.Context, url string) (*entity.Document, error) {
	doc, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", entity.ErrFetchMalformed)
	}
	if doc.Items == nil {
		return nil, fmt.Errorf("%w: no item collection", entity.ErrFetchMalformed)
	}
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("%w: document has no items", entity.ErrFetchMalformed)
	}
	return doc, nil
}

func newFetchError(source string, attempts int, err error) *FetchError {
	cause := err
	kind := entity.FailureFetchTransport

	var netErr net.Error
	switch {
	case errors.Is(err, retry.ErrAttemptTimeout):
		kind = entity.FailureFetchTimeout
		cause = fmt.Errorf("%w: %w", entity.ErrFetchTimeout, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the run itself was cancelled; not the source's fault
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = entity.FailureFetchTimeout
		cause = fmt.Errorf("%w: %w", entity.ErrFetchTimeout, err)
	case errors.Is(err, entity.ErrFetchMalformed):
		kind = entity.FailureFetchMalformed
	}

	if attempts == 0 {
		attempts = 1
	}
	return &FetchError{
		Source:   source,
		Kind:     kind,
		Attempts: attempts,
		Message:  err.Error(),
		err:      cause,
	}
}
