// Package run orchestrates one relay pass: fetch, select, merge, dedupe,
// assemble, deliver and commit watermarks.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/logging"
	"newsbot/internal/observability/metrics"
	"newsbot/internal/observability/tracing"
	"newsbot/internal/repository"
	"newsbot/internal/usecase/batch"
	"newsbot/internal/usecase/dedup"
	"newsbot/internal/usecase/fetch"
	"newsbot/internal/usecase/watermark"
	"newsbot/internal/usecase/window"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SourceFetcher fetches every source and returns one result per source in
// input order.
type SourceFetcher interface {
	FetchAll(ctx context.Context, sources []entity.Source) []fetch.Result
}

// Deliverer hands one topic's batch to the delivery collaborator.
type Deliverer interface {
	Deliver(ctx context.Context, topic entity.TopicConfig, articles []entity.Article) error
}

// Config controls selection, keying and delivery pacing.
type Config struct {
	Policy window.Policy
	// Lookback and Lag define the fixed window [now-Lookback, now-Lag].
	Lookback time.Duration
	Lag      time.Duration
	Keying   watermark.Keying
	// DeliveryInterval is the minimum gap between calls to one destination.
	DeliveryInterval time.Duration
	// DryRun skips watermark commits.
	DryRun bool
}

// DefaultConfig returns watermark selection keyed by topic with one second
// between deliveries to the same destination.
func DefaultConfig() Config {
	return Config{
		Policy:           window.PolicyWatermark,
		Lookback:         watermark.DefaultLookback,
		Keying:           watermark.KeyByTopic,
		DeliveryInterval: time.Second,
	}
}

// Deps are the collaborators of a Coordinator. Store may be nil when the
// policy is fixed.
type Deps struct {
	Fetcher   SourceFetcher
	Selector  *window.Selector
	Resolver  *dedup.Resolver
	Store     repository.WatermarkStore
	Deliverer Deliverer
}

// Coordinator runs relay passes over a fixed topic configuration.
type Coordinator struct {
	topics map[entity.TopicID]entity.TopicConfig
	order  []entity.TopicID
	deps   Deps
	cfg    Config

	now      func() time.Time
	newRunID func() string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewCoordinator validates the topic configuration and wires the collaborators.
// Invalid configuration is reported as entity.ErrConfiguration.
func NewCoordinator(topics []entity.TopicConfig, deps Deps, cfg Config) (*Coordinator, error) {
	if deps.Fetcher == nil || deps.Selector == nil || deps.Resolver == nil || deps.Deliverer == nil {
		return nil, fmt.Errorf("%w: coordinator dependencies are incomplete", entity.ErrConfiguration)
	}
	if cfg.Policy == "" {
		cfg.Policy = window.PolicyWatermark
	}
	if cfg.Keying == "" {
		cfg.Keying = watermark.KeyByTopic
	}
	if cfg.Policy == window.PolicyWatermark && deps.Store == nil {
		return nil, fmt.Errorf("%w: watermark policy requires a watermark store", entity.ErrConfiguration)
	}
	if cfg.Policy == window.PolicyFixed && cfg.Lookback <= cfg.Lag {
		return nil, fmt.Errorf("%w: fixed window lookback %s must exceed lag %s", entity.ErrConfiguration, cfg.Lookback, cfg.Lag)
	}

	c := &Coordinator{
		topics:   make(map[entity.TopicID]entity.TopicConfig, len(topics)),
		deps:     deps,
		cfg:      cfg,
		now:      time.Now,
		newRunID: uuid.NewString,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, tc := range topics {
		if err := tc.Validate(); err != nil {
			return nil, fmt.Errorf("topic %q: %w", tc.ID, err)
		}
		if _, dup := c.topics[tc.ID]; dup {
			return nil, fmt.Errorf("%w: topic %q configured twice", entity.ErrConfiguration, tc.ID)
		}
		c.topics[tc.ID] = tc
		c.order = append(c.order, tc.ID)
	}
	return c, nil
}

// Topics returns the configured topic ids in configuration order.
func (c *Coordinator) Topics() []entity.TopicID {
	out := make([]entity.TopicID, len(c.order))
	copy(out, c.order)
	return out
}

// planned is a source together with the watermark key it reports to.
type planned struct {
	src entity.Source
	key string
}

// Run performs one pass over the requested topics (all configured topics when
// none are given).
//
// An error is returned only when the run is Aborted: a requested topic is not
// configured, or a watermark could not be loaded. Per-source, per-topic and
// commit failures are recorded in the report and never stop the other topics.
func (c *Coordinator) Run(ctx context.Context, requested []entity.TopicID) (*Report, error) {
	startedAt := c.now()
	report := &Report{
		RunID:     c.newRunID(),
		StartedAt: startedAt,
		Committed: make(map[string]time.Time),
	}

	logger := logging.WithRunID(logging.FromContext(ctx), report.RunID)
	ctx = logging.WithLogger(ctx, logger)
	ctx, span := tracing.StartSpan(ctx, "run",
		attribute.String("run_id", report.RunID),
		attribute.String("policy", string(c.cfg.Policy)))
	defer span.End()

	topics, err := c.resolveTopics(requested)
	if err != nil {
		return c.abort(ctx, report, "topics", entity.FailureConfiguration, err)
	}
	logger.Info("run started",
		slog.Int("topics", len(topics)),
		slog.String("policy", string(c.cfg.Policy)))

	plan := c.plan(topics)
	bounds, err := c.boundaries(ctx, plan, startedAt)
	if err != nil {
		return c.abort(ctx, report, "watermarks", entity.FailureWatermarkLoad, err)
	}

	sources := make([]entity.Source, len(plan))
	for i, p := range plan {
		sources[i] = p.src
	}
	results := c.deps.Fetcher.FetchAll(ctx, sources)

	// Everything below runs after the fetch join point.
	keyFailed := make(map[string]bool)
	keyNewest := make(map[string]time.Time)
	topicFailed := make(map[entity.TopicID]bool)
	var candidates []entity.Article

	for i, res := range results {
		p := plan[i]
		if !res.OK() {
			report.SourcesFailed++
			report.fail(p.src.Name, res.Err.Kind, logging.SanitizeString(res.Err.Message))
			keyFailed[p.key] = true
			topicFailed[p.src.Topic] = true
			continue
		}
		report.SourcesFetched++

		sel := c.deps.Selector.Select(p.src, res.Document.Items, bounds[p.key])
		metrics.RecordSelection(string(p.src.Topic), p.src.Name, len(sel.Articles), sel.ParseFailures)
		if sel.ParseFailures > 0 {
			logger.Warn("items dropped for unparseable publish time",
				slog.String("source", p.src.Name),
				slog.Int("count", sel.ParseFailures))
		}
		report.ParseFailures += sel.ParseFailures
		report.ArticlesSelected += len(sel.Articles)
		candidates = append(candidates, sel.Articles...)
		if sel.Newest.After(keyNewest[p.key]) {
			keyNewest[p.key] = sel.Newest
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})
	deduped := c.deps.Resolver.Dedupe(candidates)
	report.ExactDuplicates = deduped.ExactDropped
	report.NearDuplicates = deduped.NearDropped

	batches := batch.Assemble(deduped.Unique)
	deliveryErrs := c.deliverAll(ctx, batches)

	for _, id := range batches.Topics() {
		if err := deliveryErrs[id]; err != nil {
			report.fail(string(id), entity.FailureDelivery, logging.SanitizeError(err))
			topicFailed[id] = true
			continue
		}
		report.ArticlesDelivered += len(batches.Articles(id))
	}

	c.commit(ctx, report, plan, keyFailed, keyNewest, deliveryErrs, topicFailed, startedAt)

	for _, tc := range topics {
		if topicFailed[tc.ID] {
			report.TopicsFailed++
		} else {
			report.TopicsSucceeded++
		}
	}

	report.finish(c.now())
	span.SetAttributes(
		attribute.String("state", string(report.State)),
		attribute.Int("articles_delivered", report.ArticlesDelivered))
	metrics.RecordRun(string(report.State), report.Duration(), report.FinishedAt)
	logger.Info("run finished", slog.Any("report", report))
	return report, nil
}

// resolveTopics validates the requested topics before any I/O.
func (c *Coordinator) resolveTopics(requested []entity.TopicID) ([]entity.TopicConfig, error) {
	if len(requested) == 0 {
		requested = c.order
	}
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no topics configured", entity.ErrConfiguration)
	}

	seen := make(map[entity.TopicID]bool, len(requested))
	out := make([]entity.TopicConfig, 0, len(requested))
	for _, id := range requested {
		if !id.IsValid() {
			return nil, fmt.Errorf("%w: %q", entity.ErrUnknownTopic, id)
		}
		tc, ok := c.topics[id]
		if !ok {
			return nil, fmt.Errorf("%w: topic %q is not configured", entity.ErrConfiguration, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, tc)
	}
	return out, nil
}

func (c *Coordinator) plan(topics []entity.TopicConfig) []planned {
	var out []planned
	for _, tc := range topics {
		for _, src := range tc.Sources {
			src.Topic = tc.ID
			out = append(out, planned{src: src, key: c.cfg.Keying.Key(tc.ID, src.Name)})
		}
	}
	return out
}

// boundaries returns the selection boundary of every key in plan.
func (c *Coordinator) boundaries(ctx context.Context, plan []planned, now time.Time) (map[string]window.Boundary, error) {
	out := make(map[string]window.Boundary, len(plan))
	if c.cfg.Policy == window.PolicyFixed {
		b := window.FixedWindow(now, c.cfg.Lookback, c.cfg.Lag)
		for _, p := range plan {
			out[p.key] = b
		}
		return out, nil
	}

	for _, p := range plan {
		if _, ok := out[p.key]; ok {
			continue
		}
		wm, err := c.deps.Store.Load(ctx, p.key)
		if err != nil {
			return nil, err
		}
		out[p.key] = window.WatermarkBoundary(wm)
	}
	return out, nil
}

type delivery struct {
	topic    entity.TopicConfig
	articles []entity.Article
}

// deliverAll delivers every non-empty batch. Destinations are served
// concurrently; calls to one destination are sequential and paced.
func (c *Coordinator) deliverAll(ctx context.Context, batches batch.Batches) map[entity.TopicID]error {
	var dests []string
	byDest := make(map[string][]delivery)
	for _, id := range batches.Topics() {
		tc := c.topics[id]
		if _, ok := byDest[tc.Destination]; !ok {
			dests = append(dests, tc.Destination)
		}
		byDest[tc.Destination] = append(byDest[tc.Destination], delivery{topic: tc, articles: batches.Articles(id)})
	}

	// Each goroutine owns one row.
	errs := make([][]error, len(dests))
	var g errgroup.Group
	for i, dest := range dests {
		i, dest := i, dest
		jobs := byDest[dest]
		errs[i] = make([]error, len(jobs))
		g.Go(func() error {
			lim := c.limiter(dest)
			for j, d := range jobs {
				errs[i][j] = c.deliver(ctx, lim, d)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[entity.TopicID]error, batches.Len())
	for i, dest := range dests {
		for j, d := range byDest[dest] {
			out[d.topic.ID] = errs[i][j]
		}
	}
	return out
}

func (c *Coordinator) deliver(ctx context.Context, lim *rate.Limiter, d delivery) error {
	logger := logging.FromContext(ctx).With(slog.String("topic", string(d.topic.ID)))
	ctx, span := tracing.StartSpan(ctx, "deliver",
		attribute.String("topic", string(d.topic.ID)),
		attribute.Int("articles", len(d.articles)))
	defer span.End()

	if err := lim.Wait(ctx); err != nil {
		err = fmt.Errorf("%w: waiting for destination: %w", entity.ErrDelivery, err)
		tracing.RecordError(span, err)
		return err
	}

	start := time.Now()
	err := c.deps.Deliverer.Deliver(ctx, d.topic, d.articles)
	metrics.RecordDelivery(string(d.topic.ID), len(d.articles), err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, entity.ErrDelivery) {
			err = fmt.Errorf("%w: %w", entity.ErrDelivery, err)
		}
		tracing.RecordError(span, err)
		logger.Warn("delivery failed", slog.String("error", logging.SanitizeError(err)))
		return err
	}
	logger.Info("batch delivered", slog.Int("articles", len(d.articles)))
	return nil
}

func (c *Coordinator) limiter(dest string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[dest]
	if !ok {
		limit := rate.Inf
		if c.cfg.DeliveryInterval > 0 {
			limit = rate.Every(c.cfg.DeliveryInterval)
		}
		lim = rate.NewLimiter(limit, 1)
		c.limiters[dest] = lim
	}
	return lim
}

// commit advances the keys whose topic delivered (or had nothing to deliver)
// and whose sources all fetched. The committed instant is the newest selected
// publish time, never later than the run start.
func (c *Coordinator) commit(
	ctx context.Context,
	report *Report,
	plan []planned,
	keyFailed map[string]bool,
	keyNewest map[string]time.Time,
	deliveryErrs map[entity.TopicID]error,
	topicFailed map[entity.TopicID]bool,
	startedAt time.Time,
) {
	if c.cfg.Policy != window.PolicyWatermark {
		return
	}
	logger := logging.FromContext(ctx)

	done := make(map[string]bool, len(plan))
	for _, p := range plan {
		if done[p.key] {
			continue
		}
		done[p.key] = true

		if keyFailed[p.key] || deliveryErrs[p.src.Topic] != nil {
			logger.Info("watermark held", slog.String("key", p.key))
			continue
		}
		at, ok := keyNewest[p.key]
		if !ok {
			continue
		}
		if at.After(startedAt) {
			at = startedAt
		}
		if c.cfg.DryRun {
			logger.Info("dry run: watermark not committed",
				slog.String("key", p.key),
				slog.Time("watermark", at))
			continue
		}
		if err := c.deps.Store.Commit(ctx, p.key, at); err != nil {
			report.fail(p.key, entity.FailureCommit, logging.SanitizeError(err))
			topicFailed[p.src.Topic] = true
			logger.Error("watermark commit failed",
				slog.String("key", p.key),
				slog.String("error", logging.SanitizeError(err)))
			continue
		}
		report.Committed[p.key] = at
	}
}

func (c *Coordinator) abort(ctx context.Context, report *Report, subject string, kind entity.FailureKind, err error) (*Report, error) {
	report.State = StateAborted
	report.fail(subject, kind, logging.SanitizeError(err))
	report.finish(c.now())
	metrics.RecordRun(string(report.State), report.Duration(), report.FinishedAt)
	logging.FromContext(ctx).Error("run aborted",
		slog.String("kind", string(kind)),
		slog.String("error", logging.SanitizeError(err)))
	return report, fmt.Errorf("run aborted: %w", err)
}
