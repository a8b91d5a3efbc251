// Package watermark tracks how far each key has been delivered.
package watermark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/metrics"
	"newsbot/internal/repository"
)

// DefaultLookback is used for keys that were never committed.
const DefaultLookback = 90 * time.Minute

// Keying selects what a watermark is keyed by.
type Keying string

const (
	KeyByTopic  Keying = "topic"
	KeyBySource Keying = "source"
)

// ParseKeying validates a keying name.
func ParseKeying(s string) (Keying, error) {
	switch Keying(s) {
	case KeyByTopic, KeyBySource:
		return Keying(s), nil
	default:
		return "", fmt.Errorf("%w: unknown watermark keying %q", entity.ErrConfiguration, s)
	}
}

// Key returns the watermark key for an article or source of topic.
func (k Keying) Key(topic entity.TopicID, source string) string {
	if k == KeyBySource {
		return string(topic) + "/" + source
	}
	return string(topic)
}

// Store applies the default look-back on top of a repository.
type Store struct {
	repo     repository.WatermarkRepository
	lookback time.Duration
	now      func() time.Time
}

var _ repository.WatermarkStore = (*Store)(nil)

// NewStore wraps repo. A non-positive lookback selects DefaultLookback.
func NewStore(repo repository.WatermarkRepository, lookback time.Duration) *Store {
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Store{repo: repo, lookback: lookback, now: time.Now}
}

// Load returns the stored watermark for key, or now minus the look-back when
// nothing was ever committed.
func (s *Store) Load(ctx context.Context, key string) (time.Time, error) {
	t, err := s.repo.Get(ctx, key)
	if errors.Is(err, entity.ErrNotFound) {
		return s.now().Add(-s.lookback), nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("load watermark %q: %w", key, err)
	}
	metrics.UpdateWatermarkLag(key, t, s.now())
	return t, nil
}

// Commit advances key to t. An instant older than the stored one is ignored.
func (s *Store) Commit(ctx context.Context, key string, t time.Time) error {
	if err := s.repo.Advance(ctx, key, t); err != nil {
		metrics.RecordWatermarkCommit(false)
		return fmt.Errorf("commit watermark %q: %w", key, err)
	}
	metrics.RecordWatermarkCommit(true)
	return nil
}
