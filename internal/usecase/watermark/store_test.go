package watermark

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbot/internal/domain/entity"
	filestore "newsbot/internal/infra/watermark"
)

type failingRepo struct{ err error }

func (r failingRepo) Get(context.Context, string) (time.Time, error) { return time.Time{}, r.err }
func (r failingRepo) Advance(context.Context, string, time.Time) error {
	return r.err
}

func newTestStore(t *testing.T, lookback time.Duration, now time.Time) *Store {
	t.Helper()
	s := NewStore(filestore.NewFileStore(filepath.Join(t.TempDir(), "wm.json")), lookback)
	s.now = func() time.Time { return now }
	return s
}

func TestStore_LoadDefaultsToLookback(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, 0, now)

	got, err := s.Load(context.Background(), "economy")
	require.NoError(t, err)
	assert.True(t, now.Add(-90*time.Minute).Equal(got), "got %v", got)
}

func TestStore_CustomLookback(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, 6*time.Hour, now)

	got, err := s.Load(context.Background(), "economy")
	require.NoError(t, err)
	assert.True(t, now.Add(-6*time.Hour).Equal(got))
}

func TestStore_CommitNeverRegresses(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, 0, now)

	later := now.Add(-10 * time.Minute)
	earlier := now.Add(-50 * time.Minute)

	require.NoError(t, s.Commit(ctx, "tech", later))
	require.NoError(t, s.Commit(ctx, "tech", earlier))

	got, err := s.Load(ctx, "tech")
	require.NoError(t, err)
	assert.True(t, later.Equal(got))
}

func TestStore_PropagatesRepositoryErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	s := NewStore(failingRepo{err: boom}, time.Hour)

	_, err := s.Load(context.Background(), "k")
	assert.ErrorIs(t, err, boom)

	assert.ErrorIs(t, s.Commit(context.Background(), "k", time.Now()), boom)
}

func TestKeying(t *testing.T) {
	assert.Equal(t, "economy", KeyByTopic.Key(entity.TopicEconomy, "mk"))
	assert.Equal(t, "economy/mk", KeyBySource.Key(entity.TopicEconomy, "mk"))

	k, err := ParseKeying("source")
	require.NoError(t, err)
	assert.Equal(t, KeyBySource, k)

	_, err = ParseKeying("feed")
	assert.ErrorIs(t, err, entity.ErrConfiguration)
}
