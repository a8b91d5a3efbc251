package repository

import (
	"context"
	"time"
)

// WatermarkRepository persists one instant per watermark key.
//
// Get returns entity.ErrNotFound when no instant was ever stored for key.
// Advance stores t for key unless the stored instant is already later;
// a stored watermark never moves backwards.
type WatermarkRepository interface {
	Get(ctx context.Context, key string) (time.Time, error)
	Advance(ctx context.Context, key string, t time.Time) error
}

// WatermarkStore is what a run reads and commits: Load never reports a
// missing key, it falls back to a default look-back instead.
type WatermarkStore interface {
	Load(ctx context.Context, key string) (time.Time, error)
	Commit(ctx context.Context, key string, t time.Time) error
}

// WatermarkLister is implemented by repositories that can enumerate every
// stored key.
type WatermarkLister interface {
	List(ctx context.Context) (map[string]time.Time, error)
}
