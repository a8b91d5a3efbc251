package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"newsbot/internal/domain/entity"
	"newsbot/internal/observability/metrics"
	"newsbot/internal/repository"
)

// DB is the subset of *sql.DB used by the repository. It is also satisfied by
// circuitbreaker.DBCircuitBreaker.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type WatermarkRepo struct{ db DB }

func NewWatermarkRepo(db DB) *WatermarkRepo {
	return &WatermarkRepo{db: db}
}

var _ repository.WatermarkRepository = (*WatermarkRepo)(nil)

func (repo *WatermarkRepo) Get(ctx context.Context, key string) (time.Time, error) {
	defer func(start time.Time) { metrics.RecordDBQuery("get_watermark", time.Since(start)) }(time.Now())

	const query = `
SELECT watermark
FROM watermarks
WHERE key = $1
LIMIT 1`
	var t time.Time
	err := repo.db.QueryRowContext(ctx, query, key).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, entity.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return t, nil
}

// Advance upserts the watermark; GREATEST keeps the stored value when it is later.
func (repo *WatermarkRepo) Advance(ctx context.Context, key string, t time.Time) error {
	defer func(start time.Time) { metrics.RecordDBQuery("advance_watermark", time.Since(start)) }(time.Now())

	const query = `
INSERT INTO watermarks (key, watermark, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE
SET watermark  = GREATEST(watermarks.watermark, EXCLUDED.watermark),
    updated_at = now()`
	if _, err := repo.db.ExecContext(ctx, query, key, t.UTC()); err != nil {
		return fmt.Errorf("Advance: ExecContext: %w", err)
	}
	return nil
}

func (repo *WatermarkRepo) List(ctx context.Context) (map[string]time.Time, error) {
	defer func(start time.Time) { metrics.RecordDBQuery("list_watermarks", time.Since(start)) }(time.Now())

	const query = `
SELECT key, watermark
FROM watermarks
ORDER BY key ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: QueryContext: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]time.Time)
	for rows.Next() {
		var (
			key string
			t   time.Time
		)
		if err := rows.Scan(&key, &t); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		out[key] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}
	return out, nil
}
