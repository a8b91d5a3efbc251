package sqlite

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

// WatermarkRepo stores watermarks as unix nanoseconds.
type WatermarkRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewWatermarkRepo(db *sql.DB) *WatermarkRepo {
	return &WatermarkRepo{db: db, now: time.Now}
}

var _ repository.WatermarkRepository = (*WatermarkRepo)(nil)

func (repo *WatermarkRepo) Get(ctx context.Context, key string) (time.Time, error) {
	defer func(start time.Time) { metrics.RecordDBQuery("get_watermark", time.Since(start)) }(time.Now())

	const query = `
SELECT watermark_ns
FROM watermarks
WHERE key = ?
LIMIT 1`
	var ns int64
	err := repo.db.QueryRowContext(ctx, query, key).Scan(&ns)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, entity.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("Get: QueryRowContext: %w", err)
	}
	return time.Unix(0, ns).UTC(), nil
}

func (repo *WatermarkRepo) Advance(ctx context.Context, key string, t time.Time) error {
	defer func(start time.Time) { metrics.RecordDBQuery("advance_watermark", time.Since(start)) }(time.Now())

	const query = `
INSERT INTO watermarks (key, watermark_ns, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE
SET watermark_ns = MAX(watermark_ns, excluded.watermark_ns),
    updated_at   = excluded.updated_at`
	if _, err := repo.db.ExecContext(ctx, query, key, t.UnixNano(), repo.now().UnixNano()); err != nil {
		return fmt.Errorf("Advance: ExecContext: %w", err)
	}
	return nil
}

func (repo *WatermarkRepo) List(ctx context.Context) (map[string]time.Time, error) {
	defer func(start time.Time) { metrics.RecordDBQuery("list_watermarks", time.Since(start)) }(time.Now())

	const query = `
SELECT key, watermark_ns
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
			ns  int64
		)
		if err := rows.Scan(&key, &ns); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		out[key] = time.Unix(0, ns).UTC()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows.Err: %w", err)
	}
	return out, nil
}
