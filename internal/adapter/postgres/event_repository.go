package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepo implements domain.ProcessedEventRepository backed by PostgreSQL.
// The table is append-only; the primary key makes check-then-insert atomic.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (r *EventRepo) HasProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return exists, nil
}

func (r *EventRepo) MarkProcessed(ctx context.Context, eventID string) error {
	// ON CONFLICT DO NOTHING keeps this idempotent under concurrent callers.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO processed_events (event_id) VALUES ($1) ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *EventRepo) CountSince(ctx context.Context, window time.Duration) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM processed_events WHERE processed_at > now() - make_interval(secs => $1)`,
		window.Seconds()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent processed events: %w", err)
	}
	return count, nil
}

func (r *EventRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM processed_events`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count processed events: %w", err)
	}
	return count, nil
}

func (r *EventRepo) LastProcessedAt(ctx context.Context) (time.Time, bool, error) {
	var at time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT processed_at FROM processed_events ORDER BY processed_at DESC LIMIT 1`).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to get last processed time: %w", err)
	}
	return at, true, nil
}
