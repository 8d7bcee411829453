package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TrustedRepo implements domain.TrustedAccountRepository backed by PostgreSQL.
// ReplaceAll swaps the whole set in one transaction so readers never observe a
// partially-replaced list.
type TrustedRepo struct {
	pool *pgxpool.Pool
}

func NewTrustedRepo(pool *pgxpool.Pool) *TrustedRepo {
	return &TrustedRepo{pool: pool}
}

func (r *TrustedRepo) ReplaceAll(ctx context.Context, handles []string, refreshedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, `DELETE FROM trusted_accounts`); err != nil {
		return fmt.Errorf("failed to clear trusted accounts: %w", err)
	}

	for i, handle := range handles {
		_, err := tx.Exec(ctx,
			`INSERT INTO trusted_accounts (handle, position, refreshed_at) VALUES ($1, $2, $3)`,
			handle, i, refreshedAt)
		if err != nil {
			return fmt.Errorf("failed to insert trusted account %q: %w", handle, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit trusted-account replacement: %w", err)
	}
	return nil
}

func (r *TrustedRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT handle FROM trusted_accounts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list trusted accounts: %w", err)
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var handle string
		if err := rows.Scan(&handle); err != nil {
			return nil, fmt.Errorf("failed to scan trusted account: %w", err)
		}
		handles = append(handles, handle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trusted accounts: %w", err)
	}
	return handles, nil
}

func (r *TrustedRepo) LastRefreshed(ctx context.Context) (time.Time, error) {
	var refreshedAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT max(refreshed_at) FROM trusted_accounts`).Scan(&refreshedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get trusted-list refresh time: %w", err)
	}
	if refreshedAt == nil {
		return time.Time{}, nil
	}
	return *refreshedAt, nil
}

func (r *TrustedRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trusted_accounts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trusted accounts: %w", err)
	}
	return count, nil
}
