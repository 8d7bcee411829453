package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

// analysisColumns must match the Scan order in scanAnalysis.
const analysisColumns = `account_id, handle, account_age_days, follower_count, following_count,
	follower_ratio, bio_length, bio_keywords, avg_engagement, trusted_follower_count,
	trusted_followers, score, risk_factors, positive_indicators, verified, analyzed_at`

// AnalysisRepo implements domain.AnalysisRepository backed by PostgreSQL.
// One row per account: Upsert replaces any previous analysis wholesale.
type AnalysisRepo struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepo(pool *pgxpool.Pool) *AnalysisRepo {
	return &AnalysisRepo{pool: pool}
}

func scanAnalysis(row pgx.Row) (*domain.Analysis, error) {
	var a domain.Analysis
	err := row.Scan(
		&a.AccountID, &a.Handle, &a.AccountAgeDays, &a.FollowerCount, &a.FollowingCount,
		&a.FollowerRatio, &a.BioLength, &a.BioKeywords, &a.AvgEngagement, &a.TrustedFollowerCount,
		&a.TrustedFollowers, &a.Score, &a.RiskFactors, &a.PositiveIndicators, &a.Verified, &a.AnalyzedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnalysisRepo) Upsert(ctx context.Context, a *domain.Analysis) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO analyses (account_id, handle, account_age_days, follower_count, following_count,
			follower_ratio, bio_length, bio_keywords, avg_engagement, trusted_follower_count,
			trusted_followers, score, risk_factors, positive_indicators, verified, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (account_id) DO UPDATE SET
			handle = EXCLUDED.handle,
			account_age_days = EXCLUDED.account_age_days,
			follower_count = EXCLUDED.follower_count,
			following_count = EXCLUDED.following_count,
			follower_ratio = EXCLUDED.follower_ratio,
			bio_length = EXCLUDED.bio_length,
			bio_keywords = EXCLUDED.bio_keywords,
			avg_engagement = EXCLUDED.avg_engagement,
			trusted_follower_count = EXCLUDED.trusted_follower_count,
			trusted_followers = EXCLUDED.trusted_followers,
			score = EXCLUDED.score,
			risk_factors = EXCLUDED.risk_factors,
			positive_indicators = EXCLUDED.positive_indicators,
			verified = EXCLUDED.verified,
			analyzed_at = EXCLUDED.analyzed_at
	`, a.AccountID, a.Handle, a.AccountAgeDays, a.FollowerCount, a.FollowingCount,
		a.FollowerRatio, a.BioLength, a.BioKeywords, a.AvgEngagement, a.TrustedFollowerCount,
		a.TrustedFollowers, a.Score, a.RiskFactors, a.PositiveIndicators, a.Verified, a.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepo) GetByAccountID(ctx context.Context, accountID string) (*domain.Analysis, error) {
	a, err := scanAnalysis(r.pool.QueryRow(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE account_id = $1`, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAnalysisNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis by account ID: %w", err)
	}
	return a, nil
}

func (r *AnalysisRepo) ListRecent(ctx context.Context, window time.Duration, limit int) ([]domain.Analysis, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE analyzed_at > now() - make_interval(secs => $1)
		ORDER BY analyzed_at DESC
		LIMIT $2
	`, window.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent analyses: %w", err)
	}
	defer rows.Close()

	var analyses []domain.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis row: %w", err)
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read analysis rows: %w", err)
	}
	return analyses, nil
}

func (r *AnalysisRepo) CountSince(ctx context.Context, window time.Duration) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM analyses WHERE analyzed_at > now() - make_interval(secs => $1)`,
		window.Seconds()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent analyses: %w", err)
	}
	return count, nil
}

func (r *AnalysisRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return count, nil
}
