package domain

import (
	"context"
	"time"
)

// --- Model types ---

// AccountProfile is the metadata snapshot of a social account as returned by
// the platform API. ID is the platform-issued stable identifier; Handle is the
// public name and is treated case-insensitively everywhere.
type AccountProfile struct {
	ID             string
	Handle         string
	DisplayName    string
	Bio            string
	CreatedAt      time.Time
	FollowersCount int
	FollowingCount int
	PostCount      int
	Verified       bool
}

// Post is a single post with its public engagement counters.
type Post struct {
	ID      string
	Text    string
	Likes   int
	Reposts int
	Replies int
	Quotes  int
}

// Analysis is the result of scoring one account. Exactly one record per account
// survives in storage; a re-analysis replaces the previous record wholesale.
type Analysis struct {
	AccountID            string    `db:"account_id"`
	Handle               string    `db:"handle"`
	AccountAgeDays       int       `db:"account_age_days"`
	FollowerCount        int       `db:"follower_count"`
	FollowingCount       int       `db:"following_count"`
	FollowerRatio        float64   `db:"follower_ratio"`
	BioLength            int       `db:"bio_length"`
	BioKeywords          []string  `db:"bio_keywords"`
	AvgEngagement        float64   `db:"avg_engagement"`
	TrustedFollowerCount int       `db:"trusted_follower_count"`
	TrustedFollowers     []string  `db:"trusted_followers"`
	Score                int       `db:"score"`
	RiskFactors          []string  `db:"risk_factors"`
	PositiveIndicators   []string  `db:"positive_indicators"`
	Verified             bool      `db:"verified"`
	AnalyzedAt           time.Time `db:"analyzed_at"`
}

// TriggerEvent is a mention that requests analysis of the account behind the
// post it replies to. Tracked for idempotency by its own ID, which is distinct
// from the analyzed account's ID.
type TriggerEvent struct {
	ID               string
	Text             string
	AuthorID         string
	ReferencedPostID string
	CreatedAt        time.Time
}

// PostAuthor identifies the author of a referenced post.
type PostAuthor struct {
	AccountID string
	Handle    string
}

// Stats aggregates ledger counters for status reporting.
type Stats struct {
	TotalProcessed  int
	TotalAnalyses   int
	RecentProcessed int
	RecentAnalyses  int
	TrustedAccounts int
	LastProcessedAt time.Time
	HasActivity     bool
}

// --- Persistence interfaces ---

// AnalysisRepository stores the latest analysis per account (upsert semantics).
type AnalysisRepository interface {
	Upsert(ctx context.Context, analysis *Analysis) error
	GetByAccountID(ctx context.Context, accountID string) (*Analysis, error)
	ListRecent(ctx context.Context, window time.Duration, limit int) ([]Analysis, error)
	CountSince(ctx context.Context, window time.Duration) (int, error)
	Count(ctx context.Context) (int, error)
}

// ProcessedEventRepository is an append-only ledger of handled trigger events.
// MarkProcessed must be idempotent: a duplicate event ID is a no-op, not an error.
type ProcessedEventRepository interface {
	HasProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
	CountSince(ctx context.Context, window time.Duration) (int, error)
	Count(ctx context.Context) (int, error)
	LastProcessedAt(ctx context.Context) (time.Time, bool, error)
}

// TrustedAccountRepository persists the trusted-handle set. ReplaceAll swaps the
// whole set atomically; partial merges are never performed.
type TrustedAccountRepository interface {
	ReplaceAll(ctx context.Context, handles []string, refreshedAt time.Time) error
	List(ctx context.Context) ([]string, error)
	LastRefreshed(ctx context.Context) (time.Time, error)
	Count(ctx context.Context) (int, error)
}

// --- Collaborator interfaces ---

// AccountSource fetches account data from the social platform. Implementations
// own all network timeouts, retries and rate limiting.
type AccountSource interface {
	GetProfile(ctx context.Context, handle string) (*AccountProfile, error)
	GetRecentPosts(ctx context.Context, accountID string, limit int) ([]Post, error)
	GetFollowerSample(ctx context.Context, accountID string, limit int) ([]string, error)
}

// MentionSource finds trigger events and resolves referenced posts.
type MentionSource interface {
	SearchMentions(ctx context.Context, query string, limit int) ([]TriggerEvent, error)
	GetPostAuthor(ctx context.Context, postID string) (*PostAuthor, error)
}

// ReplyPublisher posts a formatted report in reply to the trigger event.
type ReplyPublisher interface {
	Reply(ctx context.Context, inReplyToID, text string) (string, error)
}

// ListFetcher retrieves the raw newline-delimited trusted-account list.
type ListFetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// CooldownStore rate-limits re-analysis of the same account. Begin returns true
// when the caller may analyze (and opens the window), false when a recent
// analysis should be reused instead.
type CooldownStore interface {
	Begin(ctx context.Context, accountID string) (bool, error)
}
