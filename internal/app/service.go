// Package app wires the scoring pipeline together: it consumes trigger
// events, runs the analyzer against fresh platform data and publishes the
// resulting report.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/metrics"
	"github.com/Derecoder4/Rugguard-bot/internal/analyzer"
	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/trustlist"
)

// skip reasons reported on the events_skipped_total metric
const (
	skipAlreadyProcessed = "already_processed"
	skipNoReferencedPost = "no_referenced_post"
	skipPostGone         = "post_gone"
	skipAccountGone      = "account_gone"
)

const statsWindow = 24 * time.Hour

// Deps collects the collaborators of Service.
type Deps struct {
	Analyzer *analyzer.Analyzer
	Trusted  *trustlist.Cache

	Analyses    domain.AnalysisRepository
	Events      domain.ProcessedEventRepository
	TrustedRepo domain.TrustedAccountRepository

	Accounts domain.AccountSource
	Mentions domain.MentionSource
	Replies  domain.ReplyPublisher
	Cooldown domain.CooldownStore

	Metrics *metrics.AnalysisMetrics
	Clock   clockwork.Clock

	PostSampleSize     int
	FollowerSampleSize int
}

// Service processes trigger events end to end. Processing is idempotent per
// event ID and rate-limited per analyzed account: within the cooldown window
// a stored analysis is replayed instead of hitting the platform again.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// ProcessEvent handles one trigger event. An event is marked processed only
// after its reply is published (or it is terminally unprocessable), so a
// transient failure leaves it eligible for the next cycle.
func (s *Service) ProcessEvent(ctx context.Context, event domain.TriggerEvent) error {
	d := s.deps

	done, err := d.Events.HasProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to check event ledger: %w", err)
	}
	if done {
		d.Metrics.EventsSkipped.WithLabelValues(skipAlreadyProcessed).Inc()
		return nil
	}

	if event.ReferencedPostID == "" {
		slog.InfoContext(ctx, "Trigger event is not a reply, skipping", "event_id", event.ID)
		d.Metrics.EventsSkipped.WithLabelValues(skipNoReferencedPost).Inc()
		return s.markProcessed(ctx, event.ID)
	}

	author, err := d.Mentions.GetPostAuthor(ctx, event.ReferencedPostID)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			slog.InfoContext(ctx, "Referenced post no longer exists, skipping",
				"event_id", event.ID, "post_id", event.ReferencedPostID)
			d.Metrics.EventsSkipped.WithLabelValues(skipPostGone).Inc()
			return s.markProcessed(ctx, event.ID)
		}
		return fmt.Errorf("failed to resolve referenced post %s: %w", event.ReferencedPostID, err)
	}

	analysis, err := s.analysisFor(ctx, author)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			slog.InfoContext(ctx, "Analyzed account no longer exists, skipping",
				"event_id", event.ID, "account_id", author.AccountID)
			d.Metrics.EventsSkipped.WithLabelValues(skipAccountGone).Inc()
			return s.markProcessed(ctx, event.ID)
		}
		return err
	}

	report := analyzer.FormatReport(analysis)
	replyID, err := d.Replies.Reply(ctx, event.ID, report)
	if err != nil {
		if errors.Is(err, domain.ErrPostNotFound) {
			slog.InfoContext(ctx, "Trigger post deleted before reply, skipping",
				"event_id", event.ID)
			d.Metrics.EventsSkipped.WithLabelValues(skipPostGone).Inc()
			return s.markProcessed(ctx, event.ID)
		}
		d.Metrics.RepliesPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish report for event %s: %w", event.ID, err)
	}
	d.Metrics.RepliesPublished.WithLabelValues("ok").Inc()

	if err := s.markProcessed(ctx, event.ID); err != nil {
		return err
	}
	d.Metrics.EventsProcessed.Inc()

	slog.InfoContext(ctx, "Trigger event processed",
		"event_id", event.ID,
		"account", analysis.Handle,
		"score", analysis.Score,
		"reply_id", replyID)
	return nil
}

// analysisFor returns the analysis to report for the account: the stored one
// when the account is inside its cooldown window, a fresh one otherwise.
func (s *Service) analysisFor(ctx context.Context, author *domain.PostAuthor) (*domain.Analysis, error) {
	d := s.deps

	fresh, err := d.Cooldown.Begin(ctx, author.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check analysis cooldown: %w", err)
	}
	if !fresh {
		stored, err := d.Analyses.GetByAccountID(ctx, author.AccountID)
		if err == nil {
			slog.InfoContext(ctx, "Account on cooldown, reusing stored analysis",
				"account_id", author.AccountID, "analyzed_at", stored.AnalyzedAt)
			return stored, nil
		}
		if !errors.Is(err, domain.ErrAnalysisNotFound) {
			return nil, fmt.Errorf("failed to load stored analysis: %w", err)
		}
		// cooldown window open but nothing stored, analyze anyway
	}

	return s.analyze(ctx, author)
}

func (s *Service) analyze(ctx context.Context, author *domain.PostAuthor) (*domain.Analysis, error) {
	d := s.deps

	profile, err := d.Accounts.GetProfile(ctx, author.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %q: %w", author.Handle, err)
	}

	posts, err := d.Accounts.GetRecentPosts(ctx, profile.ID, d.PostSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent posts: %w", err)
	}

	followers, err := d.Accounts.GetFollowerSample(ctx, profile.ID, d.FollowerSampleSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch follower sample: %w", err)
	}

	trusted := d.Trusted.Snapshot(ctx)

	analysis, err := d.Analyzer.Analyze(profile, posts, followers, trusted, d.Clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to analyze account %q: %w", author.Handle, err)
	}

	if err := d.Analyses.Upsert(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to store analysis: %w", err)
	}

	d.Metrics.AnalysesTotal.Inc()
	d.Metrics.TrustScores.Observe(float64(analysis.Score))
	return analysis, nil
}

func (s *Service) markProcessed(ctx context.Context, eventID string) error {
	if err := s.deps.Events.MarkProcessed(ctx, eventID); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// Status aggregates ledger and repository counters for the status endpoint
// and the CLI.
func (s *Service) Status(ctx context.Context) (*domain.Stats, error) {
	d := s.deps

	stats := &domain.Stats{}
	var err error

	if stats.TotalProcessed, err = d.Events.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count processed events: %w", err)
	}
	if stats.RecentProcessed, err = d.Events.CountSince(ctx, statsWindow); err != nil {
		return nil, fmt.Errorf("failed to count recent events: %w", err)
	}
	if stats.TotalAnalyses, err = d.Analyses.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count analyses: %w", err)
	}
	if stats.RecentAnalyses, err = d.Analyses.CountSince(ctx, statsWindow); err != nil {
		return nil, fmt.Errorf("failed to count recent analyses: %w", err)
	}
	if stats.TrustedAccounts, err = d.TrustedRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("failed to count trusted accounts: %w", err)
	}

	last, ok, err := d.Events.LastProcessedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read last processed time: %w", err)
	}
	stats.LastProcessedAt = last
	stats.HasActivity = ok

	return stats, nil
}

// RefreshTrusted forces the trusted-account list to refresh now.
func (s *Service) RefreshTrusted(ctx context.Context) error {
	if err := s.deps.Trusted.Refresh(ctx); err != nil {
		s.deps.Metrics.TrustedRefreshes.WithLabelValues("error").Inc()
		return err
	}
	s.deps.Metrics.TrustedRefreshes.WithLabelValues("ok").Inc()
	return nil
}
