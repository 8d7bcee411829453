package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Derecoder4/Rugguard-bot/internal/adapter/metrics"
	"github.com/Derecoder4/Rugguard-bot/internal/domain"
	"github.com/Derecoder4/Rugguard-bot/internal/platform/correlation"
)

const (
	searchLimit = 10
	// every Nth poll cycle logs a ledger summary
	statusLogInterval = 12
)

// Monitor polls the platform for trigger mentions and feeds them through the
// service. One failing event never aborts the cycle; the error is counted
// and the remaining events still run.
type Monitor struct {
	service    *Service
	mentions   domain.MentionSource
	metrics    *metrics.AnalysisMetrics
	clock      clockwork.Clock
	interval   time.Duration
	eventDelay time.Duration
	query      string

	cycles int
}

func NewMonitor(service *Service, mentions domain.MentionSource, m *metrics.AnalysisMetrics,
	clock clockwork.Clock, interval, eventDelay time.Duration, triggerPhrase string) *Monitor {
	return &Monitor{
		service:    service,
		mentions:   mentions,
		metrics:    m,
		clock:      clock,
		interval:   interval,
		eventDelay: eventDelay,
		query:      fmt.Sprintf("%q -is:retweet", triggerPhrase),
	}
}

// Run polls until the context is cancelled. The first cycle starts
// immediately, the rest follow the configured interval.
func (m *Monitor) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Mention monitor started", "interval", m.interval, "query", m.query)

	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		m.runCycle(ctx)

		select {
		case <-ticker.Chan():
		case <-ctx.Done():
			slog.InfoContext(ctx, "Mention monitor stopped")
			return ctx.Err()
		}
	}
}

func (m *Monitor) runCycle(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())
	m.cycles++

	events, err := m.mentions.SearchMentions(ctx, m.query, searchLimit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to search for trigger mentions", "error", err)
		return
	}

	for i, event := range events {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			m.pause(ctx)
		}

		if err := m.service.ProcessEvent(ctx, event); err != nil {
			m.metrics.EventsFailed.Inc()
			slog.ErrorContext(ctx, "Failed to process trigger event",
				"event_id", event.ID, "error", err)
		}
	}

	if m.cycles%statusLogInterval == 0 {
		m.logStatus(ctx)
	}
}

// pause spaces consecutive events apart to stay friendly to platform limits.
func (m *Monitor) pause(ctx context.Context) {
	if m.eventDelay <= 0 {
		return
	}
	select {
	case <-m.clock.After(m.eventDelay):
	case <-ctx.Done():
	}
}

func (m *Monitor) logStatus(ctx context.Context) {
	stats, err := m.service.Status(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed to collect status summary", "error", err)
		return
	}

	slog.InfoContext(ctx, "Monitor status summary",
		"cycles", m.cycles,
		"processed_total", stats.TotalProcessed,
		"processed_24h", stats.RecentProcessed,
		"analyses_total", stats.TotalAnalyses,
		"trusted_accounts", stats.TrustedAccounts)
}
