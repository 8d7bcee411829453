// Package memory provides in-memory implementations of the persistence
// interfaces for tests and storage-free runs. Semantics mirror the postgres
// adapter: latest-wins analysis upserts, insert-once event marks, wholesale
// trusted-set replacement.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

type analysisEntry struct {
	analysis domain.Analysis
}

// Store implements AnalysisRepository, ProcessedEventRepository and
// TrustedAccountRepository in memory, safe for concurrent use.
type Store struct {
	clock clockwork.Clock

	mu        sync.RWMutex
	analyses  map[string]domain.Analysis
	processed map[string]time.Time
	trusted   []string
	refreshed time.Time
	cooldowns map[string]time.Time
}

func NewStore(clock clockwork.Clock) *Store {
	return &Store{
		clock:     clock,
		analyses:  make(map[string]domain.Analysis),
		processed: make(map[string]time.Time),
		cooldowns: make(map[string]time.Time),
	}
}

// --- AnalysisRepository ---

func (s *Store) Upsert(_ context.Context, analysis *domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[analysis.AccountID] = *analysis
	return nil
}

func (s *Store) GetByAccountID(_ context.Context, accountID string) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	analysis, ok := s.analyses[accountID]
	if !ok {
		return nil, domain.ErrAnalysisNotFound
	}
	return &analysis, nil
}

func (s *Store) ListRecent(_ context.Context, window time.Duration, limit int) ([]domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.clock.Now().Add(-window)
	var recent []domain.Analysis
	for _, a := range s.analyses {
		if a.AnalyzedAt.After(cutoff) {
			recent = append(recent, a)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].AnalyzedAt.After(recent[j].AnalyzedAt)
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (s *Store) CountSince(_ context.Context, window time.Duration) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.clock.Now().Add(-window)
	count := 0
	for _, a := range s.analyses {
		if a.AnalyzedAt.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.analyses), nil
}

// --- ProcessedEventRepository ---

type eventLedger struct{ *Store }

// Events exposes the processed-event view of the store.
func (s *Store) Events() domain.ProcessedEventRepository { return eventLedger{s} }

func (l eventLedger) HasProcessed(_ context.Context, eventID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.processed[eventID]
	return ok, nil
}

func (l eventLedger) MarkProcessed(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.processed[eventID]; ok {
		return nil
	}
	l.processed[eventID] = l.clock.Now()
	return nil
}

func (l eventLedger) CountSince(_ context.Context, window time.Duration) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cutoff := l.clock.Now().Add(-window)
	count := 0
	for _, at := range l.processed {
		if at.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (l eventLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.processed), nil
}

func (l eventLedger) LastProcessedAt(_ context.Context) (time.Time, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var last time.Time
	for _, at := range l.processed {
		if at.After(last) {
			last = at
		}
	}
	return last, !last.IsZero(), nil
}

// --- TrustedAccountRepository ---

type trustedLedger struct{ *Store }

// Trusted exposes the trusted-account view of the store.
func (s *Store) Trusted() domain.TrustedAccountRepository { return trustedLedger{s} }

func (l trustedLedger) ReplaceAll(_ context.Context, handles []string, refreshedAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trusted = append([]string(nil), handles...)
	l.refreshed = refreshedAt
	return nil
}

func (l trustedLedger) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.trusted...), nil
}

func (l trustedLedger) LastRefreshed(_ context.Context) (time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.refreshed, nil
}

func (l trustedLedger) Count(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trusted), nil
}

// --- CooldownStore ---

type cooldown struct {
	*Store
	ttl time.Duration
}

// Cooldown exposes a per-account analysis cooldown backed by the store.
func (s *Store) Cooldown(ttl time.Duration) domain.CooldownStore { return cooldown{s, ttl} }

func (c cooldown) Begin(_ context.Context, accountID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if until, ok := c.cooldowns[accountID]; ok && now.Before(until) {
		return false, nil
	}
	c.cooldowns[accountID] = now.Add(c.ttl)
	return true, nil
}
