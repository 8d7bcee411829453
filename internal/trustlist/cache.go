package trustlist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/Derecoder4/Rugguard-bot/internal/domain"
)

// DefaultTTL is how long a refreshed trusted set stays fresh.
const DefaultTTL = 24 * time.Hour

// Cache maintains the trusted-account set with TTL-based refresh and
// stale-but-available fallback. Readers always see a complete set: Refresh
// swaps the snapshot pointer only after both fetch and persistence succeed.
type Cache struct {
	fetcher domain.ListFetcher
	repo    domain.TrustedAccountRepository
	clock   clockwork.Clock
	ttl     time.Duration

	group singleflight.Group

	mu          sync.RWMutex
	current     *Set
	refreshedAt time.Time
}

func NewCache(fetcher domain.ListFetcher, repo domain.TrustedAccountRepository, ttl time.Duration, clock clockwork.Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		repo:    repo,
		clock:   clock,
		ttl:     ttl,
		current: NewSet(nil),
	}
}

// Load seeds the snapshot from the repository so a restart does not need an
// immediate network round-trip. An empty repository is not an error.
func (c *Cache) Load(ctx context.Context) error {
	handles, err := c.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trusted accounts: %w", err)
	}
	refreshedAt, err := c.repo.LastRefreshed(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trusted-list refresh time: %w", err)
	}

	c.mu.Lock()
	c.current = NewSet(handles)
	c.refreshedAt = refreshedAt
	c.mu.Unlock()

	slog.Info("Trusted-account cache loaded", "count", len(handles), "refreshed_at", refreshedAt)
	return nil
}

// Refresh fetches the remote list and atomically replaces the set. On any
// fetch, parse or persistence failure the previous set (memory and rows) stays
// untouched and the error is returned. Concurrent calls collapse into one.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return nil, c.refresh(ctx)
	})
	return err
}

func (c *Cache) refresh(ctx context.Context) error {
	raw, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch trusted list: %w", err)
	}

	handles := ParseList(raw)
	if len(handles) == 0 {
		return fmt.Errorf("trusted list source returned no usable entries")
	}

	now := c.clock.Now()
	if err := c.repo.ReplaceAll(ctx, handles, now); err != nil {
		return fmt.Errorf("failed to persist trusted list: %w", err)
	}

	c.mu.Lock()
	c.current = NewSet(handles)
	c.refreshedAt = now
	c.mu.Unlock()

	slog.Info("Trusted-account cache refreshed", "count", len(handles))
	return nil
}

// Snapshot returns the current trusted set, refreshing first when the last
// successful refresh is older than the TTL. A failed refresh falls back
// silently to the stale set - callers always get a usable (possibly empty) set.
func (c *Cache) Snapshot(ctx context.Context) *Set {
	if c.stale() {
		if err := c.Refresh(ctx); err != nil {
			slog.WarnContext(ctx, "Trusted-list refresh failed, using stale set",
				"error", err, "last_refreshed", c.RefreshedAt())
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// RefreshedAt returns the time of the last successful refresh (zero if never).
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

func (c *Cache) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clock.Now().Sub(c.refreshedAt) > c.ttl
}
