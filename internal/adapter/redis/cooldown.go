package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cooldown rate-limits re-analysis of the same account using a SET NX key with
// TTL: the first caller within the window wins, later callers are told to
// reuse the stored analysis instead.
type Cooldown struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewCooldown(rdb *goredis.Client, ttl time.Duration) *Cooldown {
	return &Cooldown{rdb: rdb, ttl: ttl}
}

// Begin returns true when the account may be analyzed now (and opens the
// cooldown window), false when a recent analysis is still in effect.
func (c *Cooldown) Begin(ctx context.Context, accountID string) (bool, error) {
	key := cooldownKey(accountID)

	args := goredis.SetArgs{TTL: c.ttl, Mode: "NX"}
	_, err := c.rdb.SetArgs(ctx, key, "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to set analysis cooldown: %w", err)
	}
	return true, nil
}

func cooldownKey(accountID string) string {
	return "analysis_cooldown:" + accountID
}
