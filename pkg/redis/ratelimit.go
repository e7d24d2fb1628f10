package redis

import (
	"context"
	"fmt"
	"time"
)

const rateLimitPrefix = "rate_limit"

// Decision is the outcome of one counted attempt.
type Decision struct {
	Allowed bool
	Count   int64
	// ResetIn is how long until the window's counter expires.
	ResetIn time.Duration
}

// RateLimiter counts attempts per scope in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, scope string, limit int64, window time.Duration) (Decision, error)
}

func (c *Client) RateLimitKey(scope string) string {
	return key(rateLimitPrefix, scope)
}

// Allow increments the scope's counter. The window starts with the first
// attempt; EXPIRE NX leaves an existing deadline alone, and also repairs a
// counter left without one.
func (c *Client) Allow(ctx context.Context, scope string, limit int64, window time.Duration) (Decision, error) {
	if err := c.ready(); err != nil {
		return Decision{}, err
	}
	if window <= 0 {
		return Decision{}, fmt.Errorf("rate limit window must be positive")
	}

	k := c.RateLimitKey(scope)
	count, err := c.cmds.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("incr %s: %w", k, err)
	}
	if err := c.cmds.ExpireNX(ctx, k, window).Err(); err != nil {
		return Decision{}, fmt.Errorf("expire %s: %w", k, err)
	}

	resetIn := window
	if ttl, err := c.cmds.PTTL(ctx, k).Result(); err == nil && ttl > 0 {
		resetIn = ttl
	}
	return Decision{Allowed: count <= limit, Count: count, ResetIn: resetIn}, nil
}
