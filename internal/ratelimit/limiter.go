// Package ratelimit throttles the unauthenticated guest-checkout entry
// point. The quota is a hard fixed window per caller IP: over-quota requests
// are rejected, never queued.
package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:guest:"

// fixedWindowScript increments the caller's counter and stamps the window
// TTL on first use, so count and expiry stay atomic.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])

local count = redis.call('INCR', key)
if count == 1 then
	redis.call('EXPIRE', key, window)
end

return count
`)

// Limiter enforces a fixed quota of requests per key per window.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// Allow reports whether the caller identified by key is under quota. An
// unreachable Redis fails open: availability of checkout is preferred over
// strict throttling, and the failure is logged for operators.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	count, err := fixedWindowScript.Run(ctx, l.client, []string{keyPrefix + key}, int(l.window.Seconds())).Int()
	if err != nil {
		log.Printf("[RateLimit] Redis unavailable, allowing %q: %v", key, err)
		return true
	}
	return count <= l.limit
}
