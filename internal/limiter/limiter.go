// Package limiter guards the bulk-import endpoints with a per-owner sliding
// window rate limit backed by Redis. Single-event operations are cheap and
// are not limited; a runaway import loop is the scenario this exists for.
package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua script for atomic sliding window rate limiting:
// drop entries older than the window, count what is left, and either admit
// this request (adding it) or deny.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

local count = redis.call('ZCARD', key)

if count < limit then
    redis.call('ZADD', key, now, member)
    redis.call('EXPIRE', key, window / 1000 + 1)
    return 1
else
    return 0
end
`)

// ImportLimiter allows at most `limit` import requests per owner per minute.
type ImportLimiter struct {
	client *redis.Client
	limit  int
	logger *slog.Logger
}

// New builds a limiter. A nil client or non-positive limit disables it.
func New(client *redis.Client, limit int, logger *slog.Logger) *ImportLimiter {
	return &ImportLimiter{client: client, limit: limit, logger: logger}
}

func limiterKey(ownerID string) string {
	return fmt.Sprintf("import_rl:%s", ownerID)
}

// Allow reports whether this owner may start another import right now.
// Redis failures fail open: an unreachable cache must not block imports.
func (l *ImportLimiter) Allow(ctx context.Context, ownerID string) bool {
	if l == nil || l.client == nil || l.limit <= 0 {
		return true
	}

	now := time.Now().UnixMilli()
	window := int64(60_000) // one minute, in milliseconds
	member := fmt.Sprintf("%d:%d", now, time.Now().UnixNano()%10000)

	result, err := slidingWindowScript.Run(ctx, l.client, []string{limiterKey(ownerID)},
		now, window, l.limit, member,
	).Int64()
	if err != nil {
		l.logger.Error("rate limiter script failed", "error", err, "owner_id", ownerID)
		return true
	}

	if result == 0 {
		l.logger.Debug("import rate limited", "owner_id", ownerID, "limit", l.limit)
		return false
	}
	return true
}
