package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// TypeCache keeps each owner's distinct event-type list in Redis so the
// types endpoint does not hit Postgres on every form render. It fails open:
// any Redis error is logged and treated as a miss, and a nil client disables
// caching entirely.
type TypeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewTypeCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *TypeCache {
	return &TypeCache{client: client, ttl: ttl, logger: logger}
}

// ConnectRedis parses a redis URL, connects, and pings.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func typeCacheKey(ownerID string) string {
	return "event_types:" + ownerID
}

// Get returns the cached type list for the owner, or ok=false on a miss.
func (c *TypeCache) Get(ctx context.Context, ownerID string) ([]string, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, typeCacheKey(ownerID)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("type cache read failed", "error", err, "owner_id", ownerID)
		return nil, false
	}
	var types []string
	if err := json.Unmarshal([]byte(raw), &types); err != nil {
		c.logger.Warn("type cache entry corrupt", "error", err, "owner_id", ownerID)
		return nil, false
	}
	return types, true
}

func (c *TypeCache) Set(ctx context.Context, ownerID string, types []string) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(types)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, typeCacheKey(ownerID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("type cache write failed", "error", err, "owner_id", ownerID)
	}
}

// Invalidate drops the owner's entry. Called after any event write, since a
// write may introduce or retire a type.
func (c *TypeCache) Invalidate(ctx context.Context, ownerID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, typeCacheKey(ownerID)).Err(); err != nil {
		c.logger.Warn("type cache invalidation failed", "error", err, "owner_id", ownerID)
	}
}
