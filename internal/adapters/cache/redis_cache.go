package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache shares the seen-message set between processes; any Redis failure reads as not seen
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, opts *redis.Options, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// NewRedisCacheFromClient wraps an existing client without probing it
func NewRedisCacheFromClient(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Seen reports whether the key exists
func (c *RedisCache) Seen(ctx context.Context, accountID, messageID string) bool {
	n, err := c.rdb.Exists(ctx, seenKey(accountID, messageID)).Result()
	if err != nil {
		c.logger.Debug("Redis lookup failed", zap.Error(err))
		return false
	}
	return n > 0
}

// Remember sets the key once with the configured TTL
func (c *RedisCache) Remember(ctx context.Context, accountID, messageID string) {
	if err := c.rdb.SetNX(ctx, seenKey(accountID, messageID), 1, c.ttl).Err(); err != nil {
		c.logger.Debug("Redis write failed", zap.Error(err))
	}
}

// Close releases the client connections
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func seenKey(accountID, messageID string) string {
	return "seen:" + accountID + ":" + messageID
}
