package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMemoryCacheSeenAndExpiry(t *testing.T) {
	c := NewMemoryCache(time.Hour, 0, zap.NewNop())
	defer c.Close()

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	assert.False(t, c.Seen(ctx, "acc", "m1"))
	c.Remember(ctx, "acc", "m1")
	assert.True(t, c.Seen(ctx, "acc", "m1"))
	assert.False(t, c.Seen(ctx, "other", "m1"))

	now = now.Add(2 * time.Hour)
	assert.False(t, c.Seen(ctx, "acc", "m1"))
	assert.Equal(t, 1, c.Len())

	c.Cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Millisecond, zap.NewNop())
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestRedisCacheFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(rdb, time.Hour, zap.NewNop())
	defer c.Close()

	ctx := context.Background()
	c.Remember(ctx, "acc", "m1")
	assert.False(t, c.Seen(ctx, "acc", "m1"))
}

func TestNewRedisCacheReportsUnreachableServer(t *testing.T) {
	_, err := NewRedisCache(context.Background(), &redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}, time.Hour, zap.NewNop())
	assert.Error(t, err)
}

func TestSeenKey(t *testing.T) {
	assert.Equal(t, "seen:acc:<m1@example.com>", seenKey("acc", "<m1@example.com>"))
}
