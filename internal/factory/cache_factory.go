package factory

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mikey/llm-mail-digest/internal/adapters/cache"
	"github.com/mikey/llm-mail-digest/internal/config"
	"github.com/mikey/llm-mail-digest/internal/core"
)

// SeenCache is a core.SeenCache that owns background resources
type SeenCache interface {
	core.SeenCache
	Close() error
}

// CacheFactory creates seen-message caches based on configuration
type CacheFactory struct {
	cfg    config.CacheConfig
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg.GetCache(),
		logger: logger,
	}
}

// CreateSeenCache returns the configured cache, or nil when caching is disabled
func (f *CacheFactory) CreateSeenCache(ctx context.Context) (SeenCache, error) {
	switch f.cfg.Type {
	case "", "none":
		f.logger.Info("Seen-message cache disabled")
		return nil, nil
	case "memory":
		return cache.NewMemoryCache(f.cfg.TTL, f.cfg.CleanupFrequency, f.logger), nil
	case "redis":
		c, err := cache.NewRedisCache(ctx, &redis.Options{
			Addr:     f.cfg.RedisAddr,
			Password: f.cfg.RedisPassword,
			DB:       f.cfg.RedisDB,
		}, f.cfg.TTL, f.logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", f.cfg.Type)
	}
}
