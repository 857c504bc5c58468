// internal/workers/nalk-ai/query-deals/cache.go
package querydeals

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"nalk-analytics/internal/common/database"
	"nalk-analytics/internal/common/logger"
)

const cacheKeyPrefix = "nalk:"

// Cache memoizes slow-changing lookups in Redis. A nil client disables it,
// and cache failures only cost a database round trip.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, logger: log}
}

func cacheKey(kind, table string) string {
	return cacheKeyPrefix + kind + ":" + table
}

func cached[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return load(ctx)
	}

	var value T
	err := database.GetJSON(ctx, c.rdb, key, &value)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err})
	}

	value, err = load(ctx)
	if err != nil {
		return value, err
	}

	if err := database.SetJSON(ctx, c.rdb, key, value, c.ttl); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err})
	}
	return value, nil
}
