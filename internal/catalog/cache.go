package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ichra-workers/internal/common/logger"
	"ichra-workers/internal/common/metrics"
	"ichra-workers/internal/models"
	"ichra-workers/internal/recommendation"

	"github.com/redis/go-redis/v9"
)

// CachedRepository is a read-through Redis cache in front of another
// repository. Empty results are never cached and cache failures fall
// through to the backing repository.
type CachedRepository struct {
	next   recommendation.PlanRepository
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(next recommendation.PlanRepository, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
	}
}

func (c *CachedRepository) Name() string { return BackendName(c.next) }

func CacheKey(state, zipCode string) string {
	return fmt.Sprintf("catalog:plans:%s:%s", state, zipCode)
}

func (c *CachedRepository) FindActivePlans(ctx context.Context, state, zipCode string) ([]models.Plan, error) {
	key := CacheKey(state, zipCode)

	if plans, ok := c.lookup(ctx, key); ok {
		return plans, nil
	}

	plans, err := c.next.FindActivePlans(ctx, state, zipCode)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return plans, nil
	}

	data, err := json.Marshal(plans)
	if err != nil {
		return plans, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache plans", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	return plans, nil
}

func (c *CachedRepository) lookup(ctx context.Context, key string) ([]models.Plan, bool) {
	val, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.CatalogCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
		return nil, false
	case err != nil:
		metrics.CatalogCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("plan cache unavailable", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}

	var plans []models.Plan
	if err := json.Unmarshal(val, &plans); err != nil {
		metrics.CatalogCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		c.logger.Warn("corrupt plan cache entry", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return nil, false
	}

	metrics.CatalogCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
	return plans, true
}
