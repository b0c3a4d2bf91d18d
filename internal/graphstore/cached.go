package graphstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/job-recommender/internal/metrics"
	"github.com/spigell/job-recommender/internal/recommend"
)

const (
	defaultCacheTTL   = 10 * time.Minute
	requiredSkillsKey = "recommender:required-skills:%d"
)

// cache is the subset of *redis.Client the decorator uses.
type cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Cached memoizes required skill lookups in Redis. Cache failures are logged and
// the inner store is used; they never fail a request.
type Cached struct {
	inner  recommend.GraphStore
	cache  cache
	ttl    time.Duration
	logger *zap.Logger
}

var _ recommend.GraphStore = (*Cached)(nil)

func NewCached(inner recommend.GraphStore, client cache, ttl time.Duration, logger *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{inner: inner, cache: client, ttl: ttl, logger: logger}
}

func (c *Cached) GetPostingsBySkills(ctx context.Context, names []string, limit int) ([]int, error) {
	return c.inner.GetPostingsBySkills(ctx, names, limit)
}

func (c *Cached) GetRequiredSkills(ctx context.Context, postingID int) ([]string, error) {
	key := fmt.Sprintf(requiredSkillsKey, postingID)

	raw, err := c.cache.Get(ctx, key).Result()
	switch {
	case err == nil:
		var names []string
		if jsonErr := json.Unmarshal([]byte(raw), &names); jsonErr == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			return names, nil
		}
		c.logger.Warn("discarding malformed cache entry", zap.String("key", key))
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	default:
		c.logger.Warn("reading required skills cache failed", zap.String("key", key), zap.Error(err))
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
	}

	names, err := c.inner.GetRequiredSkills(ctx, postingID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(names)
	if err == nil {
		err = c.cache.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("writing required skills cache failed", zap.String("key", key), zap.Error(err))
	}
	return names, nil
}
