// Package cache provides a best-effort Redis cache for resolved location
// aliases. Every operation degrades to a miss when Redis is unavailable so
// normalization never depends on the cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"uppdragsradarn-crawler/internal/config"
	"uppdragsradarn-crawler/internal/logging"
	"uppdragsradarn-crawler/pkg/models"
)

// ErrCacheMiss is returned when no cached entry exists for a key
var ErrCacheMiss = errors.New("cache miss")

// AliasCache caches normalized location lookups keyed by raw input text
type AliasCache struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewAliasCache builds a cache from the Redis configuration. Returns nil when
// Redis is disabled; callers treat a nil cache as always missing.
func NewAliasCache(cfg *config.Config) *AliasCache {
	if !cfg.Redis.Enabled {
		return nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		opts = &redis.Options{Addr: "localhost:6379"}
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	return &AliasCache{
		client: redis.NewClient(opts),
		ttl:    cfg.Redis.TTL,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (c *AliasCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *AliasCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns the cached location for a raw location text, or ErrCacheMiss
func (c *AliasCache) Get(ctx context.Context, rawText string) (*models.Location, error) {
	if c == nil {
		return nil, ErrCacheMiss
	}

	data, err := c.client.Get(ctx, aliasKey(rawText)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		c.logger.Debug("Alias cache read failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, ErrCacheMiss
	}

	var loc models.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, ErrCacheMiss
	}
	return &loc, nil
}

// Set stores a resolved location for a raw location text. Failures are
// logged and swallowed.
func (c *AliasCache) Set(ctx context.Context, rawText string, loc *models.Location) {
	if c == nil {
		return
	}

	data, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, aliasKey(rawText), data, c.ttl).Err(); err != nil {
		c.logger.Debug("Alias cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func aliasKey(rawText string) string {
	return fmt.Sprintf("location:alias:%s", rawText)
}
