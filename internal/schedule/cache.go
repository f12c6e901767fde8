package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"hub/internal/clients/stagebased"
	"hub/internal/platform/metrics"
	"hub/internal/ports"
)

const (
	messagesetsKeyPrefix = "catalog:messagesets:"
	messagesetKeyPrefix  = "catalog:messageset:"
	scheduleKeyPrefix    = "catalog:schedule:"
)

// CachedCatalog is a read-through Redis cache in front of the Subscription
// Service catalog. Redis failures are logged and served from the origin.
type CachedCatalog struct {
	origin  ports.Catalog
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// CacheOption configures a CachedCatalog.
type CacheOption func(*CachedCatalog)

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedCatalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics records hits, misses and errors.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedCatalog) {
		c.metrics = m
	}
}

// NewCachedCatalog wraps origin. A nil client returns origin unchanged.
func NewCachedCatalog(origin ports.Catalog, client redis.Cmdable, ttl time.Duration, opts ...CacheOption) ports.Catalog {
	if client == nil {
		return origin
	}
	c := &CachedCatalog{origin: origin, client: client, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *CachedCatalog) ListMessagesets(ctx context.Context, shortName string) ([]stagebased.Messageset, error) {
	return readThrough(ctx, c, messagesetsKeyPrefix+shortName, func() ([]stagebased.Messageset, error) {
		return c.origin.ListMessagesets(ctx, shortName)
	}, nonEmpty)
}

func (c *CachedCatalog) GetMessageset(ctx context.Context, id int) (*stagebased.Messageset, error) {
	return readThrough(ctx, c, messagesetKeyPrefix+strconv.Itoa(id), func() (*stagebased.Messageset, error) {
		return c.origin.GetMessageset(ctx, id)
	}, nil)
}

func (c *CachedCatalog) GetSchedule(ctx context.Context, id int) (*stagebased.Schedule, error) {
	return readThrough(ctx, c, scheduleKeyPrefix+strconv.Itoa(id), func() (*stagebased.Schedule, error) {
		return c.origin.GetSchedule(ctx, id)
	}, nil)
}

// An empty listing may only mean the messageset is not provisioned yet.
func nonEmpty(sets []stagebased.Messageset) bool {
	return len(sets) > 0
}

// readThrough serves key from Redis or load. Loaded values are cached unless
// cacheable rejects them.
func readThrough[T any](ctx context.Context, c *CachedCatalog, key string, load func() (T, error), cacheable func(T) bool) (T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			c.metrics.IncrementCatalogCache("hit")
			return v, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable catalog cache entry", "key", key)
	case errors.Is(err, redis.Nil):
		c.metrics.IncrementCatalogCache("miss")
	default:
		c.metrics.IncrementCatalogCache("error")
		c.logger.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if cacheable != nil && !cacheable(v) {
		return v, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
	}
	return v, nil
}
