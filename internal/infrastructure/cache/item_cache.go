package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/infrastructure/config"
)

const defaultItemTTL = 5 * time.Minute

// ItemCache is a read-through Redis cache in front of an item repository.
// Items are immutable for the duration of a movement transaction, so a short
// TTL is safe. Redis failures degrade to the underlying repository with a
// warning; the cache never turns a lookup into an error.
type ItemCache struct {
	inner      catalog.ItemRepository
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// ItemCacheOption is a functional option for configuring the cache
type ItemCacheOption func(*ItemCache)

// WithTTL sets the cache entry lifetime
func WithTTL(ttl time.Duration) ItemCacheOption {
	return func(c *ItemCache) {
		c.ttl = ttl
	}
}

// WithLogger sets the logger for the cache
func WithLogger(logger *zap.Logger) ItemCacheOption {
	return func(c *ItemCache) {
		c.logger = logger
	}
}

// NewItemCache creates a read-through item cache with its own Redis client
func NewItemCache(inner catalog.ItemRepository, cfg config.RedisConfig, opts ...ItemCacheOption) (*ItemCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c := &ItemCache{
		inner:      inner,
		client:     client,
		ownsClient: true,
		ttl:        defaultItemTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewItemCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewItemCacheWithClient(inner catalog.ItemRepository, client *redis.Client, opts ...ItemCacheOption) *ItemCache {
	c := &ItemCache{
		inner:      inner,
		client:     client,
		ownsClient: false,
		ttl:        defaultItemTTL,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func idCacheKey(id uuid.UUID) string {
	return "item:id:" + id.String()
}

func codeCacheKey(code string) string {
	return "item:code:" + code
}

// FindByID finds an item by ID, consulting the cache first
func (c *ItemCache) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	if item := c.lookup(ctx, idCacheKey(id)); item != nil {
		return item, nil
	}

	item, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, item)
	return item, nil
}

// FindByCode finds an item by code, consulting the cache first
func (c *ItemCache) FindByCode(ctx context.Context, code string) (*catalog.Item, error) {
	if item := c.lookup(ctx, codeCacheKey(code)); item != nil {
		return item, nil
	}

	item, err := c.inner.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c.store(ctx, item)
	return item, nil
}

// Invalidate drops the cache entries for an item after catalog maintenance
func (c *ItemCache) Invalidate(ctx context.Context, item *catalog.Item) {
	if err := c.client.Del(ctx, idCacheKey(item.ID), codeCacheKey(item.Code)).Err(); err != nil {
		c.logger.Warn("item cache invalidation failed",
			zap.String("item", item.Code),
			zap.Error(err))
	}
}

// Close releases the Redis client if this cache owns it
func (c *ItemCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

func (c *ItemCache) lookup(ctx context.Context, key string) *catalog.Item {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("item cache read failed, falling back to repository",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil
	}

	var item catalog.Item
	if err := json.Unmarshal(data, &item); err != nil {
		c.logger.Warn("item cache entry corrupt, dropping",
			zap.String("key", key),
			zap.Error(err))
		c.client.Del(ctx, key)
		return nil
	}
	return &item
}

func (c *ItemCache) store(ctx context.Context, item *catalog.Item) {
	data, err := json.Marshal(item)
	if err != nil {
		c.logger.Warn("item cache marshal failed",
			zap.String("item", item.Code),
			zap.Error(err))
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, idCacheKey(item.ID), data, c.ttl)
	pipe.Set(ctx, codeCacheKey(item.Code), data, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("item cache write failed",
			zap.String("item", item.Code),
			zap.Error(err))
	}
}
