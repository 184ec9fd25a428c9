package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appinv "github.com/shopstock/backend/internal/application/inventory"
)

const defaultSummaryTTL = 5 * time.Minute

// RedisSummaryCache caches product summaries in Redis. Suitable for
// deployments where several instances share the read load; entries are
// invalidated on every stock mutation.
type RedisSummaryCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisSummaryCache creates a new Redis-backed summary cache
func NewRedisSummaryCache(cfg RedisConfig, ttl time.Duration, logger *zap.Logger) (*RedisSummaryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: "product:summary:",
		ttl:       ttl,
		logger:    logger,
	}, nil
}

// NewRedisSummaryCacheWithClient creates a cache with an existing Redis client.
// Useful for testing or sharing a client across components.
func NewRedisSummaryCacheWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSummaryCache {
	if ttl <= 0 {
		ttl = defaultSummaryTTL
	}
	return &RedisSummaryCache{
		client:    client,
		keyPrefix: "product:summary:",
		ttl:       ttl,
		logger:    logger,
	}
}

// GetProduct fetches a cached product summary
func (c *RedisSummaryCache) GetProduct(ctx context.Context, productID uuid.UUID) (*appinv.ProductResponse, bool) {
	data, err := c.client.Get(ctx, c.keyPrefix+productID.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("summary cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var summary appinv.ProductResponse
	if err := json.Unmarshal(data, &summary); err != nil {
		c.logger.Warn("summary cache entry corrupt, dropping",
			zap.String("product_id", productID.String()), zap.Error(err))
		c.client.Del(ctx, c.keyPrefix+productID.String())
		return nil, false
	}
	return &summary, true
}

// SetProduct stores a product summary with the configured TTL
func (c *RedisSummaryCache) SetProduct(ctx context.Context, summary *appinv.ProductResponse) {
	data, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn("summary cache marshal failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, c.keyPrefix+summary.ID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", zap.Error(err))
	}
}

// Invalidate removes a product summary from the cache
func (c *RedisSummaryCache) Invalidate(ctx context.Context, productID uuid.UUID) {
	if err := c.client.Del(ctx, c.keyPrefix+productID.String()).Err(); err != nil {
		c.logger.Warn("summary cache invalidation failed",
			zap.String("product_id", productID.String()), zap.Error(err))
	}
}

// Ensure RedisSummaryCache implements SummaryCache
var _ appinv.SummaryCache = (*RedisSummaryCache)(nil)
