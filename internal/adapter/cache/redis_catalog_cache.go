package cache

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/Rizki-Rahmadani/management-product/internal/entity"
	"github.com/Rizki-Rahmadani/management-product/internal/usecase"
	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:products"

// RedisCatalogCache holds the full product list as one JSON blob. Writes
// and restocks invalidate it; otherwise it expires at the TTL.
type RedisCatalogCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCatalogCache(rdb *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCatalogCache) Get(ctx context.Context) ([]domain.Product, bool, error) {
	raw, err := c.rdb.Get(ctx, catalogKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		// Treat a corrupt entry as a miss; it gets rewritten.
		return nil, false, nil
	}
	return products, true, nil
}

func (c *RedisCatalogCache) Set(ctx context.Context, products []domain.Product) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, catalogKey, raw, c.ttl).Err()
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogKey).Err()
}

var _ usecase.CatalogCache = (*RedisCatalogCache)(nil)
