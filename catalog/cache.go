package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get for absent entries.
var ErrCacheMiss = errors.New("catalog: cache miss")

// Cache stores products by id.
type Cache interface {
	Get(ctx context.Context, id string) (Product, error)
	Set(ctx context.Context, p Product) error
}

// RedisCache keeps products as JSON with a jittered TTL so entries written together
// do not expire together.
type RedisCache struct {
	client  redis.UniversalClient
	prefix  string
	baseTTL time.Duration
	jitter  time.Duration
}

// NewRedisCache returns a cache with baseTTL plus up to jitter extra lifetime.
func NewRedisCache(client redis.UniversalClient, prefix string, baseTTL, jitter time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "product"
	}
	if baseTTL <= 0 {
		baseTTL = 15 * time.Minute
	}
	return &RedisCache{client: client, prefix: prefix, baseTTL: baseTTL, jitter: jitter}
}

func (r *RedisCache) key(id string) string {
	return r.prefix + ":" + id
}

func (r *RedisCache) Get(ctx context.Context, id string) (Product, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Product{}, ErrCacheMiss
	}
	if err != nil {
		return Product{}, fmt.Errorf("catalog: redis get: %w", err)
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return Product{}, fmt.Errorf("catalog: decode cached product: %w", err)
	}
	return p, nil
}

func (r *RedisCache) Set(ctx context.Context, p Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ttl := r.baseTTL
	if r.jitter > 0 {
		ttl += rand.N(r.jitter)
	}
	if err := r.client.Set(ctx, r.key(p.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("catalog: redis set: %w", err)
	}
	return nil
}
