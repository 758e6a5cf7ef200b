package credential

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps values as plain string keys under prefix.
type Redis struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedis returns a Redis store. ttl <= 0 keeps values until deleted.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = "credential"
	}
	return &Redis{redis: client, prefix: prefix, ttl: ttl}
}

func (r *Redis) key(k string) string {
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.redis.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("credential: redis get: %w", err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("credential: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("credential: redis del: %w", err)
	}
	return nil
}
