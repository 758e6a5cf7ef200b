package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "sf:login"

// Config tunes the throttle. Zero values take defaults.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	PerIP       bool
	Prefix      string
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}
	return c
}

// Throttle counts failed logins per email and, optionally, per IP.
type Throttle struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *Throttle {
	return &Throttle{redis: client, config: cfg.withDefaults()}
}

// Allow returns ErrRateLimited once either counter has reached MaxAttempts.
func (t *Throttle) Allow(ctx context.Context, email, ip string) error {
	for _, key := range t.keys(email, ip) {
		n, err := t.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if n >= int64(t.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Fail records one failed attempt.
func (t *Throttle) Fail(ctx context.Context, email, ip string) error {
	for _, key := range t.keys(email, ip) {
		n, err := t.redis.Incr(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if n == 1 {
			if err := t.redis.Expire(ctx, key, t.config.Window).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
	}
	return nil
}

// Reset clears the counters after a successful login.
func (t *Throttle) Reset(ctx context.Context, email, ip string) error {
	if err := t.redis.Del(ctx, t.keys(email, ip)...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RetryAfter reports how long the email's window still runs. Zero when no
// window is open.
func (t *Throttle) RetryAfter(ctx context.Context, email string) time.Duration {
	d, err := t.redis.TTL(ctx, t.emailKey(email)).Result()
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func (t *Throttle) emailKey(email string) string {
	return t.config.Prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

func (t *Throttle) keys(email, ip string) []string {
	keys := []string{t.emailKey(email)}
	if t.config.PerIP && ip != "" {
		keys = append(keys, t.config.Prefix+":ip:"+ip)
	}
	return keys
}
