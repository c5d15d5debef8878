// Package cache stores rendered public menus in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_menu_backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "qrmenu:menu"

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Del(context.Context, ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// MenuCache keeps rendered menus per QR code and minute of day.
type MenuCache struct {
	store  cmdable
	raw    *redis.Client
	prefix string
	ttl    time.Duration
}

// New connects to Redis using cfg and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*MenuCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	c := newMenuCache(raw, cfg.KeyPrefix, cfg.MenuCacheTTL)
	c.raw = raw
	return c, nil
}

func newMenuCache(store cmdable, prefix string, ttl time.Duration) *MenuCache {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &MenuCache{store: store, prefix: prefix, ttl: ttl}
}

// Key builds the cache key for a QR code at a wall-clock minute.
func (c *MenuCache) Key(code string, at time.Time) string {
	return fmt.Sprintf("%s:%s:%s", c.prefix, code, at.Format("15:04"))
}

// Get returns the cached payload; ok is false on a miss.
func (c *MenuCache) Get(ctx context.Context, code string, at time.Time) ([]byte, bool, error) {
	val, err := c.store.Get(ctx, c.Key(code, at)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("menu cache get: %w", err)
	}
	return val, true, nil
}

// Set stores payload for the configured TTL.
func (c *MenuCache) Set(ctx context.Context, code string, at time.Time, payload []byte) error {
	if err := c.store.Set(ctx, c.Key(code, at), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("menu cache set: %w", err)
	}
	return nil
}

const invalidateScanCount = 100

// Invalidate drops every cached menu under the prefix, for all codes and minutes.
func (c *MenuCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.store.Scan(ctx, cursor, c.prefix+":*", invalidateScanCount).Result()
		if err != nil {
			return fmt.Errorf("menu cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.store.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("menu cache invalidate: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks Redis connectivity.
func (c *MenuCache) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *MenuCache) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
