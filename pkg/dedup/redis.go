package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig configures the Redis link cache
type RedisConfig struct {
	Addr     string // e.g. localhost:6379
	Password string
	DB       int
	Prefix   string // key prefix, defaults to "news:link:"
	TTL      time.Duration
}

// CachePrefix namespaces cache keys to one store. kind names the backend and
// identity its location, for example a DSN plus table name.
func CachePrefix(kind, identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return fmt.Sprintf("news:link:%s:%s:", kind, hex.EncodeToString(sum[:8]))
}

// RedisLinkCache stores one key per known link.
type RedisLinkCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisLinkCache connects to Redis and verifies the connection
func NewRedisLinkCache(ctx context.Context, cfg RedisConfig) (*RedisLinkCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "news:link:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisLinkCache{client: client, prefix: prefix, ttl: cfg.TTL}, nil
}

// Seen reports whether link was marked
func (c *RedisLinkCache) Seen(ctx context.Context, link string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(link)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records link as stored. A zero TTL keeps the key forever.
func (c *RedisLinkCache) Mark(ctx context.Context, link string) error {
	return c.client.Set(ctx, c.key(link), 1, c.ttl).Err()
}

// Close closes the Redis connection
func (c *RedisLinkCache) Close() error {
	return c.client.Close()
}

// key hashes the link so long URLs map to fixed-size keys.
func (c *RedisLinkCache) key(link string) string {
	sum := sha256.Sum256([]byte(link))
	return c.prefix + hex.EncodeToString(sum[:])
}
