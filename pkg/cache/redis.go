package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// genKey holds the invalidation counter, under the configured key prefix.
const genKey = "generation"

// setAtScript stores ARGV[2] under KEYS[2] only while the counter in KEYS[1]
// still equals ARGV[1]. A missing counter reads as 0.
var setAtScript = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen ~= ARGV[1] then
  return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// RedisCache stores entries in Redis so that several server replicas share
// one cache and one invalidation.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// NewRedisCache creates a cache over a new client. Keys are namespaced with
// keyPrefix.
func NewRedisCache(addr, password string, db int, ttl time.Duration, keyPrefix string) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: client, ttl: ttl, keyPrefix: keyPrefix}, nil
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the value for key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return b, true, nil
}

// Set stores value with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Generation returns the shared invalidation counter.
func (c *RedisCache) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Get(ctx, c.keyPrefix+genKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation: %w", err)
	}
	return gen, nil
}

// SetAt stores value unless another replica or request invalidated the
// cache after gen was read.
func (c *RedisCache) SetAt(ctx context.Context, key string, value []byte, gen uint64) (bool, error) {
	keys := []string{c.keyPrefix + genKey, c.keyPrefix + key}
	stored, err := setAtScript.Run(ctx, c.client, keys,
		strconv.FormatUint(gen, 10), value, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis set: %w", err)
	}
	return stored == 1, nil
}

func (c *RedisCache) bump(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.keyPrefix+genKey).Err(); err != nil {
		return fmt.Errorf("redis incr generation: %w", err)
	}
	return nil
}

// Invalidate deletes a key.
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.bump(ctx); err != nil {
		return err
	}
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// InvalidatePrefix deletes every key starting with prefix using SCAN.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if err := c.bump(ctx); err != nil {
		return err
	}
	iter := c.client.Scan(ctx, 0, c.keyPrefix+prefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
	}
	return nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
