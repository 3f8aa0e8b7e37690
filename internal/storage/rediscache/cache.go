// Package rediscache puts a write-through Redis tier in front of the
// durable basket store. Cache entries are opaque serialized cart blobs; any
// cache failure degrades to durable-store-only operation.
package rediscache

import (
	"context"
	"math/rand"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Cache.Get when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache is the blob cache the repository tier composes with. Implementations
// store opaque serialized values under string keys.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var _ Cache = (*RedisCache)(nil)

// RedisCache implements Cache on a Redis client with a jittered TTL so a
// burst of writes does not expire in one wave.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCache creates a RedisCache with the given base TTL.
func NewRedisCache(client *redis.Client, baseTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, baseTTL: baseTTL}
}

// Get returns the cached blob or ErrMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}
	return data, nil
}

// Set stores the blob with the jittered TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	var jitter time.Duration
	if q := int64(c.baseTTL / 4); q > 0 {
		jitter = time.Duration(rand.Int63n(q))
	}
	if err := c.client.Set(ctx, key, value, c.baseTTL+jitter).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Delete evicts the key. Deleting an absent key is not an error.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis delete")
	}
	return nil
}
