package cache

import (
	"context"
	"errors"
	"fmt"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ FeaturedCache = (*RedisCache)(nil)

// RedisCache keeps the snapshot under a single Redis key.
type RedisCache struct {
	client redis.Cmdable
	key    string
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, key: FeaturedKey}
}

func (c *RedisCache) Get(ctx context.Context) ([]byte, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%w: get %s: %w", catalogerrors.ErrCacheUnavailable, c.key, err)
	}
	return data, nil
}

// Set writes the snapshot without expiration.
func (c *RedisCache) Set(ctx context.Context, snapshot []byte) error {
	if err := c.client.Set(ctx, c.key, snapshot, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", catalogerrors.ErrCacheUnavailable, c.key, err)
	}
	return nil
}
