package images

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, destination string) (string, bool, error) {
	value, err := c.client.Get(ctx, imageKey(destination)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, destination, imageURL string) error {
	return c.client.Set(ctx, imageKey(destination), imageURL, c.ttl).Err()
}

func imageKey(destination string) string {
	return "cache:image:" + strings.ToLower(destination)
}

var _ ResultCache = (*RedisCache)(nil)
