package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Domenick1991/travelstore/config"
	"github.com/Domenick1991/travelstore/internal/session"
)

// RedisSessionRepository stores each client's entries in one hash.
type RedisSessionRepository struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func (r *RedisSessionRepository) Load(ctx context.Context, clientID string) (map[string]string, error) {
	entries, err := r.client.HGetAll(ctx, sessionKey(clientID)).Result()
	if err != nil {
		if err == redis.Nil {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return entries, nil
}

// Save drops the old hash and writes the new one in a MULTI block so readers
// never see a mix of both.
func (r *RedisSessionRepository) Save(ctx context.Context, clientID string, entries map[string]string) error {
	key := sessionKey(clientID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entries) > 0 {
			values := make(map[string]any, len(entries))
			for k, v := range entries {
				values[k] = v
			}
			pipe.HSet(ctx, key, values)
		}
		return nil
	})
	return err
}

func (r *RedisSessionRepository) Delete(ctx context.Context, clientID string) error {
	return r.client.Del(ctx, sessionKey(clientID)).Err()
}

func sessionKey(clientID string) string {
	return fmt.Sprintf("session:client:%s", clientID)
}

var _ session.Storage = (*RedisSessionRepository)(nil)
