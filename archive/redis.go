package archive

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore records each run as a hash.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a store from a redis:// URL. It does not connect until the first
// Record.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return &RedisStore{redis: redis.NewClient(opts)}, nil
}

func (r *RedisStore) DSN() string {
	return fmt.Sprintf("redis://%s/%d", r.redis.Options().Addr, r.redis.Options().DB)
}

func (r *RedisStore) Record(ctx context.Context, key string, fields map[string]string) error {
	_, err := r.redis.HSet(ctx, key, fields).Result()
	return err
}

func (r *RedisStore) Close() error {
	return r.redis.Close()
}
