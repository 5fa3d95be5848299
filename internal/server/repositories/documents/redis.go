package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each document as a plain string value under
// prefix+path.
type RedisRepository struct {
	client redis.Cmdable
	prefix string
}

var _ Repository = (*RedisRepository)(nil)

func NewRedisRepository(client redis.Cmdable, prefix string) *RedisRepository {
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(path string) string {
	return r.prefix + path
}

func (r *RedisRepository) Get(ctx context.Context, path string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return b, nil
}

func (r *RedisRepository) Put(ctx context.Context, path string, body []byte) error {
	if err := r.client.Set(ctx, r.key(path), body, 0).Err(); err != nil {
		return fmt.Errorf("failed to set document: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, path string) error {
	if err := r.client.Del(ctx, r.key(path)).Err(); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
