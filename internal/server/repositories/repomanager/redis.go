package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/documents"
	"github.com/redis/go-redis/v9"
)

type RedisRepositoryManager struct {
	client *redis.Client
	prefix string
}

func NewRedisRepositoryManager(addr, prefix string) *RedisRepositoryManager {
	return &RedisRepositoryManager{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (m *RedisRepositoryManager) Documents() documents.Repository {
	return documents.NewRedisRepository(m.client, m.prefix)
}

func (m *RedisRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisRepositoryManager) Close() error {
	return m.client.Close()
}
