package documents

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRepository(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	exerciseRepository(t, NewRedisRepository(client, "tourcheck:"))
}

func TestRedisRepository_UsesPrefix(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedisRepository(client, "tc:")
	require.NoError(t, r.Put(context.Background(), "tours/TUR-AB23", []byte(`{"ts":3}`)))

	v, err := s.Get("tc:tours/TUR-AB23")
	require.NoError(t, err)
	assert.Equal(t, `{"ts":3}`, v)
}

func TestRedisRepository_ServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	s.Close()

	r := NewRedisRepository(client, "")
	_, err := r.Get(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get document")

	require.Error(t, r.Put(context.Background(), "p", []byte(`{}`)))
}
