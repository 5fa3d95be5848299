package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseRepository runs the behaviour every backend shares.
func exerciseRepository(t *testing.T, r Repository) {
	t.Helper()
	ctx := context.Background()

	got, err := r.Get(ctx, "tours/TUR-AB23")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, r.Put(ctx, "tours/TUR-AB23", []byte(`{"ts":1}`)))
	require.NoError(t, r.Put(ctx, "tours/TUR-CD45", []byte(`{"ts":7}`)))
	require.NoError(t, r.Put(ctx, "tours/TUR-AB23", []byte(`{"ts":2}`)))

	got, err = r.Get(ctx, "tours/TUR-AB23")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ts":2}`, string(got))

	require.NoError(t, r.Delete(ctx, "tours/TUR-AB23"))
	require.NoError(t, r.Delete(ctx, "tours/TUR-AB23"))

	got, err = r.Get(ctx, "tours/TUR-AB23")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.Get(ctx, "tours/TUR-CD45")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ts":7}`, string(got))
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemoryRepository())
}

func TestMemoryRepository_CopiesBodies(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	body := []byte(`{"ts":1}`)
	require.NoError(t, r.Put(ctx, "p", body))
	body[6] = '9'

	got, err := r.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ts":1}`, string(got))

	got[6] = '8'
	again, _ := r.Get(ctx, "p")
	assert.Equal(t, `{"ts":1}`, string(again))
}
