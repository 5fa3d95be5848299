package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_ActiveCode(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyActiveCode, []byte("TUR-AB23")))

	v, err := r.Get(ctx, KeyActiveCode)
	require.NoError(t, err)
	assert.Equal(t, []byte("TUR-AB23"), v)
}

func TestGet_Absent_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), KeyHidden)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestSet_UpsertOverwrites(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyHidden, []byte("0")))
	require.NoError(t, r.Set(ctx, KeyHidden, []byte("1")))

	v, err := r.Get(ctx, KeyHidden)
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)
}

func TestSet_NilStoredAsEmpty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyListNames, nil))

	v, err := r.Get(ctx, KeyListNames)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Empty(t, v)
}

func TestDelete_IsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyActiveCode, []byte("TUR-AB23")))
	require.NoError(t, r.Delete(ctx, KeyActiveCode))
	require.NoError(t, r.Delete(ctx, KeyActiveCode))

	v, err := r.Get(ctx, KeyActiveCode)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestClosedDB_ErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	err = r.Set(ctx, "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")

	err = r.Delete(ctx, "k")
	require.ErrorContains(t, err, "failed to delete metadata[k]")
}
