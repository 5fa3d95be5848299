package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/tourcheck/internal/client/client"
	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRawStore(t *testing.T) (LocalStore, *sql.DB) {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "tourcheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewLocalStore(client.NewRepositories(db), logging.Nop()), db
}

func TestLocalStore_SaveLoad(t *testing.T) {
	s, _ := newRawStore(t)
	ctx := context.Background()

	_, ok := s.Load(ctx, "TUR-AB23")
	assert.False(t, ok)

	in := Snapshot{
		Meta:       models.TourMeta{Code: "TUR-AB23", Agency: "Markella", Group: "Efes", DateKey: "2026-07-01", TS: 1},
		Passengers: []models.Passenger{{ID: "1", Name: "Ali Veli", Checked: true}},
		TS:         7,
	}
	require.NoError(t, s.Save(ctx, in))

	got, ok := s.Load(ctx, "TUR-AB23")
	require.True(t, ok)
	assert.Equal(t, in, got)
}

func TestLocalStore_NilPassengersSavedAsEmpty(t *testing.T) {
	s, db := newRawStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Snapshot{Meta: models.TourMeta{Code: "TUR-AB23"}}))

	var raw string
	require.NoError(t, db.QueryRow(`SELECT passengers FROM tours WHERE code = ?`, "TUR-AB23").Scan(&raw))
	assert.Equal(t, "[]", raw)
}

func TestLocalStore_CorruptedSnapshotFailsSafe(t *testing.T) {
	s, db := newRawStore(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO tours (code, meta, passengers, ts) VALUES ('TUR-AB23', '{broken', '[{"id":', 99)`)
	require.NoError(t, err)

	got, ok := s.Load(ctx, "TUR-AB23")
	require.True(t, ok)
	assert.Equal(t, models.TourMeta{Code: "TUR-AB23"}, got.Meta)
	assert.NotNil(t, got.Passengers)
	assert.Empty(t, got.Passengers)
	assert.Zero(t, got.TS, "corrupted list must not outrank the remote copy")

	index, err := s.Index(ctx)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, "TUR-AB23", index[0].Code)
	assert.Equal(t, int64(99), index[0].TS)
}

func TestLocalStore_IndexOrder(t *testing.T) {
	s, _ := newRawStore(t)
	ctx := context.Background()

	for code, ts := range map[string]int64{"TUR-AAAA": 1, "TUR-BBBB": 3, "TUR-CCCC": 2} {
		require.NoError(t, s.Save(ctx, Snapshot{Meta: models.TourMeta{Code: code, Agency: "Markella"}, TS: ts}))
	}

	index, err := s.Index(ctx)
	require.NoError(t, err)
	require.Len(t, index, 3)
	assert.Equal(t, "TUR-BBBB", index[0].Code)
	assert.Equal(t, int64(3), index[0].TS)
	assert.Equal(t, "Markella", index[0].Agency)
	assert.Equal(t, "TUR-AAAA", index[2].Code)

	require.NoError(t, s.Delete(ctx, "TUR-BBBB"))
	index, err = s.Index(ctx)
	require.NoError(t, err)
	assert.Len(t, index, 2)
}

func TestLocalStore_ActiveCode(t *testing.T) {
	s, _ := newRawStore(t)
	ctx := context.Background()

	assert.Equal(t, "", s.ActiveCode(ctx))
	require.NoError(t, s.SetActiveCode(ctx, "TUR-AB23"))
	assert.Equal(t, "TUR-AB23", s.ActiveCode(ctx))
	require.NoError(t, s.SetActiveCode(ctx, ""))
	assert.Equal(t, "", s.ActiveCode(ctx))
}

func TestLocalStore_DeleteClearsActiveCode(t *testing.T) {
	s, _ := newRawStore(t)
	ctx := context.Background()

	for _, code := range []string{"TUR-AAAA", "TUR-BBBB"} {
		require.NoError(t, s.Save(ctx, Snapshot{Meta: models.TourMeta{Code: code}, TS: 1}))
	}
	require.NoError(t, s.SetActiveCode(ctx, "TUR-AAAA"))

	require.NoError(t, s.Delete(ctx, "TUR-BBBB"))
	assert.Equal(t, "TUR-AAAA", s.ActiveCode(ctx))

	require.NoError(t, s.Delete(ctx, "TUR-AAAA"))
	assert.Equal(t, "", s.ActiveCode(ctx))
	_, ok := s.Load(ctx, "TUR-AAAA")
	assert.False(t, ok)
}

func TestLocalStore_CorruptedListNames(t *testing.T) {
	s, db := newRawStore(t)
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('list_names', 'not json')`)
	require.NoError(t, err)

	assert.Nil(t, s.ListNames(ctx))
}

func TestLocalStore_ReadErrorsFailSafe(t *testing.T) {
	s, db := newRawStore(t)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, ok := s.Load(ctx, "TUR-AB23")
	assert.False(t, ok)
	assert.Equal(t, "", s.ActiveCode(ctx))
	assert.False(t, s.Hidden(ctx))
	assert.Nil(t, s.ListNames(ctx))
	require.Error(t, s.Save(ctx, Snapshot{Meta: models.TourMeta{Code: "TUR-AB23"}}))
}
