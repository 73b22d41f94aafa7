package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStores(t *testing.T) map[string]Store {
	sqlite, err := OpenSQLite(filepath.Join(t.TempDir(), "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemStore(),
	}
}

func TestStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(ctx, "default")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Save(ctx, "default", []byte(`{"v":1}`)))
			data, err := store.Load(ctx, "default")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"v":1}`), data)

			// Upsert overwrites.
			require.NoError(t, store.Save(ctx, "default", []byte(`{"v":2}`)))
			data, err = store.Load(ctx, "default")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"v":2}`), data)

			// Keys are independent.
			require.NoError(t, store.Save(ctx, "other", []byte(`{}`)))
			data, err = store.Load(ctx, "default")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"v":2}`), data)

			require.NoError(t, store.Clear(ctx, "default"))
			_, err = store.Load(ctx, "default")
			assert.ErrorIs(t, err, ErrNotFound)

			// Clearing a missing key is fine.
			assert.NoError(t, store.Clear(ctx, "default"))
		})
	}
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "profiles.db")

	first, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "default", []byte(`{"kept":true}`)))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()
	data, err := second.Load(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"kept":true}`), data)
}
