package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/redline/internal/config"
)

func implementations(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	cached, err := NewCachedStore(NewMemoryStore(), 2, nil)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sq,
		"cached": cached,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "draft")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put(ctx, "draft", []byte("version: 1\n")))
			require.NoError(t, s.Put(ctx, "notes", []byte("x")))

			doc, err := s.Get(ctx, "draft")
			require.NoError(t, err)
			assert.Equal(t, "draft", doc.Name)
			assert.Equal(t, "version: 1\n", string(doc.Data))
			assert.False(t, doc.UpdatedAt.IsZero())

			require.NoError(t, s.Put(ctx, "draft", []byte("version: 2\n")))
			doc, err = s.Get(ctx, "draft")
			require.NoError(t, err)
			assert.Equal(t, "version: 2\n", string(doc.Data))

			infos, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, infos, 2)
			assert.Equal(t, "draft", infos[0].Name)
			assert.Equal(t, 11, infos[0].Size)
			assert.Equal(t, "notes", infos[1].Name)

			require.NoError(t, s.Delete(ctx, "draft"))
			assert.ErrorIs(t, s.Delete(ctx, "draft"), ErrNotFound)
			_, err = s.Get(ctx, "draft")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.ErrorIs(t, s.Put(ctx, " ", nil), ErrInvalidName)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("abc")
			require.NoError(t, s.Put(ctx, "doc", data))
			data[0] = 'X'

			doc, err := s.Get(ctx, "doc")
			require.NoError(t, err)
			doc.Data[1] = 'Y'

			again, err := s.Get(ctx, "doc")
			require.NoError(t, err)
			assert.Equal(t, "abc", string(again.Data))
		})
	}
}

func TestCachedStore(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStore()
	cs, err := NewCachedStore(backing, 2, nil)
	require.NoError(t, err)

	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, backing.Put(ctx, n, []byte(n)))
	}

	for _, n := range []string{"a", "b", "a", "c", "b"} {
		_, err := cs.Get(ctx, n)
		require.NoError(t, err)
	}
	// a, b miss; a hits; c misses and evicts b; b misses again.
	assert.Equal(t, CacheStats{Hits: 1, Misses: 4}, cs.Stats())
	assert.Equal(t, 2, cs.Len())

	require.NoError(t, cs.Put(ctx, "a", []byte("new")))
	doc, err := cs.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "new", string(doc.Data))

	require.NoError(t, cs.Delete(ctx, "c"))
	_, err = cs.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewCachedStore(backing, 0, nil)
	assert.Error(t, err)
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "kept", []byte("data")))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	doc, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "data", string(doc.Data))
	assert.Equal(t, path, s.Path())
}

func TestOpen(t *testing.T) {
	s, err := Open(config.StoreConfig{Driver: config.DriverMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(config.StoreConfig{
		Driver:    config.DriverSQLite,
		Path:      filepath.Join(t.TempDir(), "x.db"),
		CacheSize: 4,
	}, nil)
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &CachedStore{}, s)

	_, err = Open(config.StoreConfig{Driver: "postgres"}, nil)
	assert.Error(t, err)
}
