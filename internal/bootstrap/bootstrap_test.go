package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ormcore/internal/config"
	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/cache"
)

func TestInitFactory_SQLiteWithLRUCache(t *testing.T) {
	t.Setenv("STORAGE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "boot.db"))
	t.Setenv("CACHE_BACKEND", "lru")
	t.Setenv("CACHE_SIZE", "8")

	f, cleanup, err := InitFactory(context.Background())
	require.NoError(t, err)
	defer cleanup()
	ctx := context.Background()
	require.NoError(t, f.Backend.Ping(ctx))

	s := f.New()
	a := &domain.Author{Name: "Ada"}
	require.NoError(t, s.ScheduleForInsertion(a))
	require.NoError(t, s.Commit(ctx))

	_, ok, err := f.Cache.Get(ctx, a.CacheKey())
	require.NoError(t, err)
	require.True(t, ok)

	other := f.New()
	require.NotSame(t, s.UnitOfWork, other.UnitOfWork)
	got, err := other.Authors.Find(ctx, a.ID)
	require.NoError(t, err)
	require.NotSame(t, a, got)
	require.Equal(t, a.Name, got.Name)

	families, err := f.Registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)
}

func TestProvideBackend_Errors(t *testing.T) {
	t.Parallel()
	log := ProvideLogger()
	_, cleanup, err := ProvideBackend(context.Background(), log, config.Config{Storage: "pg"})
	require.ErrorIs(t, err, ErrMissingDBURL)
	cleanup()

	_, _, err = ProvideBackend(context.Background(), log, config.Config{Storage: "mongo"})
	require.ErrorIs(t, err, ErrUnknownStorage)
}

func TestProvideCacheStore(t *testing.T) {
	t.Parallel()
	store, _, err := ProvideCacheStore(config.Config{CacheBackend: "none"})
	require.NoError(t, err)
	require.IsType(t, cache.NoopStore{}, store)

	store, _, err = ProvideCacheStore(config.Config{CacheBackend: "lru", CacheSize: 4})
	require.NoError(t, err)
	require.IsType(t, &cache.LRUStore{}, store)

	store, cleanup, err := ProvideCacheStore(config.Config{CacheBackend: "redis", RedisAddr: "localhost:0"})
	require.NoError(t, err)
	require.IsType(t, &cache.RedisStore{}, store)
	cleanup()

	_, _, err = ProvideCacheStore(config.Config{CacheBackend: "memcached"})
	require.ErrorIs(t, err, ErrUnknownCache)
}
