package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ormcore/internal/config"
	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/cache"
	"ormcore/internal/infrastructure/logx"
	"ormcore/internal/infrastructure/metrics"
	"ormcore/internal/infrastructure/pg"
	"ormcore/internal/infrastructure/sqlite"
	"ormcore/internal/orm"
)

var (
	ErrMissingDBURL   = errors.New("DATABASE_URL is required for STORAGE=pg")
	ErrUnknownStorage = errors.New("unknown STORAGE")
	ErrUnknownCache   = errors.New("unknown CACHE_BACKEND")
)

// Repos are the finders bound to one unit of work.
type Repos struct {
	Authors domain.AuthorFinder
	Books   domain.BookFinder
	Reviews domain.ReviewFinder
}

// Backend is an opened store: its Connection, a way to bind mappers and
// generators onto a fresh unit of work, and a health check.
type Backend struct {
	Name string
	Conn orm.Connection
	Bind func(u *orm.UnitOfWork, wrap func(orm.DataMapper) orm.DataMapper) Repos
	Ping func(ctx context.Context) error
}

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() config.Config { return config.Load() }

func ProvideBackend(ctx context.Context, log *zap.Logger, cfg config.Config) (Backend, func(), error) {
	switch cfg.Storage {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Backend{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing sqlite")
			_ = db.Close()
		}
		return Backend{
			Name: "sqlite",
			Conn: sqlite.NewConn(db),
			Bind: func(u *orm.UnitOfWork, wrap func(orm.DataMapper) orm.DataMapper) Repos {
				ms := sqlite.Bind(u, db, wrap)
				return Repos{Authors: ms.Authors, Books: ms.Books, Reviews: ms.Reviews}
			},
			Ping: db.Ping,
		}, cleanup, nil
	case "pg":
		if cfg.DatabaseURL == "" {
			return Backend{}, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Backend{}, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return Backend{}, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return Backend{
			Name: "pg",
			Conn: pg.NewConn(db),
			Bind: func(u *orm.UnitOfWork, wrap func(orm.DataMapper) orm.DataMapper) Repos {
				ms := pg.Bind(u, db, wrap)
				return Repos{Authors: ms.Authors, Books: ms.Books, Reviews: ms.Reviews}
			},
			Ping: db.Ping,
		}, cleanup, nil
	default:
		return Backend{}, func() {}, fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.Storage)
	}
}

// ProvideCacheStore builds the post-commit cache target. "none" yields a
// NoopStore, so mappers are decorated the same way in every setup.
func ProvideCacheStore(cfg config.Config) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case "", "none":
		return cache.NoopStore{}, func() {}, nil
	case "lru":
		store, err := cache.NewLRUStore(cfg.CacheSize)
		if err != nil {
			return nil, func() {}, fmt.Errorf("lru cache: %w", err)
		}
		return store, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return cache.NewRedisStore(client, cfg.CacheTTL), func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("%w: %q", ErrUnknownCache, cfg.CacheBackend)
	}
}

func ProvideRegistry() *prometheus.Registry { return prometheus.NewRegistry() }

func ProvideMetrics(cfg config.Config, reg *prometheus.Registry) (*metrics.Collector, error) {
	c := metrics.NewCollector(cfg.MetricsNamespace)
	if err := c.Register(reg); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	return c, nil
}
