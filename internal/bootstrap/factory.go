package bootstrap

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"ormcore/internal/domain"
	"ormcore/internal/infrastructure/cache"
	"ormcore/internal/infrastructure/logx"
	"ormcore/internal/infrastructure/metrics"
	"ormcore/internal/orm"
)

// Factory hands out one unit of work per request or job. Everything it holds
// is shared; everything New returns is not.
type Factory struct {
	Backend  Backend
	Cache    cache.Store
	Metrics  *metrics.Collector
	Registry *prometheus.Registry

	mapping *orm.Mapping
	log     *zap.Logger
}

func NewFactory(b Backend, store cache.Store, m *metrics.Collector, reg *prometheus.Registry, log *zap.Logger) *Factory {
	return &Factory{
		Backend:  b,
		Cache:    store,
		Metrics:  m,
		Registry: reg,
		mapping:  domain.NewMapping(),
		log:      log,
	}
}

// Session is a unit of work together with the finders bound to it.
type Session struct {
	*orm.UnitOfWork
	Repos
}

func (f *Factory) New() *Session {
	u := orm.NewUnitOfWork(f.Backend.Conn, f.mapping,
		orm.WithLogger(logx.Named("uow").With(zap.String("storage", f.Backend.Name))),
		orm.WithObserver(f.Metrics),
	)
	repos := f.Backend.Bind(u, cache.Wrap(f.Cache, f.log.Named("cache")))
	return &Session{UnitOfWork: u, Repos: repos}
}
