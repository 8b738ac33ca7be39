//go:build wireinject

package bootstrap

import (
	"context"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideBackend,
	ProvideCacheStore,
	ProvideRegistry,
	ProvideMetrics,
)

// InitFactory builds the unit-of-work Factory + Cleanup.
func InitFactory(ctx context.Context) (*Factory, func(), error) {
	wire.Build(
		infraSet,
		NewFactory,
	)
	return nil, nil, nil
}
