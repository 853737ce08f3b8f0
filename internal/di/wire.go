//go:build wireinject
// +build wireinject

package di

import (
	"barflow/pkg/config"
	"barflow/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideHours,
		ProvideTimeframes,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideCandleStore,
		ProvideBarPublisher,
		ProvideLatestCache,

		// Use cases
		ProvideBarBroker,
		ProvideBarProcessor,
		ProvideConsolidatorRun,
		ProvideTickPipeline,
		ProvideKafkaTicksHandler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
