//go:build wireinject
// +build wireinject

package di

import (
	"RallyScan/pkg/config"
	"RallyScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideCacheService,
		ProvideCachedFeatureStore,
		ProvideFeatureStore,
		ProvideEventStore,
		ProvideEventPublisher,

		// Detection and use cases
		ProvideDetector,
		ProvideScanPipeline,
		ProvideEventProcessor,
		ProvideScanQueue,
		ProvideScanScheduler,
		ProvideKafkaScanHandler,
		ProvideCandlesUseCase,
		ProvideSimRunner,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
