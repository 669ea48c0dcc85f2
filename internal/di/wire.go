//go:build wireinject
// +build wireinject

package di

import (
	"PriceWise/pkg/config"
	"PriceWise/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,

		// Repositories
		ProvideAnalysisStore,
		ProvideAnalysisPublisher,
		ProvideCompetitorCache,
		ProvideSources,
		ProvideJobQueue,

		// Use cases
		ProvideSupplier,
		ProvideEngine,
		ProvidePricingService,
		ProvideAnalysisJob,
		ProvideCompetitorFeedHandler,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
