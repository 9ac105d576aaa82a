//go:build wireinject
// +build wireinject

package di

import (
	"FinCast/internal/usecase"
	"FinCast/pkg/config"
	"FinCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogCollector,
		ProvideLogger,
		ProvideCatalogue,

		// Metrics
		ProvidePromRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePostgresClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideSeriesStore,
		ProvideForecastStore,
		ProvideSignalJournal,
		ProvideSignalPublisher,

		// Models and domain services
		ProvideRegistry,
		ProvideEngine,
		ProvideSignalGenerator,

		// Use cases
		ProvideForecastUseCase,
		usecase.NewInsightUseCase,
		ProvideSignalUseCase,

		// Transport
		ProvideHub,
		ProvideHandlers,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
