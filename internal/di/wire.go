//go:build wireinject
// +build wireinject

package di

import (
	"sweepguard/pkg/config"
	"sweepguard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideTickBuffer,
		ProvideTickStream,

		// Repositories
		ProvideSnapshotProvider,
		ProvideGateway,
		ProvideJournal,
		ProvidePublisher,
		ProvideConsumedStore,

		// Use cases
		ProvideAggregator,
		ProvideExecutor,
		ProvideLoop,

		// HTTP
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
