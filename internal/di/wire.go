//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideMarketData,
		ProvideResponseCache,

		// Pipeline
		ProvideGroups,
		ProvideSeriesSource,
		ProvideIndicatorEngine,
		ProvideDecisionEngine,
		ProvideGroupPipeline,
		ProvideHistory,
		ProvideSnapshotPublisher,
		ProvideSnapshotAggregator,
		ProvideRefresher,

		// Transport
		ProvideStreamHub,
		ProvideRateLimiter,
		ProvideSnapshotHandler,
		ProvideStreamHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
