//go:build wireinject
// +build wireinject

package di

import (
	"SocialPulse/pkg/config"
	"SocialPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// repositories
		ProvideRecorder,
		ProvideOrderPublisher,

		// services and use cases
		ProvideRegistry,
		ProvideSentiment,
		ProvideEngine,
		ProvidePipeline,
		ProvidePostsHandler,
		ProvideJobQueue,

		ProvideApp,
	)
	return nil, nil
}
