//go:build wireinject
// +build wireinject

package di

import (
	"SigBoard/pkg/config"
	"SigBoard/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideCache,
		ProvideKafkaProducer,

		// Auth and proxy
		ProvideGuard,
		ProvideAuthHandler,
		ProvideForwarder,

		// Dashboard client
		ProvideBackendClient,
		ProvideHub,
		ProvidePoller,

		// HTTP surface and application server
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
