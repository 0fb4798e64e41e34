package di

import (
	"fmt"

	"SigBoard/internal/auth"
	"SigBoard/internal/backend"
	"SigBoard/internal/handler/api"
	"SigBoard/internal/proxy"
	"SigBoard/internal/stream"
	"SigBoard/internal/usecase"
	"SigBoard/pkg/cache"
	"SigBoard/pkg/config"
	xhttp "SigBoard/pkg/http"
	"SigBoard/pkg/kafka"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"
	"SigBoard/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New()
}

// ProvideCache selects Redis when configured, in-process memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Redis {
		return cache.NewMemoryCache(), nil
	}
	c, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Addr,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, nil
}

// ProvideKafkaProducer creates the event producer, or nil when eventing is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*kafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := kafka.NewProducer(kafka.WithBrokers(cfg.Events.Brokers))
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideGuard creates the session guard.
func ProvideGuard() *auth.Guard {
	return auth.NewGuard()
}

// ProvideAuthHandler creates the login/check handler.
func ProvideAuthHandler(cfg *config.Config, guard *auth.Guard, l *logger.Logger, m *metrics.Recorder) *auth.Handler {
	return auth.NewHandler(guard, cfg.Auth.Password, cfg.Auth.CookieMaxAge, l, m)
}

// ProvideForwarder creates the backend proxy forwarder.
func ProvideForwarder(cfg *config.Config, l *logger.Logger, m *metrics.Recorder) *proxy.Forwarder {
	return proxy.NewForwarder(cfg.Backend.BaseURL, cfg.Backend.Timeout, l, m)
}

// ProvideBackendClient creates the typed backend API client.
func ProvideBackendClient(cfg *config.Config) *backend.Client {
	return backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
}

// ProvideHub creates the WebSocket hub.
func ProvideHub(l *logger.Logger, m *metrics.Recorder) *stream.Hub {
	return stream.NewHub(l, m)
}

// ProvidePoller creates the snapshot poller with cache write-through,
// broadcasting and optional event publishing wired in.
func ProvidePoller(
	cfg *config.Config,
	client *backend.Client,
	cacheSvc cache.Service,
	hub *stream.Hub,
	producer *kafka.Producer,
	l *logger.Logger,
	m *metrics.Recorder,
) *usecase.SnapshotPoller {
	opts := []usecase.PollerOption{
		usecase.WithCache(cacheSvc, cfg.Cache.TTL),
		usecase.WithBroadcaster(hub),
	}
	if producer != nil {
		opts = append(opts, usecase.WithNotifier(
			usecase.NewSignalChangeNotifier(producer, cfg.Events.Topic, l),
		))
	}
	return usecase.NewSnapshotPoller(client, cfg.Backend.PollInterval, l, m, opts...)
}

// ProvideHandler assembles the route handler.
func ProvideHandler(
	l *logger.Logger,
	guard *auth.Guard,
	authHandler *auth.Handler,
	forwarder *proxy.Forwarder,
	poller *usecase.SnapshotPoller,
	hub *stream.Hub,
) xhttp.Handler {
	return api.NewDashboardHandler(l, guard, authHandler, forwarder, poller, hub)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	handler xhttp.Handler,
	poller *usecase.SnapshotPoller,
	hub *stream.Hub,
	cacheSvc cache.Service,
	producer *kafka.Producer,
) *server.App {
	return server.New(cfg, l, handler, poller, hub, cacheSvc, producer)
}
