package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"SigBoard/internal/stream"
	"SigBoard/internal/usecase"
	"SigBoard/pkg/cache"
	"SigBoard/pkg/config"
	xhttp "SigBoard/pkg/http"
	"SigBoard/pkg/kafka"
	applogger "SigBoard/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	poller      *usecase.SnapshotPoller
	hub         *stream.Hub
	cache       cache.Service
	producer    *kafka.Producer
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpHandler xhttp.Handler,
	poller *usecase.SnapshotPoller,
	hub *stream.Hub,
	cacheSvc cache.Service,
	producer *kafka.Producer,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		httpHandler: httpHandler,
		poller:      poller,
		hub:         hub,
		cache:       cacheSvc,
		producer:    producer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.log),
	)

	go func() {
		if err := a.poller.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("poller error", applogger.Error(err))
		}
	}()
	a.log.Info("poller started",
		applogger.String("backend", a.cfg.Backend.BaseURL),
		applogger.Duration("interval_ms", a.cfg.Backend.PollInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.hub != nil {
		if err := a.hub.Shutdown(shutdownCtx); err != nil {
			a.log.Warn("stream hub close error", applogger.Error(err))
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
