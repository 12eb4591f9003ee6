package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sweepguard/internal/domain/repository"
	"sweepguard/internal/marketdata"
	"sweepguard/internal/usecase"
	pkgch "sweepguard/pkg/clickhouse"
	"sweepguard/pkg/config"
	xhttp "sweepguard/pkg/http"
	applogger "sweepguard/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	loop       *usecase.Loop
	stream     repository.TickStream
	tickBuffer *marketdata.TickBuffer
	publisher  repository.Publisher
	journal    repository.Journal
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	loop *usecase.Loop,
	stream repository.TickStream,
	tickBuffer *marketdata.TickBuffer,
	publisher repository.Publisher,
	journal repository.Journal,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *App {
	httpServer := xhttp.NewServer(httpHandler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	)
	return &App{
		cfg:        cfg,
		log:        log,
		loop:       loop,
		stream:     stream,
		tickBuffer: tickBuffer,
		publisher:  publisher,
		journal:    journal,
		chClient:   chClient,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Feed the tick buffer from the live stream
	go marketdata.Pump(ctx, a.stream, a.tickBuffer, a.log)

	// Drive the scan cycles
	go func() {
		if err := a.loop.Run(ctx); err != nil && ctx.Err() == nil {
			a.log.Error("trading loop error", applogger.Error(err))
		}
	}()

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
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

	if err := a.stream.Close(); err != nil {
		a.log.Warn("tick stream close error", applogger.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}
	if err := a.journal.Close(); err != nil {
		a.log.Warn("journal close error", applogger.Error(err))
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
