package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketPulse/internal/domain/repository"
	"MarketPulse/internal/handler/stream"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/cache"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	hub        *stream.Hub
	refresher  *usecase.Refresher
	httpServer *xhttp.Server
	publisher  repository.SnapshotPublisher
	cache      cache.Service
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	hub *stream.Hub,
	refresher *usecase.Refresher,
	httpServer *xhttp.Server,
	publisher repository.SnapshotPublisher,
	c cache.Service,
) *App {
	return &App{
		cfg:        cfg,
		log:        l,
		hub:        hub,
		refresher:  refresher,
		httpServer: httpServer,
		publisher:  publisher,
		cache:      c,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the hub, the refresher and the HTTP server, then blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run(runCtx)
	a.refresher.Start(runCtx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("marketpulse started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("addr", a.httpServer.Addr()),
		applogger.Int("groups", len(a.cfg.Groups)),
		applogger.Bool("refresher", a.refresher.Enabled()),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	a.shutdown(cancel)
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(stopBackground context.CancelFunc) {
	// Shutdown HTTP server first so no new snapshots are requested.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.refresher.Stop()

	stopBackground()
	select {
	case <-a.hub.Done():
	case <-time.After(2 * time.Second):
		a.log.Warn("stream hub did not stop in time")
	}

	// Flush aggregated error logs while the producer is still open.
	a.log.RemoveCollector()

	if err := a.publisher.Close(); err != nil {
		a.log.Warn("snapshot publisher close error", applogger.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("cache close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
}
