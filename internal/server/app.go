// Package server wires the document server: it opens the configured storage
// backend, serves the REST document API and the gRPC health service, and
// shuts both down on SIGINT, SIGTERM or SIGQUIT.
package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tourcheck/internal/logging"
	"github.com/dmitrijs2005/tourcheck/internal/server/config"
	"github.com/dmitrijs2005/tourcheck/internal/server/httpapi"
	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/repomanager"

	gs "github.com/dmitrijs2005/tourcheck/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	http   *httpapi.Server
	health *gs.HealthServer
	flush  func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	zl := logging.NewProductionZap()
	logger := logging.Logger(zl)

	rm, err := repomanager.Open(ctx, c, logger)
	if err != nil {
		_ = zl.Sync()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	hs := httpapi.NewServer(rm.Documents(), logger, httpapi.Options{
		BodyLimit: c.BodyLimit,
		AccessLog: os.Stdout,
	})

	return &App{
		config: c,
		logger: logger,
		repos:  rm,
		http:   hs,
		health: gs.NewHealthServer(c.GRPCAddr, logger),
		flush:  zl.Sync,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	ln, err := net.Listen("tcp", app.config.HTTPAddr)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		if err := app.http.App.ShutdownWithTimeout(app.config.ShutdownTimeout); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
		// unblocks Listener if shutdown ran before it started serving
		_ = ln.Close()
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", ln.Addr().String())
	if err := app.http.App.Listener(ln); err != nil && ctx.Err() == nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or either listener
// fails, then releases the storage backend.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.Storage)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "storage close error", "error", err)
	}
	app.logger.Info(ctx, "Server stopped")
	_ = app.flush()
}
