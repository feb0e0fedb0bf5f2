// Package server boots the application and runs the HTTP listener until the
// process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App holds the process-wide resources built at startup.
type App struct {
	Config *config.Config
	Mongo  *database.Mongo
	Disk   storage.Disk
	Tokens *auth.TokenService

	logSink *logger.MongoHandler
}

// Boot resolves config, connects to MongoDB and opens the storage disk.
// When LOG_MONGO_COLLECTION is set, log records are also written there.
func Boot(ctx context.Context) (*App, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Env, os.Stdout)

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	m, err := database.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Mongo:  m,
		Tokens: auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL),
	}

	if cfg.LogMongoCollection != "" {
		a.logSink = logger.NewMongoHandler(connectCtx, m.Collection(cfg.LogMongoCollection), slog.LevelInfo)
		logger.Setup(cfg.Env, os.Stdout, a.logSink)
	}

	disk, err := storage.Open()
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Disk = disk

	return a, nil
}

// Kernel builds the HTTP kernel on the Mongo repositories.
func (a *App) Kernel() *kernel.HTTPKernel {
	return kernel.NewHTTPKernel(a.Config, kernel.MongoDeps(a.Mongo, a.Disk, a.Tokens))
}

// Close flushes the log sink and disconnects from MongoDB.
func (a *App) Close(ctx context.Context) {
	if a.logSink != nil {
		a.logSink.Close()
		logger.Setup(a.Config.Env, os.Stdout)
	}
	if err := a.Mongo.Close(ctx); err != nil {
		logger.Warn("mongo disconnect failed", "error", err)
	}
}

// Start boots the app, ensures indexes and serves on APP_PORT until SIGINT
// or SIGTERM.
func Start(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	created, err := a.Mongo.EnsureIndexes(ctx)
	if err != nil {
		return err
	}
	logger.Info("indexes ready", "indexes", created)

	ln, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return fmt.Errorf("listen on :%s: %w", a.Config.Port, err)
	}
	logger.Info("storefront listening", "addr", ln.Addr().String(), "env", a.Config.Env)

	return Serve(ctx, ln, a.Kernel().Handler())
}

// Serve runs h on ln until ctx is done, then drains in-flight requests.
func Serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
