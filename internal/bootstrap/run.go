package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/akredia/akredia-api/config"
)

// RunConfig contains everything needed to run the application until a
// shutdown signal arrives.
type RunConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// Run starts the HTTP server and blocks until the context is cancelled or a
// SIGINT/SIGTERM arrives, then drains the server within the configured
// shutdown timeout.
func Run(ctx context.Context, cfg *RunConfig) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   cfg.Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		// Shutdown uses a fresh context; gctx is already cancelled.
		return ShutdownHTTPServer(context.Background(), server, cfg.Config.HTTP.ShutdownTimeout, cfg.Logger)
	})

	return g.Wait()
}
