// Command storefrontd serves the storefront HTTP API.
//
// Configuration comes from the environment, optionally seeded from a .env
// file. Without DATABASE_URL the catalog, accounts and orders live in memory.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/storefront/internal/notify"
	"github.com/dmitrymomot/storefront/internal/repository"
	"github.com/dmitrymomot/storefront/internal/repository/postgres"
	"github.com/dmitrymomot/storefront/internal/server"
	"github.com/dmitrymomot/storefront/pkg/health"
	"github.com/dmitrymomot/storefront/pkg/kv"
	"github.com/dmitrymomot/storefront/pkg/logger"
)

type config struct {
	Server   server.Config
	Database postgres.Config
	Resend   notify.ResendConfig
	Log      logger.Config
	RedisURL string `env:"REDIS_URL"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load .env", slog.Any("error", err))
		os.Exit(1)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log, logger.RequestIDExtractor(), logger.UsernameExtractor())
	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	renderer, err := notify.NewRenderer()
	if err != nil {
		return err
	}
	var sender notify.Sender = notify.NewLogSender(log)
	if cfg.Resend.Enabled() {
		sender = notify.NewResendSender(cfg.Resend)
	}
	mailer := notify.NewMailer(renderer, sender)

	var (
		repo       repository.Repository = repository.NewMemory()
		dispatcher notify.Dispatcher     = mailer
		checks                           = health.Checks{}
		runOpts                          = []server.RunOption{
			server.WithAddress(cfg.Server.Addr),
			server.WithRunLogger(log),
			server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		}
	)

	if cfg.Database.Enabled() {
		pool, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		runOpts = append(runOpts, server.WithShutdownHook(postgres.Shutdown(pool)))

		if err := postgres.Migrate(ctx, pool, cfg.Database.MigrationsTable, log); err != nil {
			pool.Close()
			return err
		}
		if err := notify.MigrateQueue(ctx, pool); err != nil {
			pool.Close()
			return err
		}

		queue, err := notify.NewQueue(pool, mailer, notify.WithQueueLogger(log))
		if err != nil {
			pool.Close()
			return err
		}
		if err := queue.Start(ctx); err != nil {
			pool.Close()
			return err
		}
		// Registered after the pool hook but must run before it.
		runOpts = append([]server.RunOption{server.WithShutdownHook(queue.Stop)}, runOpts...)

		repo = postgres.New(pool)
		dispatcher = queue
		checks["postgres"] = postgres.Healthcheck(pool)
	} else {
		log.Warn("DATABASE_URL is not set, using in-memory storage")
	}

	if cfg.RedisURL != "" {
		client, err := kv.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		checks["redis"] = kv.NewRedis(client).Healthcheck
		runOpts = append(runOpts, server.WithShutdownHook(func(context.Context) error {
			return client.Close()
		}))
	}

	srv, err := server.New(repo, cfg.Server,
		server.WithLogger(log),
		server.WithDispatcher(dispatcher),
		server.WithHealthChecks(checks),
	)
	if err != nil {
		return err
	}
	if err := srv.Seed(ctx); err != nil {
		return err
	}

	return server.Run(ctx, srv.Handler(), runOpts...)
}
