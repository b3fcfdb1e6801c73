package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/config"
	"github.com/vovakirdan/groupcast-server/internal/core"
	"github.com/vovakirdan/groupcast-server/internal/log"
	"github.com/vovakirdan/groupcast-server/internal/ratelimit"
	"github.com/vovakirdan/groupcast-server/internal/store"
	"github.com/vovakirdan/groupcast-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/groupcast-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.MembershipStore
	redis           *redis.Client
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath, cfg.MembershipTable)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().
		Str("db_path", cfg.DatabasePath).
		Str("table", cfg.MembershipTable).
		Msg("membership store initialized")

	var redisClient *redis.Client
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		redisClient = redis.NewClient(opts)

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			st.Close()
			redisClient.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}

		limiter = ratelimit.NewRedis(redisClient, cfg.RateWindow, log.Component(logger, "ratelimit"))
		logger.Info().Msg("using redis rate limiter")
	} else {
		limiter = ratelimit.NewMemory(cfg.RateWindow)
	}

	registry := transporthttp.NewRegistry()
	gateway := core.NewGateway(st, limiter, registry, log.Component(logger, "core"))
	server := transporthttp.NewServer(gateway, registry, st, cfg, log.Component(logger, "http"))

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		redis:           redisClient,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
