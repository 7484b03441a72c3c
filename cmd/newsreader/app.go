package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	cacheadapter "github.com/tayyabfareed009/newswatch/internal/adapter/cache"
	"github.com/tayyabfareed009/newswatch/internal/config"
	"github.com/tayyabfareed009/newswatch/internal/credstore"
	"github.com/tayyabfareed009/newswatch/internal/gateway"
	"github.com/tayyabfareed009/newswatch/internal/session"
	"github.com/tayyabfareed009/newswatch/internal/telemetry"
)

// client bundles everything a command needs.
type client struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    credstore.Store
	Gateway  *gateway.HTTPClient
	Sessions *session.Manager
}

type globalFlags struct {
	verbose bool
	apiURL  string
	store   string
}

// withClient builds the dependency graph, restores the session and runs fn.
func withClient(ctx context.Context, flags globalFlags, fn func(context.Context, client) error) error {
	var c client
	app := fx.New(
		fx.NopLogger,
		fx.Supply(flags),
		fx.Provide(
			newClientConfig,
			newClientLogger,
			newClientTelemetry,
			newCredentialStore,
			newGateway,
			session.NewManager,
		),
		fx.Invoke(func(*telemetry.Provider) {}),
		fx.Populate(&c.Config, &c.Logger, &c.Store, &c.Gateway, &c.Sessions),
	)

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	if _, err := c.Sessions.Restore(ctx); err != nil && !errors.Is(err, session.ErrNoSession) {
		c.Logger.Warn("restore session", zap.Error(err))
	}
	return fn(ctx, c)
}

func newClientConfig(flags globalFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flags.apiURL != "" {
		cfg.APIBaseURL = flags.apiURL
	}
	if flags.store != "" {
		cfg.StoreDriver = flags.store
	}
	return cfg, nil
}

// newClientLogger writes warnings to stderr; --verbose adds the audit trail.
func newClientLogger(flags globalFlags) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.DisableStacktrace = true
	if !flags.verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newClientTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}
	lc.Append(fx.Hook{OnStop: provider.Shutdown})
	return provider, nil
}

func newCredentialStore(lc fx.Lifecycle, cfg config.Config) (credstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return credstore.NewMemoryStore(), nil
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := rdb.Ping(ctx).Err(); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return rdb.Close()
			},
		})
		return cacheadapter.NewRedisCredentialStore(rdb, cfg.StorePrefix), nil
	default:
		return credstore.NewFileStore(cfg.StorePath)
	}
}

func newGateway(cfg config.Config, logger *zap.Logger) *gateway.HTTPClient {
	return gateway.NewHTTPClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
}
