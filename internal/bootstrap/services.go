package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/pulsenet/sessiond/config"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
)

// Backends holds the optional external connections the application runs
// against. Either may be nil; the components degrade to in-process
// equivalents.
type Backends struct {
	DB    *sql.DB
	Redis redis.UniversalClient
}

// ConnectBackends establishes the external connections the configuration
// asks for. The database backs the durable audit trail; Redis backs the
// snapshot store when selected.
func ConnectBackends(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (*Backends, error) {
	if cfg == nil {
		return nil, errors.New("app config is required")
	}
	backends := &Backends{}

	if cfg.Postgres.Enabled {
		db, err := ConnectDB(DatabaseConfig{DBConfig: cfg.Postgres, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		backends.DB = db

		if cfg.Postgres.RunMigrationsOnStart {
			if err := RunMigrations(ctx, db, logger); err != nil {
				backends.Close(logger)
				return nil, err
			}
		}
	}

	if cfg.Snapshot.Backend == config.SnapshotBackendRedis {
		client, err := ConnectRedis(DatabaseConfig{RedisConfig: cfg.Redis, Logger: logger})
		if err != nil {
			backends.Close(logger)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		backends.Redis = client
	}

	return backends, nil
}

// Close releases the backend connections. Safe on a partially connected
// Backends.
func (b *Backends) Close(logger *slog.Logger) {
	if b == nil {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
	if b.DB != nil {
		if err := b.DB.Close(); err != nil {
			logger.Warn("failed to close database connection", "error", err)
		}
	}
}

// BuildMetrics creates the StatsD client when metrics are enabled. Returns
// nil when disabled or when the client cannot be created.
func BuildMetrics(cfg config.ObservabilityConfig, logger *slog.Logger) *statsd.Client {
	if !cfg.Metrics.IsEnabled() {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := statsd.NewClient(statsd.Config{
		Enabled: true,
		Address: cfg.Metrics.StatsdAddress,
		Prefix:  "pulsenet",
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config     *config.AppConfig
	Components *AuthComponents
	Logger     *slog.Logger
}

// RunServicesWithShutdown runs all enabled services until a shutdown signal
// arrives or one of them fails. The HTTP server and the inactivity monitor
// share one context: a failure in either tears both down.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}
	if cfg.Components == nil {
		return errors.New("service orchestration config missing auth components")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		server := NewHTTPServer(&HTTPServerConfig{
			Config:     cfg.Config,
			Components: cfg.Components,
			Logger:     logger,
		})
		shutdownTimeout := cfg.Config.HTTP.ShutdownTimeout
		group.Go(func() error {
			if err := RunHTTPServer(groupCtx, server, shutdownTimeout, logger); err != nil {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
	}

	if enabled[config.ServiceModeMonitor] {
		group.Go(func() error {
			if err := cfg.Components.Monitor.Run(groupCtx); err != nil {
				return fmt.Errorf("inactivity monitor failed: %w", err)
			}
			return nil
		})
	}

	return group.Wait()
}
