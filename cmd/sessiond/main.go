package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pulsenet/sessiond/config"
	"github.com/pulsenet/sessiond/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	cfgPtr := &cfg

	logStartupInfo(ctx, logger, cfgPtr)

	if err = bootstrap.ValidateServiceConfig(cfgPtr); err != nil {
		return err
	}

	backends, err := bootstrap.ConnectBackends(ctx, cfgPtr, logger)
	if err != nil {
		return err
	}
	defer backends.Close(logger)

	deps := bootstrap.AuthDeps{
		Config:      cfgPtr,
		DB:          backends.DB,
		RedisClient: backends.Redis,
		Logger:      logger,
	}
	if metrics := bootstrap.BuildMetrics(cfg.Observability, logger); metrics != nil {
		deps.Metrics = metrics
	}

	components, err := bootstrap.BuildAuthComponents(deps)
	if err != nil {
		return err
	}

	// Pick up a persisted session before serving, so a restart does not
	// log the user out.
	restored, err := components.Sessions.Restore(ctx)
	if err != nil {
		logger.WarnContext(ctx, "session restore failed", "error", err)
	} else if restored {
		logger.InfoContext(ctx, "session restored from snapshot")
	}

	return bootstrap.RunServicesWithShutdown(&bootstrap.ServiceOrchestrationConfig{
		Config:     cfgPtr,
		Components: components,
		Logger:     logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting sessiond",
		"dev_mode", cfg.IsDev,
		"flow_mode", string(cfg.Auth.FlowMode),
		"snapshot_backend", string(cfg.Snapshot.Backend),
		"audit_store_enabled", cfg.Postgres.Enabled,
		"enabled_services", bootstrap.GetEnabledServices(cfg))
}
