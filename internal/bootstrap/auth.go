package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/pulsenet/sessiond/config"
	auditadapter "github.com/pulsenet/sessiond/internal/adapters/audit"
	"github.com/pulsenet/sessiond/internal/adapters/directory"
	"github.com/pulsenet/sessiond/internal/adapters/localstore"
	"github.com/pulsenet/sessiond/internal/adapters/platform"
	redisadapter "github.com/pulsenet/sessiond/internal/adapters/redis"
	"github.com/pulsenet/sessiond/internal/adapters/wearable"
	"github.com/pulsenet/sessiond/internal/data"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
	"github.com/pulsenet/sessiond/internal/ports"
	"github.com/pulsenet/sessiond/internal/service"
)

// AuthComponents holds the assembled authentication services.
type AuthComponents struct {
	Directory *directory.Store
	Device    *wearable.Device
	Snapshots ports.SnapshotStore
	Audit     *service.AuditService
	Sessions  *service.SessionService
	Flow      *service.LoginFlow
	Hub       *service.ActivityHub
	Activity  *service.ActivityService
	Monitor   *service.InactivityMonitor
}

// AuthDeps groups dependencies for auth component assembly.
type AuthDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB               // Optional: enables the durable audit sink
	RedisClient redis.UniversalClient // Required for the redis snapshot backend
	Metrics     statsd.Sink           // Optional: metrics-emitting audit sink
	Logger      *slog.Logger
}

// BuildAuthComponents wires the directory, stages, session services, and
// audit trail from configuration. The returned components share one session
// and one audit service; the HTTP server and the inactivity monitor both run
// against them.
func BuildAuthComponents(deps AuthDeps) (*AuthComponents, error) {
	if deps.Config == nil {
		return nil, errors.New("app config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	dir := directory.NewDemo()

	device, err := wearable.New(wearable.Options{
		ID:     cfg.Auth.Device.ID,
		Secret: cfg.Auth.Device.Secret,
		Period: cfg.Auth.Device.CodePeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("create paired device: %w", err)
	}

	snapshots, err := buildSnapshotStore(cfg.Snapshot, deps.RedisClient, logger)
	if err != nil {
		return nil, err
	}

	audit := service.NewAuditService(service.AuditServiceOptions{
		Sinks:  buildAuditSinks(deps, logger),
		Logger: logger,
	})

	sessions := service.NewSessionService(service.SessionServiceOptions{
		Snapshots:         snapshots,
		Audit:             audit,
		Logger:            logger,
		Metrics:           deps.Metrics,
		InactivityTimeout: cfg.Auth.SessionTimeout,
	})

	stages, err := buildStages(cfg.Auth, dir, device, deps.Logger)
	if err != nil {
		return nil, err
	}

	flow, err := service.NewLoginFlow(service.LoginFlowOptions{
		Stages:   stages,
		Sessions: sessions,
		Audit:    audit,
		Device:   device,
		Logger:   logger,
		Metrics:  deps.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create login flow: %w", err)
	}

	hub := service.NewActivityHub()
	activity := service.NewActivityService(service.ActivityServiceOptions{
		Sessions: sessions,
		Hub:      hub,
		Logger:   logger,
		Metrics:  deps.Metrics,
	})

	monitor, err := service.NewInactivityMonitor(service.InactivityMonitorOptions{
		Sessions:         sessions,
		Hub:              hub,
		Logger:           logger,
		Metrics:          deps.Metrics,
		TickInterval:     cfg.Monitor.TickInterval,
		WarningThreshold: cfg.Monitor.WarningThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("create inactivity monitor: %w", err)
	}

	return &AuthComponents{
		Directory: dir,
		Device:    device,
		Snapshots: snapshots,
		Audit:     audit,
		Sessions:  sessions,
		Flow:      flow,
		Hub:       hub,
		Activity:  activity,
		Monitor:   monitor,
	}, nil
}

// buildStages assembles the verification stages for the configured flow
// shape. The credentials stage always runs first.
func buildStages(cfg config.AuthConfig, dir *directory.Store, device *wearable.Device, logger *slog.Logger) ([]ports.Stage, error) {
	password, err := service.NewPasswordStage(service.PasswordStageOptions{
		Directory: dir,
		Secret:    cfg.DemoSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("create password stage: %w", err)
	}

	if cfg.FlowMode == config.FlowModeSingle {
		return []ports.Stage{password}, nil
	}

	biometric, err := service.NewBiometricStage(service.BiometricStageOptions{
		Directory:  dir,
		Probe:      platform.NewStaticProbe(cfg.BiometricAvailable),
		ScanDelay:  cfg.ScanDelay,
		Logger:     logger,
		DefaultRef: directory.DemoBiometricRef,
	})
	if err != nil {
		return nil, fmt.Errorf("create biometric stage: %w", err)
	}

	secondary, err := service.NewDeviceStage(service.DeviceStageOptions{
		Device: device,
	})
	if err != nil {
		return nil, fmt.Errorf("create device stage: %w", err)
	}

	return []ports.Stage{password, biometric, secondary}, nil
}

//nolint:ireturn // returning ports.SnapshotStore keeps backend selection behind one seam.
func buildSnapshotStore(
	cfg config.SnapshotConfig,
	redisClient redis.UniversalClient,
	logger *slog.Logger,
) (ports.SnapshotStore, error) {
	switch cfg.Backend {
	case config.SnapshotBackendRedis:
		if redisClient == nil {
			return nil, errors.New("redis snapshot backend selected but redis is not connected")
		}
		logger.Info("session snapshots backed by redis", "prefix", cfg.Prefix, "ttl", cfg.TTL)
		return redisadapter.NewSnapshotStoreWithPrefix(redisClient, cfg.TTL, cfg.Prefix), nil

	case config.SnapshotBackendFile:
		store, err := localstore.New(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("create local snapshot store: %w", err)
		}
		logger.Info("session snapshots backed by local files", "dir", cfg.Dir)
		return store, nil

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Backend)
	}
}

// buildAuditSinks assembles the configured audit sinks. The log sink is
// always present; metrics and database sinks attach when their backends are
// available.
func buildAuditSinks(deps AuthDeps, logger *slog.Logger) []ports.AuditSink {
	sinks := []ports.AuditSink{auditadapter.NewLogSink(logger)}

	if deps.Metrics != nil {
		sinks = append(sinks, auditadapter.NewMetricsSink(deps.Metrics))
	}

	if deps.DB != nil {
		sinks = append(sinks, auditadapter.NewStoreSink(data.NewAuditRepo(deps.DB), logger))
	}

	return sinks
}
