package config

import (
	"fmt"
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration. The database holds
// the durable audit trail; the rest of the application state lives in
// memory and in the snapshot store.
type DBConfig struct {
	// Enabled controls whether the audit store sink connects at all.
	// Disabled deployments still get log and metrics audit sinks.
	Enabled  bool   `env:"ENABLED"                 envDefault:"false"`
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"pulsenet"`
	Password string `env:"PASSWORD"                envDefault:"pulsenet"`
	Name     string `env:"NAME"                    envDefault:"pulsenet"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN builds the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}

// SnapshotBackend names a session snapshot persistence backend.
type SnapshotBackend string

const (
	// SnapshotBackendFile persists snapshots to local files.
	SnapshotBackendFile SnapshotBackend = "file"
	// SnapshotBackendRedis persists snapshots to Redis.
	SnapshotBackendRedis SnapshotBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for SnapshotBackend.
func (b *SnapshotBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "file", "redis":
		*b = SnapshotBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SnapshotBackend: %q (valid options: file, redis)", v)
	}
}

// SnapshotConfig controls where session snapshots are persisted across
// restarts.
type SnapshotConfig struct {
	// Backend selects the persistence backend.
	Backend SnapshotBackend `env:"BACKEND" envDefault:"file"`

	// Dir is the directory for the file backend.
	Dir string `env:"DIR" envDefault:".pulsenet"`

	// Prefix namespaces the Redis keys for the redis backend.
	Prefix string `env:"PREFIX" envDefault:""`

	// TTL bounds how long a snapshot outlives its last write in the redis
	// backend. Zero disables the TTL; staleness is still enforced on
	// restore either way.
	TTL time.Duration `env:"TTL" envDefault:"24h"`
}

// Sanitize applies guardrails to snapshot configuration values.
func (s *SnapshotConfig) Sanitize() {
	if s.Dir == "" {
		s.Dir = ".pulsenet"
	}
	if s.TTL < 0 {
		s.TTL = 0
	}
}
