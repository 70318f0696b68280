package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeMonitor runs the session inactivity monitor.
	ServiceModeMonitor ServiceMode = "monitor"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{ServiceModeHTTP, ServiceModeMonitor}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for _, part := range strings.Split(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeMonitor:
			services[mode] = true
		default:
			return nil, fmt.Errorf("invalid service name: %q (valid options: http, monitor)", serviceName)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// MonitorConfig contains inactivity monitor configuration.
type MonitorConfig struct {
	// TickInterval is how often the monitor evaluates the session deadline.
	TickInterval time.Duration `env:"MONITOR_TICK_INTERVAL" envDefault:"1s"`

	// WarningThreshold is the remaining time under which the monitor emits
	// an expiry warning.
	WarningThreshold time.Duration `env:"MONITOR_WARNING_THRESHOLD" envDefault:"5m"`
}

// Sanitize applies guardrails to monitor configuration values.
func (m *MonitorConfig) Sanitize() {
	if m.TickInterval < 100*time.Millisecond {
		m.TickInterval = 100 * time.Millisecond
	}
	if m.WarningThreshold < time.Second {
		m.WarningThreshold = time.Second
	}
}
