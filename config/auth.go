package config

import (
	"fmt"
	"strings"
	"time"
)

// FlowMode represents the authentication flow shape.
type FlowMode string

const (
	// FlowModeSingle runs the credentials stage only.
	FlowModeSingle FlowMode = "single"
	// FlowModeMulti runs credentials, biometric, and secondary device stages.
	FlowModeMulti FlowMode = "multi"
)

// UnmarshalText implements encoding.TextUnmarshaler for FlowMode.
func (f *FlowMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "single", "multi":
		*f = FlowMode(v)
		return nil
	default:
		return fmt.Errorf("invalid FlowMode: %q (valid options: single, multi)", v)
	}
}

// DeviceConfig controls the paired secondary device that shows rolling codes.
type DeviceConfig struct {
	// ID identifies the paired device in status payloads.
	ID string `env:"ID" envDefault:"WEARABLE_001"`

	// Secret is the shared TOTP secret, base32 encoded. When empty a fresh
	// secret is generated at startup, which is fine for the demo deployment
	// because the simulated device and the verifier share a process.
	Secret string `env:"SECRET"`

	// CodePeriod is the rotation period of the device code.
	CodePeriod time.Duration `env:"CODE_PERIOD" envDefault:"2m"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// FlowMode selects between the full multi-stage flow and a
	// credentials-only flow.
	FlowMode FlowMode `env:"AUTH_FLOW_MODE" envDefault:"multi"`

	// DemoSecret is the shared password every demo identity accepts.
	DemoSecret string `env:"AUTH_DEMO_SECRET" envDefault:"demo123"`

	// ScanDelay is the simulated biometric sensor scan time. Zero disables
	// the delay.
	ScanDelay time.Duration `env:"AUTH_SCAN_DELAY" envDefault:"2s"`

	// BiometricAvailable reports whether the platform exposes a biometric
	// sensor. The demo deployment has no real sensor to probe.
	BiometricAvailable bool `env:"AUTH_BIOMETRIC_AVAILABLE" envDefault:"true"`

	// SessionTimeout is the inactivity period after which a session is
	// forcibly logged out.
	SessionTimeout time.Duration `env:"AUTH_SESSION_TIMEOUT" envDefault:"30m"`

	// Device configuration for the secondary device stage.
	Device DeviceConfig `envPrefix:"AUTH_DEVICE_"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionTimeout < time.Minute {
		a.SessionTimeout = time.Minute
	}
	if a.ScanDelay < 0 {
		a.ScanDelay = 0
	}
	if a.Device.CodePeriod < 30*time.Second {
		a.Device.CodePeriod = 30 * time.Second
	}
}
