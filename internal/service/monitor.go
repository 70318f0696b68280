package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
)

// DefaultTickInterval is how often the monitor re-evaluates the session.
const DefaultTickInterval = time.Second

// InactivityMonitorOptions groups dependencies for InactivityMonitor.
type InactivityMonitorOptions struct {
	Sessions *SessionService // Required: session state owner
	Hub      *ActivityHub    // Optional: activity signal source
	Logger   *slog.Logger    // Optional: structured logger
	Metrics  statsd.Sink     // Optional: metrics sink (StatsD-compatible)

	// TickInterval overrides the evaluation interval.
	TickInterval time.Duration
	// WarningThreshold overrides when the expiry warning fires.
	WarningThreshold time.Duration

	// OnWarning fires once per warning phase with the time remaining.
	OnWarning func(remaining time.Duration)
	// OnExpire fires after the monitor terminates a session.
	OnExpire func()
}

// InactivityMonitor watches the active session and terminates it when the
// inactivity deadline passes. It emits a single warning when the session
// enters the warning window; activity that pushes the deadline back out
// re-arms the warning.
type InactivityMonitor struct {
	sessions  *SessionService
	hub       *ActivityHub
	logger    *slog.Logger
	metrics   statsd.Sink
	tick      time.Duration
	warnAt    time.Duration
	onWarning func(remaining time.Duration)
	onExpire  func()

	warned bool
}

// NewInactivityMonitor constructs a new InactivityMonitor.
func NewInactivityMonitor(opts InactivityMonitorOptions) (*InactivityMonitor, error) {
	if opts.Sessions == nil {
		return nil, errors.New("SessionService is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tick := opts.TickInterval
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	warnAt := opts.WarningThreshold
	if warnAt <= 0 {
		warnAt = domainauth.WarningThreshold
	}

	return &InactivityMonitor{
		sessions:  opts.Sessions,
		hub:       opts.Hub,
		logger:    logger.With("component", "inactivity_monitor"),
		metrics:   opts.Metrics,
		tick:      tick,
		warnAt:    warnAt,
		onWarning: opts.OnWarning,
		onExpire:  opts.OnExpire,
	}, nil
}

// Run evaluates the session once per tick until the context is cancelled.
// Returns nil on graceful shutdown.
func (m *InactivityMonitor) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "starting inactivity monitor",
		"tick", m.tick, "warning_threshold", m.warnAt)

	var signals <-chan Signal
	if m.hub != nil {
		ch, release := m.hub.Subscribe()
		defer release()
		signals = ch
	}

	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.InfoContext(ctx, "inactivity monitor stopped")
			return nil
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			m.logger.DebugContext(ctx, "activity observed", "signal", string(sig))
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check performs a single evaluation. Run calls it every tick; tests call it
// directly.
func (m *InactivityMonitor) Check(ctx context.Context) {
	remaining, active := m.sessions.TimeRemaining()
	if !active {
		m.warned = false
		return
	}

	if m.metrics != nil {
		m.metrics.Gauge("auth.session.seconds_remaining", remaining.Seconds(), nil)
	}

	switch {
	case remaining <= 0:
		m.expire(ctx)
	case remaining <= m.warnAt:
		m.warn(ctx, remaining)
	default:
		// Activity pushed the deadline back out of the warning window.
		m.warned = false
	}
}

func (m *InactivityMonitor) expire(ctx context.Context) {
	m.logger.InfoContext(ctx, "session exceeded inactivity timeout, terminating")
	if err := m.sessions.Clear(ctx, LogoutReasonTimeout); err != nil {
		m.logger.ErrorContext(ctx, "failed to terminate expired session", "error", err)
		return
	}
	m.warned = false
	if m.metrics != nil {
		m.metrics.Count("auth.session.expired", 1, nil)
	}
	if m.onExpire != nil {
		m.onExpire()
	}
}

func (m *InactivityMonitor) warn(ctx context.Context, remaining time.Duration) {
	if m.warned {
		return
	}
	m.warned = true
	m.logger.WarnContext(ctx, "session expiring soon", "remaining", remaining)
	if m.metrics != nil {
		m.metrics.Count("auth.session.expiry_warnings", 1, nil)
	}
	if m.onWarning != nil {
		m.onWarning(remaining)
	}
}

// InWarningPhase reports whether the active session is inside the warning
// window. Exposed for the status endpoint.
func (m *InactivityMonitor) InWarningPhase() bool {
	remaining, active := m.sessions.TimeRemaining()
	return active && remaining > 0 && remaining <= m.warnAt
}
