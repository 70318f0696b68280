package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
	"github.com/pulsenet/sessiond/internal/ports"
)

// LogoutReason classifies why a session ended.
type LogoutReason string

const (
	LogoutReasonManual  LogoutReason = "manual"
	LogoutReasonTimeout LogoutReason = "timeout"
)

// LogoutAuditor receives logout notifications. Implemented by AuditService.
type LogoutAuditor interface {
	RecordLogout(ctx context.Context, identityID, method string)
}

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	Snapshots ports.SnapshotStore // Optional: persistent snapshot backend
	Audit     LogoutAuditor       // Optional: logout audit trail
	Logger    *slog.Logger        // Optional: structured logger
	Metrics   statsd.Sink         // Optional: metrics sink (StatsD-compatible)
	Now       func() time.Time    // Optional: clock override for tests

	// InactivityTimeout overrides the default session timeout.
	InactivityTimeout time.Duration
}

// SessionService owns the single active session. All reads and writes of
// session state go through it; there is no ambient session anywhere else.
//
// It is safe for concurrent use. Snapshot persistence is best effort: a
// failing backend degrades restart recovery, never live authentication.
type SessionService struct {
	snapshots ports.SnapshotStore
	audit     LogoutAuditor
	logger    *slog.Logger
	metrics   statsd.Sink
	now       func() time.Time
	timeout   time.Duration

	mu      sync.Mutex
	current *domainauth.Session
}

// NewSessionService constructs a new SessionService.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	timeout := opts.InactivityTimeout
	if timeout <= 0 {
		timeout = domainauth.InactivityTimeout
	}

	return &SessionService{
		snapshots: opts.Snapshots,
		audit:     opts.Audit,
		logger:    logger.With("component", "session_service"),
		metrics:   opts.Metrics,
		now:       now,
		timeout:   timeout,
	}
}

// Bind establishes a session for the given identity. Any previous session is
// replaced. The snapshot is persisted so the session survives a restart.
func (s *SessionService) Bind(ctx context.Context, identity domainauth.Identity, establishedAt time.Time) error {
	if identity.ID == "" {
		return errors.New("identity ID is required")
	}
	if establishedAt.IsZero() {
		establishedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = &domainauth.Session{
		Identity:       identity,
		EstablishedAt:  establishedAt,
		LastActivityAt: establishedAt,
	}

	if s.snapshots != nil {
		snap := ports.Snapshot{Identity: identity, EstablishedAt: establishedAt}
		if err := s.snapshots.Save(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "failed to persist session snapshot",
				"identity_id", identity.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "session established",
		"identity_id", identity.ID, "role", string(identity.Role))
	if s.metrics != nil {
		s.metrics.Count("auth.session.established", 1,
			map[string]string{"role": string(identity.Role)})
	}
	return nil
}

// Current returns a copy of the active session.
func (s *SessionService) Current() (domainauth.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domainauth.Session{}, false
	}
	return *s.current, true
}

// IsAuthenticated reports whether a session is active.
func (s *SessionService) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// Touch records activity, pushing the inactivity deadline forward. It is a
// no-op without an active session.
func (s *SessionService) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	s.current.LastActivityAt = s.now()
}

// TimeRemaining returns the time left until the inactivity deadline. It
// returns false without an active session. A non-positive value means the
// session is already overdue for termination.
func (s *SessionService) TimeRemaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return 0, false
	}
	deadline := s.current.LastActivityAt.Add(s.timeout)
	return deadline.Sub(s.now()), true
}

// Clear terminates the active session, drops the persisted snapshot and
// records a logout audit event. Clearing with no active session is a no-op.
func (s *SessionService) Clear(ctx context.Context, reason LogoutReason) error {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess == nil {
		return nil
	}

	if s.snapshots != nil {
		if err := s.snapshots.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to clear session snapshot", "error", err)
		}
	}

	if s.audit != nil {
		s.audit.RecordLogout(ctx, sess.Identity.ID, string(reason))
	}

	s.logger.InfoContext(ctx, "session terminated",
		"identity_id", sess.Identity.ID, "reason", string(reason))
	if s.metrics != nil {
		s.metrics.Count("auth.session.terminated", 1,
			map[string]string{"reason": string(reason)})
	}
	return nil
}

// Restore attempts to rebuild the session from a persisted snapshot. A
// snapshot older than the inactivity timeout is discarded instead of
// restored. The restored session's activity clock starts at the original
// establishment time, so an old-but-valid snapshot is on a short fuse.
//
// Returns true when a session was restored.
func (s *SessionService) Restore(ctx context.Context) (bool, error) {
	if s.snapshots == nil {
		return false, nil
	}

	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrSnapshotNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.now().Sub(snap.EstablishedAt) >= s.timeout {
		s.logger.InfoContext(ctx, "discarding stale session snapshot",
			"identity_id", snap.Identity.ID, "established_at", snap.EstablishedAt)
		if err := s.snapshots.Clear(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to clear stale snapshot", "error", err)
		}
		return false, nil
	}

	s.mu.Lock()
	s.current = &domainauth.Session{
		Identity:       snap.Identity,
		EstablishedAt:  snap.EstablishedAt,
		LastActivityAt: snap.EstablishedAt,
	}
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "session restored from snapshot",
		"identity_id", snap.Identity.ID, "established_at", snap.EstablishedAt)
	if s.metrics != nil {
		s.metrics.Count("auth.session.restored", 1, nil)
	}
	return true, nil
}
