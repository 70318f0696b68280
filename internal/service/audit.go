package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pulsenet/sessiond/internal/ports"
)

// AuditServiceOptions groups dependencies for AuditService.
type AuditServiceOptions struct {
	Sinks  []ports.AuditSink // Optional: zero sinks means events are dropped
	Logger *slog.Logger      // Optional: structured logger
	Now    func() time.Time  // Optional: clock override for tests
}

// AuditService assembles audit events and fans them out to the configured
// sinks. Delivery follows the sink contract: best effort, never blocking the
// authentication path.
type AuditService struct {
	sinks  []ports.AuditSink
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewAuditService constructs a new AuditService.
func NewAuditService(opts AuditServiceOptions) *AuditService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &AuditService{
		sinks:  opts.Sinks,
		logger: logger.With("component", "audit_service"),
		now:    now,
		newID:  uuid.NewString,
	}
}

// RecordLogin records a successful authentication. Method names the stage
// that resolved the identity, for example "credentials" or "biometric".
func (a *AuditService) RecordLogin(ctx context.Context, identityID, method string) {
	a.record(ctx, ports.AuditLogin, identityID, method)
}

// RecordLogout records a session termination. Method is "manual" or
// "timeout".
func (a *AuditService) RecordLogout(ctx context.Context, identityID, method string) {
	a.record(ctx, ports.AuditLogout, identityID, method)
}

func (a *AuditService) record(ctx context.Context, action ports.AuditAction, identityID, method string) {
	event := ports.AuditEvent{
		ID:         a.newID(),
		Timestamp:  a.now().UTC(),
		Action:     action,
		IdentityID: identityID,
	}
	if method != "" {
		event.Metadata = map[string]string{"method": method}
	}

	for _, sink := range a.sinks {
		sink.Record(ctx, event)
	}
}
