// Package audit provides sinks that consume authentication audit events.
// Sinks are fire-and-forget: they never fail the login or logout that
// produced the event.
package audit

import (
	"context"
	"log/slog"

	"github.com/pulsenet/sessiond/internal/ports"
)

// LogSink writes audit events to the structured log.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "audit")}
}

// Record implements ports.AuditSink.
func (s *LogSink) Record(ctx context.Context, event ports.AuditEvent) {
	attrs := []any{
		"event_id", event.ID,
		"action", string(event.Action),
		"identity_id", event.IdentityID,
		"event_time", event.Timestamp,
	}
	if method, ok := event.Metadata["method"]; ok {
		attrs = append(attrs, "method", method)
	}
	s.logger.InfoContext(ctx, "audit event", attrs...)
}
