package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/pulsenet/sessiond/internal/ports"
)

// insertTimeout bounds each detached audit insert.
const insertTimeout = 5 * time.Second

// Recorder persists audit events. Implemented by data.AuditRepo.
type Recorder interface {
	Insert(ctx context.Context, event ports.AuditEvent) error
}

// StoreSink persists audit events through a Recorder. Inserts run detached
// from the caller's context so a canceled request cannot lose its trail, and
// insert failures are logged rather than surfaced.
type StoreSink struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(recorder Recorder, logger *slog.Logger) *StoreSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{
		recorder: recorder,
		logger:   logger.With("component", "audit_store"),
	}
}

// Record implements ports.AuditSink.
func (s *StoreSink) Record(ctx context.Context, event ports.AuditEvent) {
	if s.recorder == nil {
		return
	}

	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	if err := s.recorder.Insert(detached, event); err != nil {
		s.logger.ErrorContext(detached, "failed to persist audit event",
			"event_id", event.ID,
			"action", string(event.Action),
			"error", err)
	}
}
