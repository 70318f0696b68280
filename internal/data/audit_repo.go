package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
	"github.com/pulsenet/sessiond/internal/ports"
)

// AuditRepo provides database operations for the audit trail.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditRepo creates a new AuditRepo instance with the given database connection.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

const auditColumns = `id, occurred_at, action, identity_id, metadata`

// Insert stores one audit event.
func (r *AuditRepo) Insert(ctx context.Context, event ports.AuditEvent) error {
	if event.ID == "" {
		return errors.New("audit event ID is required")
	}
	if event.Action != ports.AuditLogin && event.Action != ports.AuditLogout {
		return fmt.Errorf("unknown audit action %q", event.Action)
	}

	metadata := event.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal audit metadata: %w", err)
	}

	occurredAt := event.Timestamp
	if occurredAt.IsZero() {
		occurredAt = r.timeProvider.Now()
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, action, identity_id, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		event.ID, occurredAt.UTC(), string(event.Action), event.IdentityID, metaJSON)
	if err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// ListRecent returns the most recent audit events, newest first.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]ports.AuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	return scanAuditEvents(rows)
}

// ListByIdentity returns the most recent audit events for one identity,
// newest first.
func (r *AuditRepo) ListByIdentity(ctx context.Context, identityID string, limit int) ([]ports.AuditEvent, error) {
	if identityID == "" {
		return nil, apperrors.ValidationField("identity_id", "identity ID is required")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+auditColumns+`
		FROM audit_events
		WHERE identity_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, identityID, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	return scanAuditEvents(rows)
}

func scanAuditEvents(rows *sql.Rows) ([]ports.AuditEvent, error) {
	var events []ports.AuditEvent
	for rows.Next() {
		var (
			event    ports.AuditEvent
			action   string
			metaJSON []byte
		)
		if err := rows.Scan(&event.ID, &event.Timestamp, &action, &event.IdentityID, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Action = ports.AuditAction(action)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &event.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal audit metadata: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return events, nil
}
