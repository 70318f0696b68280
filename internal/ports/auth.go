package ports

// Package ports defines interfaces (hexagonal ports) for the session and
// authentication lifecycle. Implementations live in internal/adapters;
// orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
)

// CredentialStore looks up identities in the fixed demo directory.
// Lookups are case-sensitive exact matches; absence is a normal not-found
// outcome, not a store error. The caller turns it into an authentication
// failure.
type CredentialStore interface {
	FindByEmail(email string) (domainauth.Identity, bool)
	FindByBiometricRef(ref string) (domainauth.Identity, bool)
}

// StageKind names one verification step in an authentication flow.
type StageKind string

const (
	StageCredentials     StageKind = "credentials"
	StageBiometric       StageKind = "biometric"
	StageSecondaryDevice StageKind = "secondary_device"
)

// StageInputs carries the user-collected inputs for one stage attempt.
// Each stage reads only the fields it needs.
type StageInputs struct {
	Email        string
	Secret       string
	Code         string
	BiometricRef string
}

// StageResult is produced by a successful stage attempt. Identity is set by
// stages that resolve the principal (password, biometric); confirmation-only
// stages leave it nil and the orchestrator keeps the identity resolved
// earlier in the sequence.
type StageResult struct {
	Stage    StageKind
	Identity *domainauth.Identity
}

// Stage attempts one verification step given collected inputs. Failures are
// returned as coded errors (see internal/errors) and are terminal to the
// current attempt only, never to the process. Implementations must honor
// context cancellation so an abandoned attempt cannot later resolve.
type Stage interface {
	Kind() StageKind
	Attempt(ctx context.Context, in StageInputs) (StageResult, error)
}

// Snapshot is the persisted copy of a bound session: the serialized identity
// plus the establishment timestamp. It is a serialized snapshot, not a
// second owner of the session record.
type Snapshot struct {
	Identity      domainauth.Identity
	EstablishedAt time.Time
}

// ErrSnapshotNotFound is returned by SnapshotStore.Load when no snapshot is
// persisted.
var ErrSnapshotNotFound = errors.New("session snapshot not found")

// SnapshotStore persists and restores the single session snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Clear(ctx context.Context) error
}

// PlatformProbe reports whether strong local verification hardware is
// available. Probe failures are treated by callers as "unavailable".
type PlatformProbe interface {
	Available(ctx context.Context) (bool, error)
}

// PairedDevice models the secondary device that displays one-time codes.
type PairedDevice interface {
	ID() string

	// CurrentCode returns the code valid at now.
	CurrentCode(now time.Time) (string, error)

	// ExpiresIn returns how long the code current at now remains valid.
	ExpiresIn(now time.Time) time.Duration

	// Verify checks an entered code at now. Expiry is re-checked at
	// verification time: a code from the closed previous window is rejected
	// as expired even though it once matched, and a fresh code is already
	// live as a side effect.
	Verify(now time.Time, code string) error
}

// AuditAction classifies an audit event.
type AuditAction string

const (
	AuditLogin  AuditAction = "login"
	AuditLogout AuditAction = "logout"
)

// AuditEvent is the record handed to audit sinks.
type AuditEvent struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Action     AuditAction       `json:"action"`
	IdentityID string            `json:"identity_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// AuditSink accepts audit events fire-and-forget. Implementations must not
// block the caller on delivery and must swallow their own failures; no
// delivery guarantee is required.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent)
}
