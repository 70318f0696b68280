package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SnapshotStore = (*MemorySnapshotStore)(nil)
	_ ports.Stage         = (*StubStage)(nil)
	_ ports.PairedDevice  = (*FakeDevice)(nil)
	_ ports.AuditSink     = (*CaptureSink)(nil)
)

// MemorySnapshotStore is an in-memory ports.SnapshotStore.
type MemorySnapshotStore struct {
	mu       sync.Mutex
	snapshot *ports.Snapshot

	// SaveErr, LoadErr and ClearErr force the corresponding call to fail.
	SaveErr  error
	LoadErr  error
	ClearErr error
}

// NewMemorySnapshotStore creates an empty MemorySnapshotStore.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (m *MemorySnapshotStore) Save(_ context.Context, snap ports.Snapshot) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = &snap
	return nil
}

func (m *MemorySnapshotStore) Load(_ context.Context) (ports.Snapshot, error) {
	if m.LoadErr != nil {
		return ports.Snapshot{}, m.LoadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return ports.Snapshot{}, ports.ErrSnapshotNotFound
	}
	return *m.snapshot, nil
}

func (m *MemorySnapshotStore) Clear(_ context.Context) error {
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = nil
	return nil
}

// Stored returns a copy of the persisted snapshot, or nil.
func (m *MemorySnapshotStore) Stored() *ports.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot == nil {
		return nil
	}
	snap := *m.snapshot
	return &snap
}

// StubStage is a configurable ports.Stage.
type StubStage struct {
	StageKind ports.StageKind
	// AttemptFunc handles the attempt. When nil the stage succeeds with
	// Identity.
	AttemptFunc func(ctx context.Context, in ports.StageInputs) (ports.StageResult, error)
	// Identity is returned by the default success path. Nil for
	// confirmation-only stages.
	Identity *domainauth.Identity

	mu       sync.Mutex
	attempts []ports.StageInputs
}

func (s *StubStage) Kind() ports.StageKind {
	return s.StageKind
}

func (s *StubStage) Attempt(ctx context.Context, in ports.StageInputs) (ports.StageResult, error) {
	s.mu.Lock()
	s.attempts = append(s.attempts, in)
	s.mu.Unlock()

	if s.AttemptFunc != nil {
		return s.AttemptFunc(ctx, in)
	}
	return ports.StageResult{Stage: s.StageKind, Identity: s.Identity}, nil
}

// Attempts returns the inputs of every attempt so far.
func (s *StubStage) Attempts() []ports.StageInputs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.StageInputs(nil), s.attempts...)
}

// FakeDevice is a ports.PairedDevice with a fixed code.
type FakeDevice struct {
	DeviceID  string
	Code      string
	Remaining time.Duration
	// VerifyErr is returned by Verify regardless of the entered code.
	VerifyErr error
	// MismatchErr is returned when the entered code differs from Code.
	MismatchErr error
}

func (d *FakeDevice) ID() string {
	if d.DeviceID == "" {
		return "fake-device"
	}
	return d.DeviceID
}

func (d *FakeDevice) CurrentCode(time.Time) (string, error) {
	return d.Code, nil
}

func (d *FakeDevice) ExpiresIn(time.Time) time.Duration {
	return d.Remaining
}

func (d *FakeDevice) Verify(_ time.Time, code string) error {
	if d.VerifyErr != nil {
		return d.VerifyErr
	}
	if code != d.Code {
		return d.MismatchErr
	}
	return nil
}

// CaptureSink records every audit event it receives.
type CaptureSink struct {
	mu     sync.Mutex
	events []ports.AuditEvent
}

func (c *CaptureSink) Record(_ context.Context, event ports.AuditEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

// Events returns the recorded events.
func (c *CaptureSink) Events() []ports.AuditEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.AuditEvent(nil), c.events...)
}
