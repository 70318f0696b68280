// Package mocks provides mock implementations for testing the session
// lifecycle service.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the port interfaces. Hand-written doubles for the auth ports live in
// the auth subpackage.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for SnapshotStore interface from internal/ports.
// This creates MockSnapshotStore with Save, Load and Clear.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=snapshot_store_mock.go github.com/pulsenet/sessiond/internal/ports SnapshotStore

// Generate mock for AuditSink interface from internal/ports.
// This creates MockAuditSink with Record.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=audit_sink_mock.go github.com/pulsenet/sessiond/internal/ports AuditSink
