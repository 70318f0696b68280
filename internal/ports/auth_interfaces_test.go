package ports_test

import (
	"testing"

	mocksauth "github.com/pulsenet/sessiond/internal/mocks/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

// This test only verifies that our test doubles conform to the ports at
// compile time.
func TestDoublesImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.SnapshotStore = (*mocksauth.MemorySnapshotStore)(nil)
	var _ ports.Stage = (*mocksauth.StubStage)(nil)
	var _ ports.PairedDevice = (*mocksauth.FakeDevice)(nil)
	var _ ports.AuditSink = (*mocksauth.CaptureSink)(nil)
}
