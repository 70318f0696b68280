package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

func TestMemorySnapshotStore_RoundTrip(t *testing.T) {
	store := NewMemorySnapshotStore()
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)

	snap := ports.Snapshot{
		Identity:      domainauth.Identity{ID: "1", Role: domainauth.RoleWorker},
		EstablishedAt: time.Now(),
	}
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Identity, loaded.Identity)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestMemorySnapshotStore_ForcedErrors(t *testing.T) {
	boom := errors.New("boom")
	store := NewMemorySnapshotStore()
	store.SaveErr = boom

	err := store.Save(context.Background(), ports.Snapshot{})
	assert.ErrorIs(t, err, boom)
}

func TestStubStage_DefaultSuccess(t *testing.T) {
	identity := domainauth.Identity{ID: "1"}
	stage := &StubStage{StageKind: ports.StageCredentials, Identity: &identity}

	result, err := stage.Attempt(context.Background(), ports.StageInputs{Email: "a@b.test"})
	require.NoError(t, err)
	assert.Equal(t, ports.StageCredentials, result.Stage)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "1", result.Identity.ID)

	attempts := stage.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "a@b.test", attempts[0].Email)
}

func TestFakeDevice_Verify(t *testing.T) {
	mismatch := errors.New("mismatch")
	device := &FakeDevice{Code: "123456", MismatchErr: mismatch}

	assert.NoError(t, device.Verify(time.Now(), "123456"))
	assert.ErrorIs(t, device.Verify(time.Now(), "000000"), mismatch)
}

func TestCaptureSink_Records(t *testing.T) {
	sink := &CaptureSink{}
	sink.Record(context.Background(), ports.AuditEvent{ID: "evt-1", Action: ports.AuditLogin})

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
}
