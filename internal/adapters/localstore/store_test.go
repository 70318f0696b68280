package localstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func testSnapshot() ports.Snapshot {
	return ports.Snapshot{
		Identity: domainauth.Identity{
			ID:          "2",
			DisplayName: "Michael Chen",
			Email:       "michael.chen@hospital.com",
			Role:        domainauth.RolePeopleOps,
		},
		EstablishedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Identity, loaded.Identity)
	assert.WithinDuration(t, snap.EstablishedAt, loaded.EstablishedAt, time.Millisecond)
}

func TestStore_LoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestStore_LoadHalfSnapshot(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	// Identity file without a timestamp file is not restorable.
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileUser), []byte(`{"id":"2"}`), 0o600))

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestStore_Clear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)

	// Clearing an empty store is not an error.
	assert.NoError(t, store.Clear(ctx))
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testSnapshot()
	require.NoError(t, store.Save(ctx, first))

	second := first
	second.Identity.ID = "3"
	second.EstablishedAt = first.EstablishedAt.Add(time.Minute)
	require.NoError(t, store.Save(ctx, second))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3", loaded.Identity.ID)
	assert.WithinDuration(t, second.EstablishedAt, loaded.EstablishedAt, time.Millisecond)
}

func TestStore_SaveValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Save(ctx, ports.Snapshot{EstablishedAt: time.Now()})
	assert.Error(t, err, "identity without ID must be rejected")

	err = store.Save(ctx, ports.Snapshot{Identity: domainauth.Identity{ID: "2"}})
	assert.Error(t, err, "zero establishment time must be rejected")
}

func TestNew_EmptyDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
