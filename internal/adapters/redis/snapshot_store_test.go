package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
	"github.com/pulsenet/sessiond/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func testSnapshot() ports.Snapshot {
	return ports.Snapshot{
		Identity: domainauth.Identity{
			ID:          "1",
			DisplayName: "Dr. Sarah Johnson",
			Email:       "sarah.johnson@hospital.com",
			Role:        domainauth.RoleWorker,
		},
		EstablishedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestSnapshotStore_SaveAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStore(client, 30*time.Minute)
	ctx := context.Background()

	snap := testSnapshot()
	require.NoError(t, store.Save(ctx, snap))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Identity, loaded.Identity)
	assert.WithinDuration(t, snap.EstablishedAt, loaded.EstablishedAt, time.Millisecond)

	// Keys carry the restore-window TTL.
	ttl, err := client.TTL(ctx, KeyUser).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 29*time.Minute)
}

func TestSnapshotStore_LoadMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStore(client, 30*time.Minute)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestSnapshotStore_LoadHalfSnapshot(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStore(client, 30*time.Minute)
	ctx := context.Background()

	// Identity present without an establishment timestamp is not restorable.
	require.NoError(t, client.Set(ctx, KeyUser, `{"id":"1"}`, 0).Err())

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)
}

func TestSnapshotStore_Clear(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStore(client, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))
	require.NoError(t, store.Clear(ctx))

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, ports.ErrSnapshotNotFound)

	// Clearing an empty store is not an error.
	assert.NoError(t, store.Clear(ctx))
}

func TestSnapshotStore_SaveValidation(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStore(client, 30*time.Minute)
	ctx := context.Background()

	err := store.Save(ctx, ports.Snapshot{EstablishedAt: time.Now()})
	assert.Error(t, err, "identity without ID must be rejected")

	err = store.Save(ctx, ports.Snapshot{Identity: domainauth.Identity{ID: "1"}})
	assert.Error(t, err, "zero establishment time must be rejected")
}

func TestSnapshotStore_Prefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSnapshotStoreWithPrefix(client, 30*time.Minute, "east:")
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testSnapshot()))

	exists, err := client.Exists(ctx, "east:"+KeyUser, "east:"+KeySession).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), exists)
}
