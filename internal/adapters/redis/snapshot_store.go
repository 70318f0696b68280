// Package redis provides Redis-backed adapters for session persistence.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

// Persisted key names. The identity and the establishment timestamp live in
// separate keys; a snapshot is only usable when both are present.
const (
	KeyUser    = "pulsenet_user"
	KeySession = "pulsenet_session"
)

// SnapshotStore is a Redis-based ports.SnapshotStore. Keys carry a TTL equal
// to the restore window, so Redis discards snapshots the restore path would
// reject anyway.
type SnapshotStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewSnapshotStore creates a Redis snapshot store. The TTL should match the
// session inactivity timeout.
func NewSnapshotStore(client redis.UniversalClient, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		ttl:    ttl,
	}
}

// NewSnapshotStoreWithPrefix creates a snapshot store whose keys carry a
// custom prefix, for sharing one Redis between deployments.
func NewSnapshotStoreWithPrefix(client redis.UniversalClient, ttl time.Duration, prefix string) *SnapshotStore {
	return &SnapshotStore{
		client: client,
		ttl:    ttl,
		prefix: prefix,
	}
}

func (s *SnapshotStore) Save(ctx context.Context, snap ports.Snapshot) error {
	if snap.Identity.ID == "" {
		return errors.New("snapshot identity ID cannot be empty")
	}
	if snap.EstablishedAt.IsZero() {
		return errors.New("snapshot establishment time cannot be zero")
	}

	data, err := json.Marshal(snap.Identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	stamp := strconv.FormatInt(snap.EstablishedAt.UnixMilli(), 10)

	// Both keys in one round trip so a crash cannot leave half a snapshot.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.prefix+KeyUser, data, s.ttl)
	pipe.Set(ctx, s.prefix+KeySession, stamp, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Load(ctx context.Context) (ports.Snapshot, error) {
	vals, err := s.client.MGet(ctx, s.prefix+KeyUser, s.prefix+KeySession).Result()
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("redis load snapshot: %w", err)
	}

	userRaw, ok := vals[0].(string)
	if !ok {
		return ports.Snapshot{}, ports.ErrSnapshotNotFound
	}
	stampRaw, ok := vals[1].(string)
	if !ok {
		return ports.Snapshot{}, ports.ErrSnapshotNotFound
	}

	var identity domainauth.Identity
	if err := json.Unmarshal([]byte(userRaw), &identity); err != nil {
		return ports.Snapshot{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	millis, err := strconv.ParseInt(stampRaw, 10, 64)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("parse establishment time: %w", err)
	}

	return ports.Snapshot{
		Identity:      identity,
		EstablishedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.prefix+KeyUser, s.prefix+KeySession).Err(); err != nil {
		return fmt.Errorf("redis clear snapshot: %w", err)
	}
	return nil
}
