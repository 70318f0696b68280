// Package localstore persists the session snapshot as files in a local
// directory. It is the default backend for single-node deployments where
// Redis is not configured.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

// File names under the store directory. The identity and the establishment
// timestamp are separate entries; a snapshot is only usable when both exist.
const (
	FileUser    = "pulsenet_user"
	FileSession = "pulsenet_session"
)

// Store is a file-backed ports.SnapshotStore. Writes go through a temp file
// and rename so readers never observe a torn entry.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("localstore directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create localstore directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Save(_ context.Context, snap ports.Snapshot) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeEntry(FileUser, data); err != nil {
		return err
	}
	return s.writeEntry(FileSession, []byte(stamp))
}

func (s *Store) Load(_ context.Context) (ports.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userRaw, err := s.readEntry(FileUser)
	if err != nil {
		return ports.Snapshot{}, err
	}
	stampRaw, err := s.readEntry(FileSession)
	if err != nil {
		return ports.Snapshot{}, err
	}

	var identity domainauth.Identity
	if err := json.Unmarshal(userRaw, &identity); err != nil {
		return ports.Snapshot{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	millis, err := strconv.ParseInt(strings.TrimSpace(string(stampRaw)), 10, 64)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("parse establishment time: %w", err)
	}

	return ports.Snapshot{
		Identity:      identity,
		EstablishedAt: time.UnixMilli(millis).UTC(),
	}, nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{FileUser, FileSession} {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) writeEntry(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp entry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

func (s *Store) readEntry(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
