// Package filestore is the default identity.Persister: the full
// identity snapshot as a single JSON file under the server's data
// directory, written atomically via a temp-file-then-rename.
package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vegamsg/vegaserver/internal/identity"
)

// Store persists an identity.Snapshot to a single JSON file.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a Store backed by the given file path. The containing
// directory is created if missing.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{path: path}, nil
}

// Load reads the snapshot, returning an empty one if the file does
// not exist yet or cannot be parsed.
func (s *Store) Load() (identity.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	empty := identity.Snapshot{
		Users:  make(map[string]identity.User),
		Groups: make(map[string]identity.Group),
	}

	b, err := os.ReadFile(s.path)
	if err != nil {
		return empty, nil
	}
	if len(b) == 0 {
		return empty, nil
	}

	var snap identity.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return empty, nil
	}
	if snap.Users == nil {
		snap.Users = make(map[string]identity.User)
	}
	if snap.Groups == nil {
		snap.Groups = make(map[string]identity.Group)
	}
	return snap, nil
}

// Save writes the snapshot atomically.
func (s *Store) Save(snap identity.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("writing temp snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("renaming temp snapshot: %w", err)
	}
	return nil
}
