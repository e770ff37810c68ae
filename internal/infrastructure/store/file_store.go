// Package store provides credential store backends: a JSON file for
// workstation installs and Redis for kiosk installs sharing a desk profile.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

// snapshot is the persisted mirror of the session. Presence does not imply
// validity; it is always re-validated before trust is extended.
type snapshot struct {
	Identity *domain.Identity `json:"identity"`
	Token    string           `json:"token"`
}

// FileStore persists the credential snapshot as a JSON file, mode 0600.
type FileStore struct {
	path string
}

// NewFileStore builds a FileStore at path. When path is empty the snapshot
// lives under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "opsdesk", "credentials.json")
	}
	return &FileStore{path: path}, nil
}

// Save writes both values, replacing any previous snapshot. Written via a
// temp file and rename so a crash never leaves a half-written snapshot.
func (s *FileStore) Save(_ context.Context, identity *domain.Identity, token string) error {
	data, err := json.Marshal(snapshot{Identity: identity, Token: token})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Load returns the persisted snapshot, or absent. A missing file, unparsable
// content, or a snapshot with only one of the two values all read as absent.
func (s *FileStore) Load(_ context.Context) (*domain.Identity, string, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, "", false
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, "", false
	}
	if snap.Identity == nil || snap.Identity.ID == "" || snap.Token == "" {
		return nil, "", false
	}
	return snap.Identity, snap.Token, true
}

// Clear removes the snapshot. Safe to call when nothing is persisted.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove snapshot: %w", err)
	}
	return nil
}
