// Package file implements the engine state store as a single JSON
// document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/streamguard/streamguard/internal/repository"
)

// Store persists engine state to a JSON file. Writes go through a
// temp file and rename so a crashed save never leaves a truncated
// document behind.
type Store struct {
	path string
}

// NewStore creates a file-backed state store at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the state document. A missing file yields an empty state,
// not an error.
func (s *Store) Load(_ context.Context) (*repository.EngineState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return repository.NewEngineState(), nil
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state repository.EngineState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}
	if state.SchemaVersion > repository.SchemaVersion {
		return nil, fmt.Errorf("state file schema version %d is newer than supported version %d",
			state.SchemaVersion, repository.SchemaVersion)
	}
	if state.Cooldowns == nil {
		state.Cooldowns = map[string]time.Time{}
	}
	return &state, nil
}

// Save writes the state document atomically.
func (s *Store) Save(_ context.Context, state *repository.EngineState) error {
	state.SchemaVersion = repository.SchemaVersion

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".streamguard-state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
