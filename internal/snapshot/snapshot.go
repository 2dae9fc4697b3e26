package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"orbbot/internal/ports"
)

// Store persists a single JSON document atomically: the document is written
// to a temporary file in the same directory and renamed over the target, so a
// crash mid-write leaves either the old snapshot or the new one, never a
// torn file.
type Store struct {
	path   string
	logger ports.Logger
}

// NewStore creates a snapshot store at the given path.
func NewStore(path string, logger ports.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: snapshot path is required", ports.ErrConfigurationError)
	}
	if logger == nil {
		return nil, errors.New("logger is required for snapshot store")
	}
	return &Store{path: path, logger: logger}, nil
}

// Save writes the value as the new snapshot.
func (s *Store) Save(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot into v. A missing file is not an error: the first
// return is false and v is untouched. An unreadable or unparsable file is
// state corruption and must stop the caller.
func (s *Store) Load(v interface{}) (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("%w: reading %s: %v", ports.ErrStateCorruption, s.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("%w: parsing %s: %v", ports.ErrStateCorruption, s.path, err)
	}
	return true, nil
}
