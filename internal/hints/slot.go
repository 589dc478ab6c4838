package hints

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoHint reports that no ready hint is available to view.
var ErrNoHint = errors.New("no hint ready")

const slotFileName = "current-hint.json"

// Slot is the single overwritable reference to the most recent ready
// artifact. Replace is a temp-then-rename of one JSON file, so a concurrent
// Load observes either the prior artifact or the new one in full, never a
// partial write. The image and text files the slot references live in the
// append-only archive and are never mutated.
type Slot struct {
	path string
}

// NewSlot creates a slot stored under the given data directory.
func NewSlot(dataDir string) *Slot {
	return &Slot{path: filepath.Join(dataDir, slotFileName)}
}

// Path returns the slot file location.
func (s *Slot) Path() string {
	return s.path
}

// Replace atomically points the slot at the given ready artifact.
func (s *Slot) Replace(artifact *Artifact) error {
	if artifact == nil {
		return errors.New("nil artifact")
	}
	if artifact.Status != StatusReady {
		return fmt.Errorf("refusing to publish artifact %s with status %q", artifact.ID, artifact.Status)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("encode hint slot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create slot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".current-hint-*")
	if err != nil {
		return fmt.Errorf("create slot temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write slot temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close slot temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace hint slot: %w", err)
	}
	return nil
}

// Load returns the current ready artifact, or ErrNoHint when the slot is
// empty or the referenced artifact is not ready.
func (s *Slot) Load() (*Artifact, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoHint
		}
		return nil, fmt.Errorf("read hint slot: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("decode hint slot: %w", err)
	}
	if artifact.Status != StatusReady {
		return nil, ErrNoHint
	}
	return &artifact, nil
}
