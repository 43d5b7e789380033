// Package viz renders multi-panel chart dashboards for analysis questions.
package viz

import (
	"fmt"
	"os"
	"sync"
)

// ArtifactStore is the single chart slot. Every render overwrites the
// previous artifact, so only the most recent chart is ever retrievable.
type ArtifactStore struct {
	path string

	mu     sync.RWMutex
	latest []byte
}

// NewArtifactStore creates a store writing to the well-known path.
func NewArtifactStore(path string) *ArtifactStore {
	return &ArtifactStore{path: path}
}

// Path returns the well-known artifact location.
func (s *ArtifactStore) Path() string {
	return s.path
}

// Put replaces the current artifact with the rendered bytes, on disk and
// in memory.
func (s *ArtifactStore) Put(png []byte) error {
	if err := os.WriteFile(s.path, png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart artifact: %w", err)
	}

	s.mu.Lock()
	s.latest = png
	s.mu.Unlock()
	return nil
}

// Latest returns the most recent artifact bytes. The second return is false
// in the no-chart state.
func (s *ArtifactStore) Latest() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, false
	}
	return s.latest, true
}

// Exists reports whether an artifact is present at the well-known path.
func (s *ArtifactStore) Exists() bool {
	if _, ok := s.Latest(); ok {
		return true
	}
	_, err := os.Stat(s.path)
	return err == nil
}
