package skycheck

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateStore provides persistent storage for per-capability enablement state.
// It is the only state with a lifecycle spanning multiple check runs; the
// reconciler is its sole writer. Get and Set are assumed atomic at the
// single-capability granularity.
type StateStore interface {
	// GetEnabled returns the cached enabled provider set for a capability.
	// A capability never written returns an empty set, not an error.
	GetEnabled(ctx context.Context, c Capability) ([]CloudProvider, error)

	// SetEnabled replaces the cached enabled provider set for a capability.
	SetEnabled(ctx context.Context, c Capability, providers []CloudProvider) error
}

// StateStoreVersion is the current schema version for state storage.
const StateStoreVersion = 1

// StateData is the serializable state format.
type StateData struct {
	Version   int                            `json:"version"`
	Enabled   map[Capability][]CloudProvider `json:"enabled"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// MemoryStateStore is an in-memory StateStore implementation for testing.
type MemoryStateStore struct {
	mu    sync.RWMutex
	state StateData
}

// NewMemoryStateStore creates a new in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		state: StateData{
			Version:   StateStoreVersion,
			Enabled:   make(map[Capability][]CloudProvider),
			UpdatedAt: time.Now(),
		},
	}
}

// GetEnabled implements StateStore.
func (s *MemoryStateStore) GetEnabled(ctx context.Context, c Capability) ([]CloudProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]CloudProvider(nil), s.state.Enabled[c]...), nil
}

// SetEnabled implements StateStore.
func (s *MemoryStateStore) SetEnabled(ctx context.Context, c Capability, providers []CloudProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Enabled[c] = append([]CloudProvider(nil), providers...)
	s.state.UpdatedAt = time.Now()
	return nil
}

// FileStateStore is a file-based StateStore implementation.
type FileStateStore struct {
	mu       sync.RWMutex
	filePath string
	state    StateData
}

// NewFileStateStore creates a new file-based state store.
// If the file exists, it loads the existing state.
func NewFileStateStore(filePath string) (*FileStateStore, error) {
	s := &FileStateStore{
		filePath: filePath,
		state: StateData{
			Version:   StateStoreVersion,
			Enabled:   make(map[Capability][]CloudProvider),
			UpdatedAt: time.Now(),
		},
	}

	// Try to load existing state
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	return s, nil
}

// load reads state from file.
func (s *FileStateStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var state StateData
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("invalid state file format: %w", err)
	}

	// Handle version migration
	if state.Version != StateStoreVersion {
		if err := s.migrate(&state); err != nil {
			return fmt.Errorf("state migration failed: %w", err)
		}
	}

	if state.Enabled == nil {
		state.Enabled = make(map[Capability][]CloudProvider)
	}

	s.state = state
	return nil
}

// migrate handles schema version upgrades.
func (s *FileStateStore) migrate(state *StateData) error {
	// Currently only version 1, no migration needed
	// Future versions would add migration logic here
	state.Version = StateStoreVersion
	return nil
}

// save writes state to file atomically.
func (s *FileStateStore) save() error {
	s.state.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write atomically using temp file
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile) // Clean up temp file
		return fmt.Errorf("failed to rename state file: %w", err)
	}

	return nil
}

// GetEnabled implements StateStore.
func (s *FileStateStore) GetEnabled(ctx context.Context, c Capability) ([]CloudProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]CloudProvider(nil), s.state.Enabled[c]...), nil
}

// SetEnabled implements StateStore.
func (s *FileStateStore) SetEnabled(ctx context.Context, c Capability, providers []CloudProvider) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Enabled[c] = append([]CloudProvider(nil), providers...)
	return s.save()
}

// DefaultStateStorePath returns the default path for the state store file.
func DefaultStateStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".skycheck", "state.json")
}
