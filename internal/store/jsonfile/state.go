package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/colonyops/orchestraterm/internal/core/engine"
)

const (
	// EnvRuntimeDir overrides the directory holding runtime files.
	EnvRuntimeDir = "ORCHESTRATERM_RUNTIME_DIR"

	defaultRuntimeDirName = ".orchestraterm-runtime"
	stateFileName         = "engine-state.json"
)

// ResolveRuntimeDir returns the runtime directory, creating it if needed.
// A non-blank override wins; otherwise the directory lives under the
// current working directory.
func ResolveRuntimeDir(override string) (string, error) {
	dir := strings.TrimSpace(override)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(EnvRuntimeDir))
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve runtime dir: %w", err)
		}
		dir = filepath.Join(cwd, defaultRuntimeDirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create runtime dir: %w", err)
	}
	return dir, nil
}

// StatePath returns the state document path inside a runtime directory.
func StatePath(runtimeDir string) string {
	return filepath.Join(runtimeDir, stateFileName)
}

// StateStore persists the engine state as a single JSON document.
// It does no locking of its own; callers serialize through engine.Guard.
type StateStore struct {
	path string
	log  zerolog.Logger
}

// NewStateStore creates a store for the document at path.
func NewStateStore(path string, log zerolog.Logger) *StateStore {
	return &StateStore{path: path, log: log}
}

func (s *StateStore) Path() string {
	return s.path
}

// Save writes the state atomically: a sibling temp file is written and then
// renamed over the target, so readers never observe a partial document.
func (s *StateStore) Save(state *engine.State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Load reads the document. A missing or empty file yields a default state
// with a nil error; a corrupt file is returned as an error.
func (s *StateStore) Load() (*engine.State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return engine.Default(), nil
		}
		return nil, fmt.Errorf("read state: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return engine.Default(), nil
	}

	var state engine.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state.Normalize()
	return &state, nil
}

// LoadOrDefault never fails: unreadable or corrupt documents are logged and
// replaced by a fresh default state.
func (s *StateStore) LoadOrDefault() *engine.State {
	state, err := s.Load()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("falling back to default state")
		return engine.Default()
	}
	return state
}

// Open loads the state and writes it straight back, so a corrupt document
// is replaced at startup instead of on the first mutation. A failed write
// is logged; the caller still gets a usable state.
func (s *StateStore) Open() *engine.State {
	state := s.LoadOrDefault()
	if err := s.Save(state); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("rewrite state")
	}
	return state
}
