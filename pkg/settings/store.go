package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// KV is the contract the rest of the application has with persisted settings
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Persist() error
}

// Defaults are the values used for keys missing from the settings file
var Defaults = map[string]string{
	"hotkey.skip_forward":      "Ctrl+Alt+O",
	"hotkey.skip_backward":     "Ctrl+Alt+I",
	"hotkey.play_pause":        "Ctrl+Alt+P",
	"hotkey.volume_down":       "Ctrl+Alt+K",
	"hotkey.volume_up":         "Ctrl+Alt+L",
	"hotkeys.enabled":          "true",
	"spotify.access_token":     "",
	"spotify.refresh_token":    "",
	"spotify.token_expires_at": "0",
}

var _ KV = (*Store)(nil)

// Store is a flat key/value map backed by a YAML file
type Store struct {
	path   string
	logger *zap.SugaredLogger

	mu     sync.RWMutex
	values map[string]string
}

// New creates a store for the file at path, populated with Defaults. Call
// Load to overlay the file contents.
func New(path string, logger *zap.SugaredLogger) *Store {
	values := make(map[string]string, len(Defaults))
	for k, v := range Defaults {
		values[k] = v
	}

	return &Store{
		path:   path,
		logger: logger,
		values: values,
	}
}

// Load overlays values from the settings file. A missing file keeps the
// defaults; an unreadable or corrupt file is logged and also keeps them.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Infow("no existing settings found, using defaults", "path", s.path)
		return nil
	}
	if err != nil {
		s.logger.Warnw("failed to read settings, using defaults", "path", s.path, "error", err)
		return fmt.Errorf("error reading settings: %w", err)
	}

	var loaded map[string]string
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		s.logger.Warnw("failed to parse settings, using defaults", "path", s.path, "error", err)
		return fmt.Errorf("error parsing settings: %w", err)
	}

	s.mu.Lock()
	for k, v := range loaded {
		s.values[k] = v
	}
	s.mu.Unlock()

	s.logger.Infow("settings loaded", "path", s.path)
	return nil
}

// Get returns the value for key and whether it is known
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	return v, ok
}

// Set updates key in memory; Persist writes it out
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Persist atomically replaces the settings file with the current values
func (s *Store) Persist() error {
	s.mu.RLock()
	data, err := yaml.Marshal(s.values)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("error creating settings directory: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error writing settings: %w", err)
	}

	s.logger.Debugw("settings saved", "path", s.path)
	return nil
}
