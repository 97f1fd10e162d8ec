// Package config persists user settings as a single JSON file.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"push-to-type/internal/domain"
)

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// JSONStore persists settings in a single JSON file on disk.
type JSONStore struct {
	path string
}

// NewJSONStore creates a JSON-backed settings store.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// DefaultPath returns the per-user settings location.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".push-to-type", "settings.json")
}

// Load reads settings from disk or returns defaults when missing. Loaded
// settings are normalized so a file from an older version still yields a
// binding for every role.
func (s *JSONStore) Load() (domain.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}

		return domain.Settings{}, err
	}

	var cfg domain.Settings
	if err := json.Unmarshal(data, &cfg); err != nil {
		return domain.Settings{}, err
	}

	return normalize(cfg), nil
}

// Save writes settings as indented JSON and creates parent directories.
func (s *JSONStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o644)
}

// normalize backfills missing fields from defaults and drops bindings for
// roles this build does not know.
func normalize(cfg domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	if cfg.BackendBaseURL == "" {
		cfg.BackendBaseURL = defaults.BackendBaseURL
	}
	if cfg.PollTimeoutSec <= 0 {
		cfg.PollTimeoutSec = defaults.PollTimeoutSec
	}

	bindings := make(map[domain.Role]domain.BindingConfig, len(domain.Roles))
	for _, role := range domain.Roles {
		if b, ok := cfg.Bindings[role]; ok && b.KeyCode != 0 {
			bindings[role] = b
			continue
		}
		bindings[role] = defaults.Bindings[role]
	}
	cfg.Bindings = bindings

	return cfg
}
