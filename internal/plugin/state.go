package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// State is the persisted plugin activation list. Order is activation
// order, which the dispatcher's precedence rules depend on.
type State struct {
	Active []string `json:"active"`
}

// LoadState reads the activation list from path. A missing file
// yields an empty state.
func LoadState(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &State{}, nil
		}
		return nil, fmt.Errorf("read plugin state: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse plugin state: %w", err)
	}
	return &st, nil
}

// Save writes the activation list atomically: temp file then rename.
func (s *State) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plugin state: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write plugin state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("save plugin state: %w", err)
	}
	return nil
}

// IsActive reports whether a plugin is persistently activated.
func (s *State) IsActive(name string) bool {
	return slices.Contains(s.Active, name)
}

// Activate appends a plugin to the activation list. Re-activating an
// already active plugin moves it to the end, making it the most
// recently activated.
func (s *State) Activate(name string) {
	s.Deactivate(name)
	s.Active = append(s.Active, name)
}

// Deactivate removes a plugin from the activation list. Removing an
// inactive plugin is a no-op.
func (s *State) Deactivate(name string) {
	if i := slices.Index(s.Active, name); i >= 0 {
		s.Active = slices.Delete(s.Active, i, i+1)
	}
}
