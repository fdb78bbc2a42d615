package plugin

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestState_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".repobee", "plugins.json")

	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState(missing) error = %v", err)
	}
	if len(st.Active) != 0 {
		t.Fatalf("missing state should be empty, got %v", st.Active)
	}

	st.Activate("gitlab")
	st.Activate("tamanager")
	if err := st.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	st2, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if !slices.Equal(st2.Active, []string{"gitlab", "tamanager"}) {
		t.Errorf("Active = %v, want activation order preserved", st2.Active)
	}
}

func TestState_ReactivateMovesToEnd(t *testing.T) {
	st := &State{Active: []string{"gitlab", "tamanager"}}
	st.Activate("gitlab")
	if !slices.Equal(st.Active, []string{"tamanager", "gitlab"}) {
		t.Errorf("Active = %v, re-activation should move to end", st.Active)
	}
}

func TestState_Deactivate(t *testing.T) {
	st := &State{Active: []string{"gitlab", "tamanager"}}
	st.Deactivate("gitlab")
	if !slices.Equal(st.Active, []string{"tamanager"}) {
		t.Errorf("Active = %v", st.Active)
	}
	st.Deactivate("ghost") // no-op
	if !st.IsActive("tamanager") || st.IsActive("gitlab") {
		t.Error("IsActive bookkeeping wrong")
	}
}
