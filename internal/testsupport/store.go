package testsupport

import (
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/state"
)

// MustOpenStore opens the state store at the config's state file path.
func MustOpenStore(t testing.TB, cfg *config.Config) *state.Store {
	t.Helper()

	store, err := state.Open(cfg.Paths.StateFile, nil)
	if err != nil {
		t.Fatalf("state.Open: %v", err)
	}
	return store
}

// NewContact ensures a contact exists in the store for tests.
func NewContact(t testing.TB, store *state.Store, name string) {
	t.Helper()

	if _, err := store.EnsureContact(name, 0, time.Now()); err != nil {
		t.Fatalf("store.EnsureContact: %v", err)
	}
}
