package testsupport

import (
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/jobstore"
)

// MustOpenStore opens the job store at the config's state path and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobstore.Store {
	t.Helper()

	store, err := jobstore.Open(cfg.JobStorePath())
	if err != nil {
		t.Fatalf("jobstore.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
