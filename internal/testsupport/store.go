package testsupport

import (
	"context"
	"testing"

	"mediasort/internal/config"
	"mediasort/internal/journal"
)

// MustOpenJournal opens the journal for cfg and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	if err := cfg.EnsureStateDir(); err != nil {
		t.Fatalf("EnsureStateDir: %v", err)
	}
	store, err := journal.Open(context.Background(), cfg.JournalPath())
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
