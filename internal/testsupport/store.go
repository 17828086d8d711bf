package testsupport

import (
	"context"
	"testing"

	"scribe/internal/config"
	"scribe/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSubmission inserts a pending record for tests using the provided store.
func NewSubmission(t testing.TB, store *jobs.Store, rec jobs.Record) *jobs.Record {
	t.Helper()

	created, err := store.NewSubmission(context.Background(), rec)
	if err != nil {
		t.Fatalf("store.NewSubmission: %v", err)
	}
	return created
}
