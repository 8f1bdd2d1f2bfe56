// Package testutil provides shared fixtures for sieve tests: migrated
// in-memory databases and review corpora written as JSONL.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/sieve/internal/storage"
)

// SetupTestDB creates a migrated in-memory database that is closed when the
// test ends.
//
// Example:
//
//	store := testutil.SetupTestDB(t)
//	runs, err := store.ListRuns(ctx)
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(storage.MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SetupTestDBWithRun creates a test database with one run already begun.
func SetupTestDBWithRun(t *testing.T, runID string) *storage.SQLiteStorage {
	t.Helper()

	store := SetupTestDB(t)
	if err := store.BeginRun(context.Background(), storage.Run{ID: runID, Input: "test"}); err != nil {
		t.Fatalf("failed to begin run %q: %v", runID, err)
	}
	return store
}
