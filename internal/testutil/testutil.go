// Package testutil provides shared test helpers for setting up state
// directories and history databases.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/storage"
	"github.com/starford/raido/internal/tracker"
)

// TestDB creates a temporary SQLite history database that is automatically
// cleaned up.
func TestDB(t *testing.T) *history.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestState creates a temporary state directory with a storage.Provider.
func TestState(t *testing.T) (string, storage.Provider) {
	t.Helper()
	stateDir := t.TempDir()
	store, err := storage.NewFS(stateDir)
	if err != nil {
		t.Fatal(err)
	}
	return stateDir, store
}

// TestTracker creates a tracker backed by a temporary state directory.
func TestTracker(t *testing.T) *tracker.Tracker {
	t.Helper()
	_, store := TestState(t)
	return tracker.New(store)
}
