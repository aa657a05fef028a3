package testutil

import (
	"testing"

	"github.com/nhle/planner/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return OpenTestStore(t, ":memory:")
}

// OpenTestStore opens a SQLiteStore at path (typically under t.TempDir())
// and closes it when the test completes. Opening the same path twice
// simulates two sessions sharing one cache file.
func OpenTestStore(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}
