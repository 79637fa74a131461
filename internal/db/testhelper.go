package db

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestPool opens a migrated pool pair in t.TempDir() and closes it when
// the test ends.
func OpenTestPool(t *testing.T) *Pool {
	t.Helper()

	pool, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}
