package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/RedouaeElalami/chutney/internal/db"
)

// NewStore opens a migrated SQLite store in a temp dir, closed on cleanup.
func NewStore(t *testing.T) (*db.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := db.Open(ctx, filepath.Join(t.TempDir(), "chutney-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store, ctx
}
