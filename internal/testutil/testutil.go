// Package testutil provides shared test helpers for setting up stores,
// databases and services.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/stencil/internal/docservice"
	"github.com/starford/stencil/internal/index"
	"github.com/starford/stencil/internal/logging"
	"github.com/starford/stencil/internal/storage"
)

// Logger discards everything.
var Logger = logging.Discard()

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "stencil-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStore creates a temporary store directory.
func TestStore(t *testing.T, opts ...storage.Option) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(t.TempDir(), opts...)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestService wires a service over a temporary store and database.
func TestService(t *testing.T, opts ...docservice.Option) (*docservice.Service, *storage.FS, *index.DB) {
	t.Helper()
	store, db := TestStore(t), TestDB(t)
	opts = append([]docservice.Option{docservice.WithLogger(Logger)}, opts...)
	return docservice.New(store, db, opts...), store, db
}
