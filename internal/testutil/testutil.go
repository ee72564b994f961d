// Package testutil provides shared test helpers for setting up contact stores.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/starford/callerid/internal/contact"
)

// TestDB creates a temporary SQLite contact store that is automatically cleaned up.
func TestDB(t *testing.T) *contact.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "callerid-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := contact.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
