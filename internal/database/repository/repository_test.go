package repository

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dotshell-org/ico-sub000/internal/database"
)

// newTestDB creates a temporary SQLite database with the full schema.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ico-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Init(db); err != nil {
		db.Close()
		t.Fatalf("init schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT COUNT(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
