// Package storagetest opens initialised in-memory databases for store tests.
package storagetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gymdash/internal/adapters/storage"
)

// Open returns a TimedDB over a fresh in-memory SQLite schema.
// The pool is pinned to one connection because each :memory: connection
// sees its own database.
func Open(t *testing.T) *storage.TimedDB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	tdb := storage.NewTimedDB(db, storage.TimedDBConfig{})
	require.NoError(t, storage.InitDB(context.Background(), tdb))
	return tdb
}

// Exec runs raw fixture SQL.
func Exec(t *testing.T, db storage.SQLDB, query string, args ...any) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}
