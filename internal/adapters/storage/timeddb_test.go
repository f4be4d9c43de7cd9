package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"gymdash/internal/adapters/http/perf"
)

func openTimedTestDB(t *testing.T, collector *perf.Collector) *TimedDB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("CREATE TABLE test (id TEXT PRIMARY KEY, val TEXT)")
	require.NoError(t, err)
	return NewTimedDB(db, TimedDBConfig{Collector: collector})
}

// TestTimedDB_RecordsEveryStatement verifies exec, query and query-row timings.
func TestTimedDB_RecordsEveryStatement(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := openTimedTestDB(t, collector)
	ctx := context.Background()

	_, err := tdb.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "1", "hello")
	require.NoError(t, err)

	rows, err := tdb.QueryContext(ctx, "SELECT id, val FROM test")
	require.NoError(t, err)
	count := 0
	for rows.Next() {
		count++
	}
	require.NoError(t, rows.Close())
	assert.Equal(t, 1, count)

	var val string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "1").Scan(&val))
	assert.Equal(t, "hello", val)
	assert.EqualValues(t, 3, collector.TotalRecorded())
}

// TestTimedDB_Transaction verifies tx statements are timed and committed.
func TestTimedDB_Transaction(t *testing.T) {
	collector := perf.NewCollector(100)
	tdb := openTimedTestDB(t, collector)
	ctx := context.Background()

	tx, err := tdb.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "INSERT INTO test (id, val) VALUES (?, ?)", "2", "tx")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var val string
	require.NoError(t, tdb.QueryRowContext(ctx, "SELECT val FROM test WHERE id = ?", "2").Scan(&val))
	assert.Equal(t, "tx", val)
	assert.EqualValues(t, 3, collector.TotalRecorded()) // begin + tx exec + query row
}

func TestTimedDB_NilCollector(t *testing.T) {
	tdb := openTimedTestDB(t, nil)
	_, err := tdb.ExecContext(context.Background(), "INSERT INTO test (id, val) VALUES (?, ?)", "1", "x")
	assert.NoError(t, err)
}

// TestTimedDB_PostgresRebind verifies placeholders reach the driver as $n.
func TestTimedDB_PostgresRebind(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE member SET status = $1 WHERE id = $2").
		WithArgs("inactive", "m1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	tdb := NewTimedDB(db, TimedDBConfig{Dialect: DialectPostgres})
	_, err = tdb.ExecContext(context.Background(), "UPDATE member SET status = ? WHERE id = ?", "inactive", "m1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRebind(t *testing.T) {
	tests := []struct{ in, want string }{
		{"SELECT 1", "SELECT 1"},
		{"a = ? AND b = ?", "a = $1 AND b = $2"},
		{"note = '?' AND id = ?", "note = '?' AND id = $1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rebind(tt.in))
	}
}

func TestTableOf(t *testing.T) {
	assert.Equal(t, "member", tableOf("SELECT id FROM member WHERE id = ?"))
	assert.Equal(t, "payment", tableOf("INSERT INTO payment (id) VALUES (?)"))
	assert.Equal(t, "product", tableOf("update product set stock = 1"))
}
