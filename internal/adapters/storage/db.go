package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is wrapped by every store when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a conditional update matched no row because
// the guarded state changed underneath it.
var ErrConflict = errors.New("conflict")

// DriverName maps a dialect to the database/sql driver registered for it.
func DriverName(d Dialect) string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Open connects to the configured database and returns it unwrapped; callers
// wrap it in a TimedDB.
// PRE: dsn matches the dialect
// POST: returns a pinged connection pool
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName(d), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", DriverName(d), err)
	}
	if d == DialectSQLite {
		// single writer; WAL lets readers proceed alongside it
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", DriverName(d), err)
	}
	return db, nil
}

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables and indexes exist
func InitDB(ctx context.Context, db *TimedDB) error {
	if db.Dialect() == DialectSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed (%s): %w", firstLine(stmt), err)
		}
	}
	return nil
}

// schema is portable between SQLite and Postgres: timestamps are fixed-width
// UTC text, booleans are integers and JSON lives in text columns.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS account (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		franchise_id TEXT NOT NULL DEFAULT '',
		onboarding_complete INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS franchise (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		manager_id TEXT NOT NULL DEFAULT '',
		settings TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS member (
		id TEXT PRIMARY KEY,
		franchise_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		package TEXT NOT NULL,
		status TEXT NOT NULL,
		joined_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_member_status ON member(status)`,
	`CREATE TABLE IF NOT EXISTS trainer (
		id TEXT PRIMARY KEY,
		franchise_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		specializations TEXT NOT NULL DEFAULT '[]',
		rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS check_in (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES member(id),
		check_in_time TEXT NOT NULL,
		check_out_time TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_check_in_one_active ON check_in(member_id) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_check_in_time ON check_in(check_in_time)`,
	`CREATE TABLE IF NOT EXISTS payment (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL REFERENCES member(id),
		amount BIGINT NOT NULL,
		method TEXT NOT NULL,
		status TEXT NOT NULL,
		type TEXT NOT NULL,
		due_date TEXT NOT NULL DEFAULT '',
		paid_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_status ON payment(status)`,
	`CREATE TABLE IF NOT EXISTS product (
		id TEXT PRIMARY KEY,
		franchise_id TEXT NOT NULL DEFAULT '',
		sku TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		price BIGINT NOT NULL,
		stock INTEGER NOT NULL,
		min_stock INTEGER NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale (
		id TEXT PRIMARY KEY,
		franchise_id TEXT NOT NULL DEFAULT '',
		total BIGINT NOT NULL,
		payment_method TEXT NOT NULL,
		cashier TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_item (
		sale_id TEXT NOT NULL REFERENCES sale(id),
		line INTEGER NOT NULL,
		product_id TEXT NOT NULL REFERENCES product(id),
		sku TEXT NOT NULL,
		name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price BIGINT NOT NULL,
		PRIMARY KEY (sale_id, line)
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_event (
		id TEXT PRIMARY KEY,
		franchise_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		type TEXT NOT NULL,
		trainer_id TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		capacity INTEGER NOT NULL,
		enrolled INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		CHECK (enrolled >= 0 AND enrolled <= capacity)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_event_start ON schedule_event(start_time)`,
	`CREATE TABLE IF NOT EXISTS access_log (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		area TEXT NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL,
		rule_applied TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		dedup_key TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL,
		last_attempted_at TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		external_id TEXT NOT NULL DEFAULT '',
		error_message TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_outbox_dedup ON outbox(dedup_key) WHERE dedup_key <> ''`,
}

// TimeLayout is fixed-width so text comparison orders chronologically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t in UTC using TimeLayout; the zero time becomes "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr renders an optional time.
func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// ParseTime parses a stored timestamp; "" becomes the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		// tolerate rows written by hand or by older tooling
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t, err
}

// ParseTimePtr parses an optional stored timestamp.
func ParseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// BoolInt maps a bool to the integer column representation.
func BoolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsUniqueViolation reports whether err is a unique or primary key violation
// from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err is a CHECK constraint failure.
func IsCheckViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23514"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_CHECK
	}
	return strings.Contains(err.Error(), "CHECK constraint failed")
}

// NotFound wraps ErrNotFound with the entity name and id.
func NotFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

// ExpectOneRow converts a zero-rows-affected result into NotFound.
func ExpectOneRow(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return NotFound(entity, id)
	}
	return nil
}
