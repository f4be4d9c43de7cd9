package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/http/perf"
)

// Dialect selects placeholder syntax. Stores always write `?` placeholders;
// TimedDB rewrites them for postgres.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// ParseDialect maps a driver name to a Dialect.
func ParseDialect(driver string) Dialect {
	if driver == "postgres" {
		return DialectPostgres
	}
	return DialectSQLite
}

// Querier is the statement surface shared by connections and transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an open transaction.
type Tx interface {
	Querier
	Commit() error
	Rollback() error
}

// SQLDB is the database interface used by all stores.
type SQLDB interface {
	Querier
	BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error)
}

// DefaultSlowQueryMs is the default threshold for slow query warnings.
const DefaultSlowQueryMs = 50

// TimedDBConfig configures NewTimedDB.
type TimedDBConfig struct {
	Dialect     Dialect
	Collector   *perf.Collector // optional
	Logger      *zap.Logger     // optional
	SlowQueryMs int             // 0 means DefaultSlowQueryMs
}

// TimedDB wraps a *sql.DB to rebind placeholders, log slow queries and
// record timings to a collector.
type TimedDB struct {
	db        *sql.DB
	dialect   Dialect
	collector *perf.Collector
	logger    *zap.Logger
	threshold float64
}

// Compile-time check that *TimedDB satisfies SQLDB.
var _ SQLDB = (*TimedDB)(nil)

// NewTimedDB wraps a *sql.DB with timing instrumentation.
// PRE: db is a valid database connection
// POST: Returns a TimedDB that logs slow queries and records to collector
func NewTimedDB(db *sql.DB, cfg TimedDBConfig) *TimedDB {
	ms := cfg.SlowQueryMs
	if ms <= 0 {
		ms = DefaultSlowQueryMs
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimedDB{
		db:        db,
		dialect:   cfg.Dialect,
		collector: cfg.Collector,
		logger:    logger,
		threshold: float64(ms),
	}
}

// RawDB returns the underlying *sql.DB (needed for pool config and tests).
func (t *TimedDB) RawDB() *sql.DB {
	return t.db
}

// Dialect reports the SQL dialect in use.
func (t *TimedDB) Dialect() Dialect {
	return t.dialect
}

func (t *TimedDB) logQuery(op, query string, start time.Time) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= t.threshold {
		t.logger.Warn("slow_query",
			zap.String("op", op),
			zap.String("query", firstLine(query)),
			zap.Float64("duration_ms", durationMs),
		)
	} else {
		t.logger.Debug("query",
			zap.String("op", op),
			zap.Float64("duration_ms", durationMs),
		)
	}
	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindQuery,
			Path:       op + " " + tableOf(query),
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// ExecContext wraps sql.DB.ExecContext with rebinding and timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed, timing recorded to collector
func (t *TimedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := t.db.ExecContext(ctx, t.rebind(query), args...)
	t.logQuery("exec", query, start)
	return result, err
}

// QueryContext wraps sql.DB.QueryContext with rebinding and timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed, timing recorded to collector
func (t *TimedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.db.QueryContext(ctx, t.rebind(query), args...)
	t.logQuery("query", query, start)
	return rows, err
}

// QueryRowContext wraps sql.DB.QueryRowContext with rebinding and timing.
// PRE: ctx is valid, query is non-empty
// POST: query executed, timing recorded to collector
func (t *TimedDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := t.db.QueryRowContext(ctx, t.rebind(query), args...)
	t.logQuery("query_row", query, start)
	return row
}

// BeginTx starts a transaction whose statements are rebound and timed like
// the parent's.
// PRE: ctx is valid
// POST: transaction started
func (t *TimedDB) BeginTx(ctx context.Context, opts *sql.TxOptions) (Tx, error) {
	start := time.Now()
	tx, err := t.db.BeginTx(ctx, opts)
	t.logQuery("begin", "", start)
	if err != nil {
		return nil, err
	}
	return &timedTx{tx: tx, parent: t}, nil
}

// Close closes the underlying database connection.
func (t *TimedDB) Close() error {
	return t.db.Close()
}

// PingContext verifies the database connection.
func (t *TimedDB) PingContext(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

// SetMaxOpenConns sets the maximum number of open connections.
func (t *TimedDB) SetMaxOpenConns(n int) {
	t.db.SetMaxOpenConns(n)
}

// SetMaxIdleConns sets the maximum number of idle connections.
func (t *TimedDB) SetMaxIdleConns(n int) {
	t.db.SetMaxIdleConns(n)
}

func (t *TimedDB) rebind(query string) string {
	if t.dialect != DialectPostgres {
		return query
	}
	return Rebind(query)
}

type timedTx struct {
	tx     *sql.Tx
	parent *TimedDB
}

func (x *timedTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	res, err := x.tx.ExecContext(ctx, x.parent.rebind(query), args...)
	x.parent.logQuery("tx_exec", query, start)
	return res, err
}

func (x *timedTx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := x.tx.QueryContext(ctx, x.parent.rebind(query), args...)
	x.parent.logQuery("tx_query", query, start)
	return rows, err
}

func (x *timedTx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	start := time.Now()
	row := x.tx.QueryRowContext(ctx, x.parent.rebind(query), args...)
	x.parent.logQuery("tx_query_row", query, start)
	return row
}

func (x *timedTx) Commit() error   { return x.tx.Commit() }
func (x *timedTx) Rollback() error { return x.tx.Rollback() }

// Rebind rewrites `?` placeholders as `$1..$n`, skipping quoted literals.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func firstLine(q string) string {
	q = strings.TrimSpace(q)
	if i := strings.IndexByte(q, '\n'); i >= 0 {
		return q[:i]
	}
	return q
}

// tableOf extracts a table name for perf grouping.
func tableOf(q string) string {
	fields := strings.Fields(strings.ToUpper(q))
	for i, f := range fields {
		if (f == "FROM" || f == "INTO" || f == "UPDATE") && i+1 < len(fields) {
			return strings.ToLower(strings.Trim(fields[i+1], "(),;"))
		}
	}
	return ""
}
