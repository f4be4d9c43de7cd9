package accesslog

import (
	"context"
	"database/sql"
	"errors"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/accesslog"
)

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new access log store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Append inserts one access decision.
// PRE: l has been validated
// POST: row inserted; duplicate ids are rejected rather than overwritten
func (s *SQLiteStore) Append(ctx context.Context, l domain.Log) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO access_log (id, member_id, area, action, status, rule_applied, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.MemberID, l.Area, l.Action, l.Status, l.RuleApplied, storage.FormatTime(l.Timestamp))
	return err
}

// GetByID retrieves one access decision.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Log, error) {
	var l domain.Log
	var ts string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, member_id, area, action, status, rule_applied, created_at FROM access_log WHERE id = ?`, id,
	).Scan(&l.ID, &l.MemberID, &l.Area, &l.Action, &l.Status, &l.RuleApplied, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Log{}, storage.NotFound("access log", id)
	}
	if err != nil {
		return domain.Log{}, err
	}
	l.Timestamp, err = storage.ParseTime(ts)
	return l, err
}

// List retrieves access logs, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Log, error) {
	var c storage.Conds
	c.Eq("member_id", filter.MemberID)
	c.Eq("area", filter.Area)
	c.Eq("status", filter.Status)
	if !filter.Since.IsZero() {
		c.Add("created_at >= ?", storage.FormatTime(filter.Since))
	}
	query := "SELECT id, member_id, area, action, status, rule_applied, created_at FROM access_log" + c.Where() + " ORDER BY created_at DESC, id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Log
	for rows.Next() {
		var l domain.Log
		var ts string
		if err := rows.Scan(&l.ID, &l.MemberID, &l.Area, &l.Action, &l.Status, &l.RuleApplied, &ts); err != nil {
			return nil, err
		}
		if l.Timestamp, err = storage.ParseTime(ts); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}
