package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/payment"
)

const selectPayments = `SELECT p.id, p.member_id, p.amount, p.method, p.status, p.type, p.due_date, p.paid_at, p.created_at
	FROM payment p LEFT JOIN member m ON m.id = p.member_id`

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new PaymentStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a new payment. Payments are never upserted; status changes
// go through UpdateStatus.
// PRE: p has been validated
func (s *SQLiteStore) Create(ctx context.Context, p domain.Payment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payment (id, member_id, amount, method, status, type, due_date, paid_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.MemberID, p.Amount, p.Method, p.Status, p.Type,
		storage.FormatTime(p.DueDate), storage.FormatTimePtr(p.PaidAt), storage.FormatTime(p.CreatedAt))
	return err
}

// GetByID retrieves a Payment by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	row := s.db.QueryRowContext(ctx, selectPayments+" WHERE p.id = ?", id)
	p, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Payment{}, storage.NotFound("payment", id)
	}
	return p, err
}

// UpdateStatus writes p.Status and p.PaidAt guarded by the previous status.
// PRE: domain transition from -> p.Status already validated
// POST: row updated, or storage.ErrConflict / storage.ErrNotFound
func (s *SQLiteStore) UpdateStatus(ctx context.Context, p domain.Payment, from string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payment SET status = ?, paid_at = ? WHERE id = ? AND status = ?`,
		p.Status, storage.FormatTimePtr(p.PaidAt), p.ID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.GetByID(ctx, p.ID); err != nil {
		return err
	}
	return storage.ErrConflict
}

// List retrieves Payments matching filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Payment, error) {
	var c storage.Conds
	c.Eq("m.franchise_id", filter.FranchiseID)
	c.Eq("p.member_id", filter.MemberID)
	c.Eq("p.status", filter.Status)
	c.Eq("p.type", filter.Type)
	if !filter.Since.IsZero() {
		c.Add("p.created_at >= ?", storage.FormatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		c.Add("p.created_at < ?", storage.FormatTime(filter.Until))
	}
	query := selectPayments + c.Where() + " ORDER BY p.created_at DESC, p.id"
	query += c.Page(filter.Limit, filter.Offset)
	return s.query(ctx, query, c.Args()...)
}

// ListDueBefore returns pending payments due strictly before cutoff.
func (s *SQLiteStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Payment, error) {
	return s.query(ctx, selectPayments+` WHERE p.status = ? AND p.due_date <> '' AND p.due_date < ? ORDER BY p.due_date`,
		domain.StatusPending, storage.FormatTime(cutoff))
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func scanPayment(scan func(dest ...any) error) (domain.Payment, error) {
	var p domain.Payment
	var due, paid, created string
	if err := scan(&p.ID, &p.MemberID, &p.Amount, &p.Method, &p.Status, &p.Type, &due, &paid, &created); err != nil {
		return domain.Payment{}, err
	}
	var err error
	if p.DueDate, err = storage.ParseTime(due); err != nil {
		return domain.Payment{}, err
	}
	if p.PaidAt, err = storage.ParseTimePtr(paid); err != nil {
		return domain.Payment{}, err
	}
	if p.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Payment{}, err
	}
	return p, nil
}
