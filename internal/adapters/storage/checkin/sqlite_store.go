package checkin

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/checkin"
)

// Member names are joined in so list views can search them.
const selectCheckIns = `SELECT c.id, c.member_id, COALESCE(m.name, ''), c.check_in_time, c.check_out_time, c.method, c.status
	FROM check_in c LEFT JOIN member m ON m.id = c.member_id`

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new CheckInStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts an active check-in. The partial unique index on
// (member_id) WHERE status='active' enforces one open visit per member.
// PRE: c has been validated and c.Status is active
// POST: row inserted, or domain.ErrAlreadyCheckedIn
func (s *SQLiteStore) Create(ctx context.Context, c domain.CheckIn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_in (id, member_id, check_in_time, check_out_time, method, status) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.MemberID, storage.FormatTime(c.CheckInTime), storage.FormatTimePtr(c.CheckOutTime), c.Method, c.Status)
	if storage.IsUniqueViolation(err) {
		return domain.ErrAlreadyCheckedIn
	}
	return err
}

// GetByID retrieves a CheckIn by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, selectCheckIns+" WHERE c.id = ?", id)
	c, err := scanCheckIn(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckIn{}, storage.NotFound("check-in", id)
	}
	return c, err
}

// GetActiveByMember returns the member's open check-in.
// POST: returns domain.ErrNotCheckedIn when there is none
func (s *SQLiteStore) GetActiveByMember(ctx context.Context, memberID string) (domain.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, selectCheckIns+" WHERE c.member_id = ? AND c.status = ?", memberID, domain.StatusActive)
	c, err := scanCheckIn(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckIn{}, domain.ErrNotCheckedIn
	}
	return c, err
}

// Complete sets the check-out time on an active check-in. The status guard
// makes concurrent check-outs race safely: only one of them matches.
// PRE: at is not before the check-in time
// POST: status is completed, or ErrAlreadyCompleted / ErrNotFound
func (s *SQLiteStore) Complete(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE check_in SET status = ?, check_out_time = ? WHERE id = ? AND status = ?`,
		domain.StatusCompleted, storage.FormatTime(at), id, domain.StatusActive)
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
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrAlreadyCompleted
}

// List retrieves CheckIns matching filter, most recent first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.CheckIn, error) {
	var c storage.Conds
	c.Eq("m.franchise_id", filter.FranchiseID)
	c.Eq("c.member_id", filter.MemberID)
	c.Eq("c.status", filter.Status)
	if !filter.Since.IsZero() {
		c.Add("c.check_in_time >= ?", storage.FormatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		c.Add("c.check_in_time < ?", storage.FormatTime(filter.Until))
	}
	query := selectCheckIns + c.Where() + " ORDER BY c.check_in_time DESC, c.id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.CheckIn
	for rows.Next() {
		ci, err := scanCheckIn(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, ci)
	}
	return results, rows.Err()
}

func scanCheckIn(scan func(dest ...any) error) (domain.CheckIn, error) {
	var c domain.CheckIn
	var in, out string
	if err := scan(&c.ID, &c.MemberID, &c.MemberName, &in, &out, &c.Method, &c.Status); err != nil {
		return domain.CheckIn{}, err
	}
	var err error
	if c.CheckInTime, err = storage.ParseTime(in); err != nil {
		return domain.CheckIn{}, err
	}
	if c.CheckOutTime, err = storage.ParseTimePtr(out); err != nil {
		return domain.CheckIn{}, err
	}
	return c, nil
}
