package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/member"
)

const memberColumns = "id, franchise_id, name, email, phone, package, status, joined_at"

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE id = ?", id)
	m, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, storage.NotFound("member", id)
	}
	return m, err
}

// GetByEmail retrieves a Member by email.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM member WHERE email = ?", email)
	m, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, storage.NotFound("member", email)
	}
	return m, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, m domain.Member) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET franchise_id=excluded.franchise_id, name=excluded.name,
		   email=excluded.email, phone=excluded.phone, package=excluded.package, status=excluded.status`,
		m.ID, m.FranchiseID, m.Name, m.Email, m.Phone, m.Package, m.Status, storage.FormatTime(m.JoinedAt))
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("member email %s: %w", m.Email, storage.ErrConflict)
	}
	return err
}

// List retrieves Members matching filter, newest first.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Member, error) {
	var c storage.Conds
	c.Eq("franchise_id", filter.FranchiseID)
	c.Eq("status", filter.Status)
	c.Eq("package", filter.Package)
	query := "SELECT " + memberColumns + " FROM member" + c.Where() + " ORDER BY joined_at DESC, id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Member
	for rows.Next() {
		m, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// CountByStatus returns member counts keyed by status.
func (s *SQLiteStore) CountByStatus(ctx context.Context, franchiseID string) (map[string]int, error) {
	var c storage.Conds
	c.Eq("franchise_id", franchiseID)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM member"+c.Where()+" GROUP BY status", c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var m domain.Member
	var joinedAt string
	if err := scan(&m.ID, &m.FranchiseID, &m.Name, &m.Email, &m.Phone, &m.Package, &m.Status, &joinedAt); err != nil {
		return domain.Member{}, err
	}
	var err error
	m.JoinedAt, err = storage.ParseTime(joinedAt)
	return m, err
}
