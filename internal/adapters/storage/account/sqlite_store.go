package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/account"
)

const accountColumns = "id, email, password_hash, role, franchise_id, onboarding_complete, created_at, failed_logins, locked_until"

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, storage.NotFound("account", id)
	}
	return entity, err
}

// GetByEmail retrieves an Account by email, case-insensitively.
// PRE: email is non-empty
// POST: Returns the entity or an error if not found
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE email = ?", strings.ToLower(email))
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, storage.NotFound("account", email)
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	fields := strings.Split(accountColumns, ", ")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	updates := []string{
		"email=excluded.email",
		"password_hash=excluded.password_hash",
		"role=excluded.role",
		"franchise_id=excluded.franchise_id",
		"onboarding_complete=excluded.onboarding_complete",
		"failed_logins=excluded.failed_logins",
		"locked_until=excluded.locked_until",
	}
	query := fmt.Sprintf(
		"INSERT INTO account (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		accountColumns, placeholders, strings.Join(updates, ", "),
	)
	_, err := s.db.ExecContext(ctx, query,
		entity.ID, strings.ToLower(entity.Email), entity.PasswordHash, entity.Role, entity.FranchiseID,
		storage.BoolInt(entity.OnboardingComplete), storage.FormatTime(entity.CreatedAt),
		entity.FailedLogins, storage.FormatTime(entity.LockedUntil))
	return err
}

// List retrieves Accounts ordered by email.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	var c storage.Conds
	c.Eq("role", filter.Role)
	query := "SELECT " + accountColumns + " FROM account" + c.Where() + " ORDER BY email"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	return n, err
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var a domain.Account
	var onboarded int
	var created, locked string
	if err := scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &a.FranchiseID, &onboarded, &created, &a.FailedLogins, &locked); err != nil {
		return domain.Account{}, err
	}
	a.OnboardingComplete = onboarded == 1
	var err error
	if a.CreatedAt, err = storage.ParseTime(created); err != nil {
		return domain.Account{}, err
	}
	if a.LockedUntil, err = storage.ParseTime(locked); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}
