package franchise

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/franchise"
)

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new FranchiseStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Franchise by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Franchise, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, manager_id, settings, status FROM franchise WHERE id = ?", id)
	f, err := scanFranchise(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Franchise{}, storage.NotFound("franchise", id)
	}
	return f, err
}

// Save persists a Franchise; settings are stored as a JSON document.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, f domain.Franchise) error {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO franchise (id, name, manager_id, settings, status) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name=excluded.name, manager_id=excluded.manager_id,
		   settings=excluded.settings, status=excluded.status`,
		f.ID, f.Name, f.ManagerID, string(settings), f.Status)
	return err
}

// List retrieves Franchises, optionally restricted to one status.
func (s *SQLiteStore) List(ctx context.Context, status string) ([]domain.Franchise, error) {
	var c storage.Conds
	c.Eq("status", status)
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, manager_id, settings, status FROM franchise"+c.Where()+" ORDER BY name, id", c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Franchise
	for rows.Next() {
		f, err := scanFranchise(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, f)
	}
	return results, rows.Err()
}

func scanFranchise(scan func(dest ...any) error) (domain.Franchise, error) {
	var f domain.Franchise
	var settings string
	if err := scan(&f.ID, &f.Name, &f.ManagerID, &settings, &f.Status); err != nil {
		return domain.Franchise{}, err
	}
	if err := json.Unmarshal([]byte(settings), &f.Settings); err != nil {
		return domain.Franchise{}, err
	}
	return f, nil
}
