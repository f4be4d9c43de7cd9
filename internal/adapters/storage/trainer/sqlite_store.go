package trainer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/trainer"
)

const trainerColumns = "id, franchise_id, name, email, phone, role, specializations, rating, status"

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new TrainerStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Trainer by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Trainer, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+trainerColumns+" FROM trainer WHERE id = ?", id)
	t, err := scanTrainer(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trainer{}, storage.NotFound("trainer", id)
	}
	return t, err
}

// Save persists a Trainer to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, t domain.Trainer) error {
	specs, err := json.Marshal(t.Specializations)
	if err != nil {
		return err
	}
	if t.Specializations == nil {
		specs = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trainer (`+trainerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET franchise_id=excluded.franchise_id, name=excluded.name,
		   email=excluded.email, phone=excluded.phone, role=excluded.role,
		   specializations=excluded.specializations, rating=excluded.rating, status=excluded.status`,
		t.ID, t.FranchiseID, t.Name, t.Email, t.Phone, t.Role, string(specs), t.Rating, t.Status)
	return err
}

// List retrieves Trainers matching filter ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Trainer, error) {
	var c storage.Conds
	c.Eq("franchise_id", filter.FranchiseID)
	c.Eq("status", filter.Status)
	c.Eq("role", filter.Role)
	query := "SELECT " + trainerColumns + " FROM trainer" + c.Where() + " ORDER BY name, id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Trainer
	for rows.Next() {
		t, err := scanTrainer(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func scanTrainer(scan func(dest ...any) error) (domain.Trainer, error) {
	var t domain.Trainer
	var specs string
	if err := scan(&t.ID, &t.FranchiseID, &t.Name, &t.Email, &t.Phone, &t.Role, &specs, &t.Rating, &t.Status); err != nil {
		return domain.Trainer{}, err
	}
	if err := json.Unmarshal([]byte(specs), &t.Specializations); err != nil {
		return domain.Trainer{}, err
	}
	return t, nil
}
