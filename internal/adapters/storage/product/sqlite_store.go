package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdash/internal/adapters/storage"
	domain "gymdash/internal/domain/product"
)

// Columns is shared with the sale store, which reads products inside its
// checkout transaction.
const Columns = "id, franchise_id, sku, name, category, price, stock, min_stock, status"

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProductStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Product by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	return Get(ctx, s.db, id)
}

// Get reads one product through any Querier, including a transaction.
// POST: Returns the entity or an error wrapping storage.ErrNotFound
func Get(ctx context.Context, q storage.Querier, id string) (domain.Product, error) {
	row := q.QueryRowContext(ctx, "SELECT "+Columns+" FROM product WHERE id = ?", id)
	p, err := Scan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, storage.NotFound("product", id)
	}
	return p, err
}

// GetBySKU retrieves a Product by its stock keeping unit.
func (s *SQLiteStore) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+Columns+" FROM product WHERE sku = ?", sku)
	p, err := Scan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, storage.NotFound("product", sku)
	}
	return p, err
}

// Save persists a Product. Status is re-derived from stock before writing.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, p domain.Product) error {
	p.Refresh()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product (`+Columns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET franchise_id=excluded.franchise_id, sku=excluded.sku, name=excluded.name,
		   category=excluded.category, price=excluded.price, stock=excluded.stock,
		   min_stock=excluded.min_stock, status=excluded.status`,
		p.ID, p.FranchiseID, p.SKU, p.Name, p.Category, p.Price, p.Stock, p.MinStock, p.Status)
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("product sku %s: %w", p.SKU, storage.ErrConflict)
	}
	return err
}

// List retrieves Products matching filter ordered by name.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Product, error) {
	var c storage.Conds
	c.Eq("franchise_id", filter.FranchiseID)
	c.Eq("category", filter.Category)
	c.Eq("status", filter.Status)
	query := "SELECT " + Columns + " FROM product" + c.Where() + " ORDER BY name, id"
	query += c.Page(filter.Limit, filter.Offset)
	return s.query(ctx, query, c.Args()...)
}

// ListNeedingReorder returns stocked products at or below their minimum.
func (s *SQLiteStore) ListNeedingReorder(ctx context.Context, franchiseID string) ([]domain.Product, error) {
	var c storage.Conds
	c.Eq("franchise_id", franchiseID)
	c.Add("status IN (?, ?)", domain.StatusLowStock, domain.StatusOutOfStock)
	return s.query(ctx, "SELECT "+Columns+" FROM product"+c.Where()+" ORDER BY stock, name", c.Args()...)
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Product
	for rows.Next() {
		p, err := Scan(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Scan reads a row selected with Columns.
func Scan(scan func(dest ...any) error) (domain.Product, error) {
	var p domain.Product
	err := scan(&p.ID, &p.FranchiseID, &p.SKU, &p.Name, &p.Category, &p.Price, &p.Stock, &p.MinStock, &p.Status)
	return p, err
}
