package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymdash/internal/adapters/storage"
	productstore "gymdash/internal/adapters/storage/product"
	domain "gymdash/internal/domain/sale"
)

// SQLiteStore implements Store on either supported dialect.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SaleStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Checkout persists the sale with its line items and applies the stock
// decrements. Each product row is updated with a compare-and-set on its
// previous stock so a concurrent checkout cannot oversell.
// PRE: s has been validated
// POST: sale, items and stock changes are committed together, or nothing is
func (s *SQLiteStore) Checkout(ctx context.Context, sl domain.Sale) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, it := range sl.Items {
		p, err := productstore.Get(ctx, tx, it.ProductID)
		if err != nil {
			return err
		}
		prev := p.Stock
		if err := p.Remove(it.Quantity); err != nil {
			return fmt.Errorf("%s: %w", p.SKU, err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE product SET stock = ?, status = ? WHERE id = ? AND stock = ?`,
			p.Stock, p.Status, p.ID, prev)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return fmt.Errorf("%s: %w", p.SKU, storage.ErrConflict)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sale (id, franchise_id, total, payment_method, cashier, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sl.ID, sl.FranchiseID, sl.Total, sl.PaymentMethod, sl.Cashier, storage.FormatTime(sl.Timestamp)); err != nil {
		return err
	}
	for i, it := range sl.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sale_item (sale_id, line, product_id, sku, name, quantity, unit_price) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sl.ID, i, it.ProductID, it.SKU, it.Name, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID retrieves a Sale with its items.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Sale, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, franchise_id, total, payment_method, cashier, created_at FROM sale WHERE id = ?`, id)
	sl, err := scanSale(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, storage.NotFound("sale", id)
	}
	if err != nil {
		return domain.Sale{}, err
	}
	items, err := s.items(ctx, []string{id})
	if err != nil {
		return domain.Sale{}, err
	}
	sl.Items = items[id]
	return sl, nil
}

// List retrieves Sales matching filter, newest first, with items attached.
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Sale, error) {
	var c storage.Conds
	c.Eq("franchise_id", filter.FranchiseID)
	if !filter.Since.IsZero() {
		c.Add("created_at >= ?", storage.FormatTime(filter.Since))
	}
	if !filter.Until.IsZero() {
		c.Add("created_at < ?", storage.FormatTime(filter.Until))
	}
	query := `SELECT id, franchise_id, total, payment_method, cashier, created_at FROM sale` + c.Where() + " ORDER BY created_at DESC, id"
	query += c.Page(filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query, c.Args()...)
	if err != nil {
		return nil, err
	}
	var results []domain.Sale
	var ids []string
	for rows.Next() {
		sl, err := scanSale(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		results = append(results, sl)
		ids = append(ids, sl.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return results, nil
	}

	items, err := s.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Items = items[results[i].ID]
	}
	return results, nil
}

func (s *SQLiteStore) items(ctx context.Context, saleIDs []string) (map[string][]domain.Item, error) {
	args := make([]any, len(saleIDs))
	marks := make([]byte, 0, len(saleIDs)*2)
	for i, id := range saleIDs {
		args[i] = id
		if i > 0 {
			marks = append(marks, ',')
		}
		marks = append(marks, '?')
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT sale_id, product_id, sku, name, quantity, unit_price FROM sale_item WHERE sale_id IN (`+string(marks)+`) ORDER BY sale_id, line`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.Item, len(saleIDs))
	for rows.Next() {
		var saleID string
		var it domain.Item
		if err := rows.Scan(&saleID, &it.ProductID, &it.SKU, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		out[saleID] = append(out[saleID], it)
	}
	return out, rows.Err()
}

func scanSale(scan func(dest ...any) error) (domain.Sale, error) {
	var sl domain.Sale
	var created string
	if err := scan(&sl.ID, &sl.FranchiseID, &sl.Total, &sl.PaymentMethod, &sl.Cashier, &created); err != nil {
		return domain.Sale{}, err
	}
	var err error
	sl.Timestamp, err = storage.ParseTime(created)
	return sl, err
}
