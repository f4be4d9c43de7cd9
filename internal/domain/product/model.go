package product

import (
	"errors"
	"strings"

	"gymdash/internal/domain/validation"
)

// Status values. Everything except discontinued is derived from stock.
const (
	StatusActive       = "active"
	StatusLowStock     = "low_stock"
	StatusOutOfStock   = "out_of_stock"
	StatusDiscontinued = "discontinued"
)

var ValidStatuses = []string{StatusActive, StatusLowStock, StatusOutOfStock, StatusDiscontinued}

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrDiscontinued        = errors.New("product is discontinued")
	ErrAlreadyDiscontinued = errors.New("product is already discontinued")
)

// Product is a point-of-sale item. Price is in cents.
type Product struct {
	ID          string `json:"id"`
	FranchiseID string `json:"franchise_id,omitempty"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	Status      string `json:"status"`
}

// Validate checks if the Product has valid data.
// PRE: Product struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: Stock >= 0, MinStock >= 0, Price >= 0
func (p *Product) Validate() error {
	var errs validation.Errors
	errs.Required("sku", p.SKU)
	errs.Required("name", p.Name)
	errs.Required("category", p.Category)
	if p.Price < 0 {
		errs.Add("price", "cannot be negative")
	}
	if p.Stock < 0 {
		errs.Add("stock", "cannot be negative")
	}
	if p.MinStock < 0 {
		errs.Add("min_stock", "cannot be negative")
	}
	errs.OneOf("status", p.Status, ValidStatuses...)
	return errs.Err()
}

// DeriveStatus computes the stock status.
// POST: discontinued is preserved; otherwise 0 -> out_of_stock,
// <= MinStock -> low_stock, else active
func DeriveStatus(stock, minStock int, current string) string {
	if current == StatusDiscontinued {
		return StatusDiscontinued
	}
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= minStock:
		return StatusLowStock
	default:
		return StatusActive
	}
}

// Refresh recomputes Status from Stock and MinStock.
func (p *Product) Refresh() {
	p.Status = DeriveStatus(p.Stock, p.MinStock, p.Status)
}

// Normalize trims input and derives the initial status.
func (p *Product) Normalize() {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Refresh()
}

// Remove takes qty units out of stock for a sale.
// PRE: qty > 0, product is not discontinued, Stock >= qty
// POST: Stock decreased, Status re-derived
func (p *Product) Remove(qty int) error {
	if p.Status == StatusDiscontinued {
		return ErrDiscontinued
	}
	if qty <= 0 || p.Stock < qty {
		return ErrInsufficientStock
	}
	p.Stock -= qty
	p.Refresh()
	return nil
}

// Restock adds qty units.
// PRE: qty > 0
// POST: Stock increased, Status re-derived
func (p *Product) Restock(qty int) {
	if qty <= 0 {
		return
	}
	p.Stock += qty
	p.Refresh()
}

// Discontinue is the soft delete for products.
func (p *Product) Discontinue() error {
	if p.Status == StatusDiscontinued {
		return ErrAlreadyDiscontinued
	}
	p.Status = StatusDiscontinued
	return nil
}

// NeedsReorder reports whether a live product is at or below MinStock.
func (p *Product) NeedsReorder() bool {
	return p.Status == StatusLowStock || p.Status == StatusOutOfStock
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Product) string {
	return []func(Product) string{
		func(p Product) string { return p.Name },
		func(p Product) string { return p.SKU },
		func(p Product) string { return p.Category },
	}
}
