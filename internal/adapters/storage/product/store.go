package product

import (
	"context"

	domain "gymdash/internal/domain/product"
)

// Store persists Product state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (domain.Product, error)
	Save(ctx context.Context, value domain.Product) error
	List(ctx context.Context, filter ListFilter) ([]domain.Product, error)
	ListNeedingReorder(ctx context.Context, franchiseID string) ([]domain.Product, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	FranchiseID string
	Category    string
	Status      string
}
