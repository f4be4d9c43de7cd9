package sale

import (
	"context"
	"time"

	domain "gymdash/internal/domain/sale"
)

// Store persists Sale state.
type Store interface {
	// Checkout records the sale and decrements stock for every line in one
	// transaction. Either all of it lands or none of it does.
	Checkout(ctx context.Context, s domain.Sale) error
	GetByID(ctx context.Context, id string) (domain.Sale, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Sale, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	FranchiseID string
	Since       time.Time
	Until       time.Time
}
