package franchise

import (
	"context"

	domain "gymdash/internal/domain/franchise"
)

// Store persists Franchise state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Franchise, error)
	Save(ctx context.Context, value domain.Franchise) error
	List(ctx context.Context, status string) ([]domain.Franchise, error)
}
