package payment

import (
	"context"
	"time"

	domain "gymdash/internal/domain/payment"
)

// Store persists Payment state.
type Store interface {
	Create(ctx context.Context, p domain.Payment) error
	GetByID(ctx context.Context, id string) (domain.Payment, error)
	// UpdateStatus applies a transition only if the stored status still
	// equals p's previous status.
	// POST: returns storage.ErrConflict when the row moved underneath
	UpdateStatus(ctx context.Context, p domain.Payment, from string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Payment, error)
	// ListDueBefore returns pending payments with a due date before cutoff.
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]domain.Payment, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	FranchiseID string
	MemberID    string
	Status      string
	Type        string
	Since       time.Time
	Until       time.Time
}
