package checkin

import (
	"context"
	"time"

	domain "gymdash/internal/domain/checkin"
)

// Store persists CheckIn state.
type Store interface {
	// Create inserts a new active check-in.
	// POST: returns domain.ErrAlreadyCheckedIn if the member already has one
	Create(ctx context.Context, c domain.CheckIn) error
	GetByID(ctx context.Context, id string) (domain.CheckIn, error)
	GetActiveByMember(ctx context.Context, memberID string) (domain.CheckIn, error)
	// Complete closes an active check-in.
	// POST: returns domain.ErrAlreadyCompleted if it was already closed
	Complete(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter ListFilter) ([]domain.CheckIn, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit       int
	Offset      int
	FranchiseID string
	MemberID    string
	Status      string
	Since       time.Time
	Until       time.Time
}
