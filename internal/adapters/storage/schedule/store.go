package schedule

import (
	"context"
	"time"

	domain "gymdash/internal/domain/schedule"
)

// Store persists schedule Event state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
	Save(ctx context.Context, value domain.Event) error
	List(ctx context.Context, filter ListFilter) ([]domain.Event, error)
	// Enroll and Unenroll adjust the counter atomically in the database.
	Enroll(ctx context.Context, id string) (domain.Event, error)
	Unenroll(ctx context.Context, id string) (domain.Event, error)
}

// ListFilter carries filtering parameters for List operations.
// From and To bound start_time, half open.
type ListFilter struct {
	Limit       int
	Offset      int
	FranchiseID string
	TrainerID   string
	Room        string
	Type        string
	Status      string
	From        time.Time
	To          time.Time
}
