package accesslog

import (
	"context"
	"time"

	domain "gymdash/internal/domain/accesslog"
)

// Store is append-only: there is no update or delete.
type Store interface {
	Append(ctx context.Context, l domain.Log) error
	GetByID(ctx context.Context, id string) (domain.Log, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Log, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit    int
	Offset   int
	MemberID string
	Area     string
	Status   string
	Since    time.Time
}
