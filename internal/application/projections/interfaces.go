package projections

import (
	"context"
	"time"

	checkinstore "gymdash/internal/adapters/storage/checkin"
	paymentstore "gymdash/internal/adapters/storage/payment"
	schedulestore "gymdash/internal/adapters/storage/schedule"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
)

// MemberCounter reports member counts by status.
type MemberCounter interface {
	CountByStatus(ctx context.Context, franchiseID string) (map[string]int, error)
}

// CheckInLister lists check-ins.
type CheckInLister interface {
	List(ctx context.Context, filter checkinstore.ListFilter) ([]checkin.CheckIn, error)
}

// PaymentLister lists payments.
type PaymentLister interface {
	List(ctx context.Context, filter paymentstore.ListFilter) ([]payment.Payment, error)
}

// ProductLister lists products that need restocking.
type ProductLister interface {
	ListNeedingReorder(ctx context.Context, franchiseID string) ([]product.Product, error)
}

// ScheduleLister lists schedule events.
type ScheduleLister interface {
	List(ctx context.Context, filter schedulestore.ListFilter) ([]schedule.Event, error)
}

// dayBounds returns [start of day, start of next day) for now in UTC.
func dayBounds(now time.Time) (time.Time, time.Time) {
	d := now.UTC().Truncate(24 * time.Hour)
	return d, d.Add(24 * time.Hour)
}
