package projections

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	checkinstore "gymdash/internal/adapters/storage/checkin"
	paymentstore "gymdash/internal/adapters/storage/payment"
	schedulestore "gymdash/internal/adapters/storage/schedule"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/logger"
)

// DashboardQuery carries input for the dashboard projection.
type DashboardQuery struct {
	FranchiseID string // empty for every franchise
}

// DashboardDeps holds dependencies for the dashboard projection.
type DashboardDeps struct {
	MemberStore   MemberCounter
	CheckInStore  CheckInLister
	PaymentStore  PaymentLister
	ProductStore  ProductLister
	ScheduleStore ScheduleLister
	Cache         cache.Cache // optional: nil disables caching
	TTL           time.Duration
	Logger        *zap.Logger
}

// Dashboard is the card model shown on /dashboard and served at /api/dashboard.
type Dashboard struct {
	FranchiseID        string             `json:"franchise_id,omitempty"`
	ActiveMembers      int                `json:"active_members"`
	TotalMembers       int                `json:"total_members"`
	TodayCheckIns      int                `json:"today_check_ins"`
	CurrentlyIn        int                `json:"currently_checked_in"`
	CheckInsByMethod   map[string]int     `json:"check_ins_by_method"`
	Revenue            RevenueSummary     `json:"revenue"`
	RevenueByType      map[string]int64   `json:"revenue_by_type"`
	RevenueByMethod    map[string]int64   `json:"revenue_by_method"`
	PendingPayments    int                `json:"pending_payments"`
	OverduePayments    int                `json:"overdue_payments"`
	LowStock           int                `json:"low_stock"`
	OutOfStock         int                `json:"out_of_stock"`
	UpcomingEvents     int                `json:"upcoming_events"`
	RoomUtilization    map[string]float64 `json:"room_utilization"`
	TrainerUtilization map[string]float64 `json:"trainer_utilization"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// DashboardCacheKey names the cached snapshot for a franchise.
func DashboardCacheKey(franchiseID string) string {
	if franchiseID == "" {
		return "dashboard:all"
	}
	return "dashboard:" + franchiseID
}

// InvalidateDashboard drops the cached snapshots for franchiseID and for the
// all-franchise view.
func InvalidateDashboard(ctx context.Context, c cache.Cache, franchiseID string) error {
	if c == nil {
		return nil
	}
	keys := []string{DashboardCacheKey("")}
	if franchiseID != "" {
		keys = append(keys, DashboardCacheKey(franchiseID))
	}
	return c.Delete(ctx, keys...)
}

// QueryDashboard composes the dashboard cards.
// PRE: all stores in deps are set
// POST: returns a snapshot computed at now, or a cached one younger than TTL
func QueryDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps, now time.Time) (Dashboard, error) {
	log := logger.OrNop(deps.Logger)
	key := DashboardCacheKey(query.FranchiseID)

	if deps.Cache != nil {
		var cached Dashboard
		hit, err := deps.Cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("dashboard_cache_get_failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	d, err := buildDashboard(ctx, query, deps, now)
	if err != nil {
		return Dashboard{}, err
	}

	if deps.Cache != nil && deps.TTL > 0 {
		if err := deps.Cache.Set(ctx, key, d, deps.TTL); err != nil {
			log.Warn("dashboard_cache_set_failed", zap.Error(err))
		}
	}
	return d, nil
}

func buildDashboard(ctx context.Context, query DashboardQuery, deps DashboardDeps, now time.Time) (Dashboard, error) {
	d := Dashboard{FranchiseID: query.FranchiseID, GeneratedAt: now.UTC()}

	counts, err := deps.MemberStore.CountByStatus(ctx, query.FranchiseID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("count members: %w", err)
	}
	d.ActiveMembers = counts[member.StatusActive]
	for _, n := range counts {
		d.TotalMembers += n
	}

	start, end := dayBounds(now)
	today, err := deps.CheckInStore.List(ctx, checkinstore.ListFilter{FranchiseID: query.FranchiseID, Since: start, Until: end})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list check-ins: %w", err)
	}
	d.TodayCheckIns = len(today)
	d.CheckInsByMethod = CountCheckInsBy(today, CheckInMethod)
	active, err := deps.CheckInStore.List(ctx, checkinstore.ListFilter{FranchiseID: query.FranchiseID, Status: checkin.StatusActive})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list active check-ins: %w", err)
	}
	d.CurrentlyIn = len(active)

	payments, err := deps.PaymentStore.List(ctx, paymentstore.ListFilter{FranchiseID: query.FranchiseID})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list payments: %w", err)
	}
	d.Revenue = RevenueGrowth(payments, now)
	thisMonth := filterPayments(payments, func(p payment.Payment) bool {
		return Completed(p) && InMonth(now.Year(), now.Month())(p)
	})
	d.RevenueByType = GroupSum(thisMonth, ByType)
	d.RevenueByMethod = GroupSum(thisMonth, ByMethod)
	for _, p := range payments {
		switch p.Status {
		case payment.StatusPending:
			d.PendingPayments++
		case payment.StatusOverdue:
			d.OverduePayments++
		}
	}

	reorder, err := deps.ProductStore.ListNeedingReorder(ctx, query.FranchiseID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list low stock: %w", err)
	}
	for _, p := range reorder {
		if p.Stock <= 0 {
			d.OutOfStock++
		} else {
			d.LowStock++
		}
	}

	events, err := deps.ScheduleStore.List(ctx, schedulestore.ListFilter{FranchiseID: query.FranchiseID, From: start, To: start.AddDate(0, 0, 7)})
	if err != nil {
		return Dashboard{}, fmt.Errorf("list schedule: %w", err)
	}
	for _, e := range events {
		if e.StartTime.After(now) && e.Status != schedule.StatusCancelled {
			d.UpcomingEvents++
		}
	}
	d.RoomUtilization = RoomUtilization(events)
	d.TrainerUtilization = TrainerUtilization(events)
	return d, nil
}
