package projections

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/storage"
	checkinstore "gymdash/internal/adapters/storage/checkin"
	memberstore "gymdash/internal/adapters/storage/member"
	paymentstore "gymdash/internal/adapters/storage/payment"
	productstore "gymdash/internal/adapters/storage/product"
	schedulestore "gymdash/internal/adapters/storage/schedule"
	"gymdash/internal/adapters/storage/storagetest"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
)

var dashNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func seedDashboard(t *testing.T, db *storage.TimedDB) DashboardDeps {
	t.Helper()
	ctx := context.Background()
	members := memberstore.NewSQLiteStore(db)
	checkins := checkinstore.NewSQLiteStore(db)
	payments := paymentstore.NewSQLiteStore(db)
	products := productstore.NewSQLiteStore(db)
	events := schedulestore.NewSQLiteStore(db)

	for _, m := range []member.Member{
		{ID: "m1", Name: "John Doe", Email: "john@example.com", Package: "premium", Status: member.StatusActive, JoinedAt: dashNow},
		{ID: "m2", Name: "Jane Smith", Email: "jane@example.com", Package: "basic", Status: member.StatusActive, JoinedAt: dashNow},
		{ID: "m3", Name: "Old Timer", Email: "old@example.com", Package: "basic", Status: member.StatusExpired, JoinedAt: dashNow},
	} {
		require.NoError(t, members.Save(ctx, m))
	}

	require.NoError(t, checkins.Create(ctx, checkin.CheckIn{ID: "c1", MemberID: "m1", CheckInTime: dashNow.Add(-2 * time.Hour), Method: checkin.MethodQR, Status: checkin.StatusActive}))
	require.NoError(t, checkins.Create(ctx, checkin.CheckIn{ID: "c2", MemberID: "m2", CheckInTime: dashNow.Add(-3 * time.Hour), Method: checkin.MethodRFID, Status: checkin.StatusActive}))
	require.NoError(t, checkins.Complete(ctx, "c2", dashNow.Add(-time.Hour)))

	paidAt := func(d time.Time) *time.Time { return &d }
	for _, p := range []payment.Payment{
		{ID: "p1", MemberID: "m1", Amount: 10000, Method: payment.MethodCard, Type: payment.TypeMembership, Status: payment.StatusCompleted, PaidAt: paidAt(dashNow.AddDate(0, 0, -5)), CreatedAt: dashNow.AddDate(0, 0, -5)},
		{ID: "p2", MemberID: "m2", Amount: 8000, Method: payment.MethodCash, Type: payment.TypeMembership, Status: payment.StatusCompleted, PaidAt: paidAt(dashNow.AddDate(0, -1, 0)), CreatedAt: dashNow.AddDate(0, -1, 0)},
		{ID: "p3", MemberID: "m2", Amount: 3000, Method: payment.MethodCard, Type: payment.TypeClass, Status: payment.StatusPending, DueDate: dashNow.AddDate(0, 0, 3), CreatedAt: dashNow},
	} {
		require.NoError(t, payments.Create(ctx, p))
	}

	require.NoError(t, products.Save(ctx, product.Product{ID: "pr1", SKU: "BAR-1", Name: "Protein Bar", Category: "food", Price: 350, Stock: 2, MinStock: 5}))
	require.NoError(t, products.Save(ctx, product.Product{ID: "pr2", SKU: "SHK-1", Name: "Shaker", Category: "gear", Price: 1200, Stock: 40, MinStock: 5}))

	require.NoError(t, events.Save(ctx, schedule.Event{ID: "e1", Title: "Spin", Type: schedule.TypeClass, TrainerID: "t1", Room: "Studio A", StartTime: dashNow.Add(2 * time.Hour), EndTime: dashNow.Add(3 * time.Hour), Capacity: 20, Enrolled: 10, Status: schedule.StatusScheduled}))

	return DashboardDeps{
		MemberStore:   members,
		CheckInStore:  checkins,
		PaymentStore:  payments,
		ProductStore:  products,
		ScheduleStore: events,
	}
}

func TestQueryDashboard(t *testing.T) {
	deps := seedDashboard(t, storagetest.Open(t))

	d, err := QueryDashboard(context.Background(), DashboardQuery{}, deps, dashNow)
	require.NoError(t, err)

	assert.Equal(t, 2, d.ActiveMembers)
	assert.Equal(t, 3, d.TotalMembers)
	assert.Equal(t, 2, d.TodayCheckIns)
	assert.Equal(t, 1, d.CurrentlyIn)
	assert.Equal(t, int64(10000), d.Revenue.ThisMonth)
	assert.Equal(t, int64(8000), d.Revenue.LastMonth)
	assert.InDelta(t, 25.0, d.Revenue.Growth, 1e-9)
	assert.Equal(t, map[string]int64{"membership": 10000}, d.RevenueByType)
	assert.Equal(t, 1, d.PendingPayments)
	assert.Equal(t, 1, d.LowStock)
	assert.Equal(t, 1, d.UpcomingEvents)
	assert.InDelta(t, 50.0, d.RoomUtilization["Studio A"], 1e-9)
}

func TestQueryDashboard_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	c := cache.NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:", nil)
	db := storagetest.Open(t)
	deps := seedDashboard(t, db)
	deps.Cache = c
	deps.TTL = time.Minute
	ctx := context.Background()

	first, err := QueryDashboard(ctx, DashboardQuery{}, deps, dashNow)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:"+DashboardCacheKey("")))

	// New data is invisible until the snapshot is invalidated.
	storagetest.Exec(t, db, `UPDATE member SET status = 'inactive' WHERE id = 'm1'`)
	cached, err := QueryDashboard(ctx, DashboardQuery{}, deps, dashNow.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, first.ActiveMembers, cached.ActiveMembers)

	require.NoError(t, InvalidateDashboard(ctx, c, ""))
	fresh, err := QueryDashboard(ctx, DashboardQuery{}, deps, dashNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.ActiveMembers)
}
