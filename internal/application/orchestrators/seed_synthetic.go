package orchestrators

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	memberstore "gymdash/internal/adapters/storage/member"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
	"gymdash/internal/logger"
)

// DemoSeedDeps holds all stores needed for demo data seeding.
type DemoSeedDeps struct {
	FranchiseStore interface {
		Save(ctx context.Context, f franchise.Franchise) error
	}
	MemberStore interface {
		Save(ctx context.Context, m member.Member) error
		List(ctx context.Context, filter memberstore.ListFilter) ([]member.Member, error)
	}
	TrainerStore interface {
		Save(ctx context.Context, t trainer.Trainer) error
	}
	ProductStore interface {
		Save(ctx context.Context, p product.Product) error
	}
	ScheduleStore interface {
		Save(ctx context.Context, e schedule.Event) error
	}
	PaymentStore interface {
		Create(ctx context.Context, p payment.Payment) error
	}
	CheckInStore interface {
		Create(ctx context.Context, c checkin.CheckIn) error
	}
	Logger *zap.Logger
	Now    func() time.Time
}

// ExecuteSeedDemo fills an empty database with one franchise worth of
// realistic records for local development.
// PRE: schema initialised
// POST: returns false without writing when any member already exists
func ExecuteSeedDemo(ctx context.Context, deps DemoSeedDeps) (bool, error) {
	existing, err := deps.MemberStore.List(ctx, memberstore.ListFilter{Limit: 1})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	now := nowFrom(deps.Now)
	today := now.Truncate(24 * time.Hour)

	f := franchise.Franchise{
		ID:     generateID(),
		Name:   "Downtown",
		Status: franchise.StatusActive,
		Settings: franchise.Settings{
			OperatingHours: map[string]string{
				"monday": "05:30-22:00", "tuesday": "05:30-22:00", "wednesday": "05:30-22:00",
				"thursday": "05:30-22:00", "friday": "05:30-21:00", "saturday": "07:00-18:00",
			},
			Amenities: []string{"sauna", "pool", "parking"},
		},
	}

	trainers := []trainer.Trainer{
		{Name: "Mia Torres", Email: "mia@gymdash.test", Role: trainer.RoleTrainer, Specializations: []string{"hiit", "spin"}, Rating: 4.8},
		{Name: "Sam Okafor", Email: "sam@gymdash.test", Role: trainer.RoleTrainer, Specializations: []string{"strength"}, Rating: 4.5},
		{Name: "Lee Park", Email: "lee@gymdash.test", Role: trainer.RoleManager, Rating: 4.9},
	}
	for i := range trainers {
		trainers[i].ID = generateID()
		trainers[i].FranchiseID = f.ID
		trainers[i].Phone = fmt.Sprintf("+6421000%03d", i)
		trainers[i].Normalize()
	}
	f.AssignManager(trainers[2].ID)
	if err := deps.FranchiseStore.Save(ctx, f); err != nil {
		return false, fmt.Errorf("seed franchise: %w", err)
	}
	for _, t := range trainers {
		if err := deps.TrainerStore.Save(ctx, t); err != nil {
			return false, fmt.Errorf("seed trainer %s: %w", t.Name, err)
		}
	}

	names := []struct{ name, pkg, status string }{
		{"John Doe", "premium", member.StatusActive},
		{"Jane Smith", "basic", member.StatusActive},
		{"Aroha Ngata", "premium", member.StatusActive},
		{"Tom Becker", "student", member.StatusActive},
		{"Priya Shah", "basic", member.StatusInactive},
		{"Oscar Lind", "basic", member.StatusExpired},
	}
	members := make([]member.Member, 0, len(names))
	for i, n := range names {
		m := member.Member{
			ID:          generateID(),
			FranchiseID: f.ID,
			Name:        n.name,
			Email:       fmt.Sprintf("member%d@gymdash.test", i+1),
			Phone:       fmt.Sprintf("+6422000%03d", i),
			Package:     n.pkg,
			Status:      n.status,
			JoinedAt:    today.AddDate(0, -i-1, 0),
		}
		if err := deps.MemberStore.Save(ctx, m); err != nil {
			return false, fmt.Errorf("seed member %s: %w", m.Name, err)
		}
		members = append(members, m)
	}

	products := []product.Product{
		{SKU: "BAR-CHOC", Name: "Protein Bar (Chocolate)", Category: "nutrition", Price: 350, Stock: 40, MinStock: 10},
		{SKU: "SHAKE-VAN", Name: "Whey Shake (Vanilla)", Category: "nutrition", Price: 600, Stock: 6, MinStock: 8},
		{SKU: "TOWEL", Name: "Gym Towel", Category: "merchandise", Price: 1500, Stock: 0, MinStock: 3},
		{SKU: "BOTTLE", Name: "Water Bottle", Category: "merchandise", Price: 1200, Stock: 25, MinStock: 5},
	}
	for _, p := range products {
		p.ID = generateID()
		p.FranchiseID = f.ID
		p.Normalize()
		if err := deps.ProductStore.Save(ctx, p); err != nil {
			return false, fmt.Errorf("seed product %s: %w", p.SKU, err)
		}
	}

	events := []schedule.Event{
		{Title: "Morning Spin", Type: schedule.TypeClass, TrainerID: trainers[0].ID, Room: "Studio A", StartTime: today.Add(30 * time.Hour), Capacity: 20, Enrolled: 18},
		{Title: "Strength Basics", Type: schedule.TypeClass, TrainerID: trainers[1].ID, Room: "Weights Room", StartTime: today.Add(42 * time.Hour), Capacity: 12, Enrolled: 4},
		{Title: "PT: John Doe", Type: schedule.TypePersonalTraining, TrainerID: trainers[1].ID, Room: "PT Bay", StartTime: today.Add(34 * time.Hour), Capacity: 1, Enrolled: 1},
		{Title: "Pool Cleaning", Type: schedule.TypeMaintenance, Room: "Pool", StartTime: today.Add(50 * time.Hour), Capacity: 0},
	}
	for _, e := range events {
		e.ID = generateID()
		e.FranchiseID = f.ID
		e.EndTime = e.StartTime.Add(time.Hour)
		e.Normalize()
		if err := deps.ScheduleStore.Save(ctx, e); err != nil {
			return false, fmt.Errorf("seed event %s: %w", e.Title, err)
		}
	}

	lastMonth := today.AddDate(0, -1, 0)
	for i, m := range members[:4] {
		paid := today.AddDate(0, 0, -i)
		prev := lastMonth.AddDate(0, 0, -i)
		for _, p := range []payment.Payment{
			{MemberID: m.ID, Amount: 5900, Method: payment.MethodCard, Type: payment.TypeMembership, Status: payment.StatusCompleted, PaidAt: &paid, CreatedAt: paid},
			{MemberID: m.ID, Amount: 4900, Method: payment.MethodCard, Type: payment.TypeMembership, Status: payment.StatusCompleted, PaidAt: &prev, CreatedAt: prev},
		} {
			p.ID = generateID()
			if err := deps.PaymentStore.Create(ctx, p); err != nil {
				return false, fmt.Errorf("seed payment: %w", err)
			}
		}
	}
	pending := payment.Payment{ID: generateID(), MemberID: members[1].ID, Amount: 3000, Method: payment.MethodCash,
		Type: payment.TypePersonalTraining, Status: payment.StatusPending, DueDate: today.AddDate(0, 0, -10), CreatedAt: today.AddDate(0, 0, -20)}
	if err := deps.PaymentStore.Create(ctx, pending); err != nil {
		return false, fmt.Errorf("seed payment: %w", err)
	}

	for i, m := range members[:3] {
		c := checkin.CheckIn{
			ID:          generateID(),
			MemberID:    m.ID,
			CheckInTime: now.Add(-time.Duration(i+1) * 40 * time.Minute),
			Method:      checkin.ValidMethods[i%len(checkin.ValidMethods)],
			Status:      checkin.StatusActive,
		}
		if err := deps.CheckInStore.Create(ctx, c); err != nil {
			return false, fmt.Errorf("seed check-in: %w", err)
		}
	}

	logger.OrNop(deps.Logger).Info("seed_event", zap.String("event", "demo_seeded"), zap.String("franchise_id", f.ID),
		zap.Int("members", len(members)), zap.Int("products", len(products)), zap.Int("events", len(events)))
	return true, nil
}
