package orchestrators

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
)

func TestExecuteSoftDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.member(t, "m1", "John Doe", member.StatusActive, "")
	require.NoError(t, f.trainers.Save(ctx, trainer.Trainer{ID: "t1", Name: "Mia", Email: "mia@gym.test", Role: trainer.RoleTrainer, Status: trainer.StatusActive}))
	require.NoError(t, f.products.Save(ctx, product.Product{ID: "p1", SKU: "BAR", Name: "Bar", Category: "food", Price: 100, Stock: 10}))
	require.NoError(t, f.schedule.Save(ctx, schedule.Event{ID: "e1", Title: "Spin", Type: schedule.TypeClass, Room: "A",
		StartTime: fixedNow, EndTime: fixedNow.Add(time.Hour), Capacity: 10, Status: schedule.StatusScheduled}))
	require.NoError(t, f.franchises.Save(ctx, franchise.Franchise{ID: "f1", Name: "Downtown", Status: franchise.StatusActive}))
	deps := f.saveDeps()

	for _, tc := range []struct {
		kind entity.Kind
		id   string
	}{
		{entity.KindMembers, "m1"},
		{entity.KindTrainers, "t1"},
		{entity.KindProducts, "p1"},
		{entity.KindScheduleEvents, "e1"},
		{entity.KindFranchises, "f1"},
	} {
		require.NoError(t, ExecuteSoftDelete(ctx, tc.kind, tc.id, deps), tc.kind)
		require.NoError(t, ExecuteSoftDelete(ctx, tc.kind, tc.id, deps), "second delete of %s is a no-op", tc.kind)
	}

	m, err := f.members.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, member.StatusInactive, m.Status)
	tr, err := f.trainers.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, trainer.StatusInactive, tr.Status)
	p, err := f.products.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, product.StatusDiscontinued, p.Status)
	e, err := f.schedule.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCancelled, e.Status)
	fr, err := f.franchises.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, franchise.StatusInactive, fr.Status)
}

func TestExecuteSoftDelete_LedgerKinds(t *testing.T) {
	f := newFixture(t)
	for _, k := range []entity.Kind{entity.KindPayments, entity.KindSales, entity.KindAccessLogs, entity.KindCheckIns} {
		assert.ErrorIs(t, ExecuteSoftDelete(context.Background(), k, "x", f.saveDeps()), ErrNotDeletable, k)
	}
}

func TestExecuteSoftDelete_Missing(t *testing.T) {
	f := newFixture(t)
	err := ExecuteSoftDelete(context.Background(), entity.KindMembers, "ghost", f.saveDeps())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
