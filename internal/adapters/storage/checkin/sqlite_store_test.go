package checkin_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/adapters/storage/checkin"
	"gymdash/internal/adapters/storage/storagetest"
	domain "gymdash/internal/domain/checkin"
)

var t0 = time.Date(2026, 5, 1, 7, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *checkin.SQLiteStore {
	db := storagetest.Open(t)
	storagetest.Exec(t, db, `INSERT INTO member (id, franchise_id, name, email, package, status, joined_at) VALUES ('m1','f1','John Doe','j@x.io','basic','active',''), ('m2','f2','Jane Roe','r@x.io','basic','active','')`)
	return checkin.NewSQLiteStore(db)
}

func active(id, member string, at time.Time) domain.CheckIn {
	return domain.CheckIn{ID: id, MemberID: member, CheckInTime: at, Method: domain.MethodQR, Status: domain.StatusActive}
}

func TestCheckInStore_OneActivePerMember(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, active("c1", "m1", t0)))

	err := s.Create(ctx, active("c2", "m1", t0.Add(time.Minute)))
	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)

	require.NoError(t, s.Complete(ctx, "c1", t0.Add(time.Hour)))
	require.NoError(t, s.Create(ctx, active("c3", "m1", t0.Add(2*time.Hour))))

	open, err := s.GetActiveByMember(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "c3", open.ID)
	assert.Equal(t, "John Doe", open.MemberName)
}

func TestCheckInStore_CompleteTwice(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, active("c1", "m1", t0)))
	require.NoError(t, s.Complete(ctx, "c1", t0.Add(time.Hour)))

	assert.ErrorIs(t, s.Complete(ctx, "c1", t0.Add(2*time.Hour)), domain.ErrAlreadyCompleted)
	assert.True(t, errors.Is(s.Complete(ctx, "zz", t0), storage.ErrNotFound))

	got, err := s.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got.CheckOutTime)
	assert.True(t, got.CheckOutTime.Equal(t0.Add(time.Hour)))

	_, err = s.GetActiveByMember(ctx, "m1")
	assert.ErrorIs(t, err, domain.ErrNotCheckedIn)
}

func TestCheckInStore_ListWindow(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, active("c1", "m1", t0)))
	require.NoError(t, s.Create(ctx, active("c2", "m2", t0.Add(24*time.Hour))))

	day, err := s.List(ctx, checkin.ListFilter{Since: t0, Until: t0.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "c1", day[0].ID)

	f2, err := s.List(ctx, checkin.ListFilter{FranchiseID: "f2"})
	require.NoError(t, err)
	require.Len(t, f2, 1)
	assert.Equal(t, "Jane Roe", f2[0].MemberName)
}
