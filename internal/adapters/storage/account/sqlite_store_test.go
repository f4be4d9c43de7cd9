package account_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/adapters/storage/account"
	"gymdash/internal/adapters/storage/storagetest"
	domain "gymdash/internal/domain/account"
)

func TestAccountStore(t *testing.T) {
	s := account.NewSQLiteStore(storagetest.Open(t))
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	a := domain.Account{ID: "a1", Email: "Admin@Gym.Test", PasswordHash: "x", Role: domain.RoleAdmin, CreatedAt: now}
	require.NoError(t, s.Save(ctx, a))

	got, err := s.GetByEmail(ctx, "admin@gym.test")
	require.NoError(t, err)
	assert.Equal(t, "admin@gym.test", got.Email)
	assert.False(t, got.OnboardingComplete)
	assert.True(t, got.LockedUntil.IsZero())

	got.CompleteOnboarding()
	got.LockedUntil = now.Add(15 * time.Minute)
	got.FailedLogins = 5
	require.NoError(t, s.Save(ctx, got))

	again, err := s.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, again.OnboardingComplete)
	assert.Equal(t, 5, again.FailedLogins)
	assert.True(t, again.LockedUntil.Equal(now.Add(15*time.Minute)))

	admins, err := s.List(ctx, account.ListFilter{Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, admins, 1)

	_, err = s.GetByID(ctx, "nobody")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
