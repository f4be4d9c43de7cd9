package orchestrators

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"gymdash/internal/domain/account"
	"gymdash/internal/logger"
)

// CompleteOnboardingInput carries input for first-run setup.
type CompleteOnboardingInput struct {
	AccountID       string
	CurrentPassword string
	NewPassword     string
}

// AccountStoreForOnboarding defines the store interface needed by CompleteOnboarding.
type AccountStoreForOnboarding interface {
	GetByID(ctx context.Context, id string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// CompleteOnboardingDeps holds dependencies for CompleteOnboarding.
type CompleteOnboardingDeps struct {
	AccountStore AccountStoreForOnboarding
	Logger       *zap.Logger
}

var (
	ErrCurrentPasswordWrong = errors.New("current password is incorrect")
	ErrNewPasswordSame      = errors.New("new password must be different from current password")
)

// ExecuteCompleteOnboarding replaces the seeded password and marks the
// account onboarded.
// PRE: AccountID is valid, both passwords are non-empty
// POST: Password is updated, OnboardingComplete is true
func ExecuteCompleteOnboarding(ctx context.Context, input CompleteOnboardingInput, deps CompleteOnboardingDeps) error {
	if input.AccountID == "" || input.CurrentPassword == "" || input.NewPassword == "" {
		return errors.New("all fields are required")
	}

	acct, err := deps.AccountStore.GetByID(ctx, input.AccountID)
	if err != nil {
		return err
	}
	if err := acct.CheckPassword(input.CurrentPassword); err != nil {
		return ErrCurrentPasswordWrong
	}
	if input.CurrentPassword == input.NewPassword {
		return ErrNewPasswordSame
	}
	if err := acct.SetPassword(input.NewPassword); err != nil {
		return err
	}
	acct.CompleteOnboarding()
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return err
	}

	logger.OrNop(deps.Logger).Info("auth_event", zap.String("event", "onboarding_complete"), zap.String("account_id", acct.ID))
	return nil
}
