package orchestrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/storage"
	"gymdash/internal/domain/account"
	"gymdash/internal/logger"
)

// AccountStoreForCreate defines the store interface needed by CreateAccount.
type AccountStoreForCreate interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
	Count(ctx context.Context) (int, error)
}

// CreateAccountInput carries input for the orchestrator.
type CreateAccountInput struct {
	Email              string
	Password           string
	Role               string
	FranchiseID        string
	OnboardingComplete bool
}

// CreateAccountDeps holds dependencies for CreateAccount.
type CreateAccountDeps struct {
	AccountStore AccountStoreForCreate
	Logger       *zap.Logger
	Now          func() time.Time
}

var ErrEmailAlreadyExists = errors.New("an account with this email already exists")

// ExecuteCreateAccount coordinates account creation.
// PRE: Valid email, password >= 12 chars, valid role
// POST: Account created with hashed password
// INVARIANT: Email must be unique
func ExecuteCreateAccount(ctx context.Context, input CreateAccountInput, deps CreateAccountDeps) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := deps.AccountStore.GetByEmail(ctx, email); err == nil {
		return "", ErrEmailAlreadyExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	acct := account.Account{
		ID:                 generateID(),
		Email:              email,
		Role:               input.Role,
		FranchiseID:        input.FranchiseID,
		OnboardingComplete: input.OnboardingComplete,
		CreatedAt:          nowFrom(deps.Now),
	}
	if err := acct.Validate(); err != nil {
		return "", err
	}
	if err := acct.SetPassword(input.Password); err != nil {
		return "", err
	}
	if err := deps.AccountStore.Save(ctx, acct); err != nil {
		return "", err
	}

	logger.OrNop(deps.Logger).Info("auth_event", zap.String("event", "account_created"), zap.String("email", email), zap.String("role", acct.Role))
	return acct.ID, nil
}

// ExecuteSeedAdmin creates the first admin when no accounts exist. The admin
// must pass onboarding before reaching the dashboard.
// POST: returns true when an account was created
func ExecuteSeedAdmin(ctx context.Context, email, password string, deps CreateAccountDeps) (bool, error) {
	n, err := deps.AccountStore.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 || email == "" || password == "" {
		return false, nil
	}
	if _, err := ExecuteCreateAccount(ctx, CreateAccountInput{Email: email, Password: password, Role: account.RoleAdmin}, deps); err != nil {
		return false, err
	}
	return true, nil
}
