package orchestrators

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/domain/account"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// AccountStoreForLogin defines the store interface needed by Login.
type AccountStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (account.Account, error)
	Save(ctx context.Context, a account.Account) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	AccountID          string
	Email              string
	Role               string
	FranchiseID        string
	OnboardingComplete bool
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	AccountStore AccountStoreForLogin
	Logger       *zap.Logger
	Now          func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts")
)

// ExecuteLogin validates credentials and returns account info for session creation.
// PRE: Valid email and password provided
// POST: Returns account info on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (_ LoginResult, err error) {
	defer func() { metrics.Event("login", err) }()
	log := logger.OrNop(deps.Logger)
	now := nowFrom(deps.Now)

	if input.Email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	acct, err := deps.AccountStore.GetByEmail(ctx, input.Email)
	if err != nil {
		log.Info("auth_event", zap.String("event", "login_failed"), zap.String("email", input.Email), zap.String("reason", "not_found"))
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.IsLocked(now) {
		log.Info("auth_event", zap.String("event", "login_blocked"), zap.String("email", input.Email), zap.String("reason", "locked"))
		return LoginResult{}, ErrAccountLocked
	}

	if err := acct.CheckPassword(input.Password); err != nil {
		acct.RecordFailedLogin(now)
		if saveErr := deps.AccountStore.Save(ctx, acct); saveErr != nil {
			log.Error("auth_event_save_failed", zap.String("email", input.Email), zap.Error(saveErr))
		}
		log.Info("auth_event", zap.String("event", "login_failed"), zap.String("email", input.Email),
			zap.String("reason", "wrong_password"), zap.Int("failed_logins", acct.FailedLogins))
		return LoginResult{}, ErrInvalidCredentials
	}

	if acct.FailedLogins > 0 {
		acct.ResetFailedLogins()
		if err := deps.AccountStore.Save(ctx, acct); err != nil {
			return LoginResult{}, err
		}
	}

	log.Info("auth_event", zap.String("event", "login_success"), zap.String("email", acct.Email), zap.String("role", acct.Role))
	return LoginResult{
		AccountID:          acct.ID,
		Email:              acct.Email,
		Role:               acct.Role,
		FranchiseID:        acct.FranchiseID,
		OnboardingComplete: acct.OnboardingComplete,
	}, nil
}
