package orchestrators

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/domain/checkin"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/validation"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// CheckInMemberStore defines the member store interface needed for check-in.
type CheckInMemberStore interface {
	GetByID(ctx context.Context, id string) (member.Member, error)
}

// CheckInStore defines the check-in persistence needed by check-in and check-out.
type CheckInStore interface {
	Create(ctx context.Context, c checkin.CheckIn) error
	GetActiveByMember(ctx context.Context, memberID string) (checkin.CheckIn, error)
	Complete(ctx context.Context, id string, at time.Time) error
}

// CheckInMemberInput carries input for the check-in orchestrator.
type CheckInMemberInput struct {
	MemberID string `json:"member_id"`
	Method   string `json:"method"` // defaults to manual
}

// CheckInMemberDeps holds dependencies for CheckInMember and CheckOutMember.
type CheckInMemberDeps struct {
	MemberStore  CheckInMemberStore
	CheckInStore CheckInStore
	Cache        cache.Cache // optional: dashboard invalidation
	Logger       *zap.Logger
	Now          func() time.Time
}

// ExecuteCheckInMember opens a check-in for an active member.
// PRE: MemberID names an existing member
// POST: one active CheckIn exists for the member
// INVARIANT: at most one active CheckIn per member; the store's unique index backs the pre-check
func ExecuteCheckInMember(ctx context.Context, input CheckInMemberInput, deps CheckInMemberDeps) (c checkin.CheckIn, err error) {
	defer func() { metrics.Event("check_in", err) }()
	log := logger.OrNop(deps.Logger)

	if input.MemberID == "" {
		var errs validation.Errors
		errs.Required("member_id", input.MemberID)
		return checkin.CheckIn{}, errs.Err()
	}

	m, err := deps.MemberStore.GetByID(ctx, input.MemberID)
	if err != nil {
		return checkin.CheckIn{}, err
	}
	if !m.IsActive() {
		log.Info("checkin_event", zap.String("event", "check_in_blocked"), zap.String("member_id", m.ID), zap.String("status", m.Status))
		return checkin.CheckIn{}, member.ErrNotActive
	}

	if _, err := deps.CheckInStore.GetActiveByMember(ctx, m.ID); err == nil {
		return checkin.CheckIn{}, checkin.ErrAlreadyCheckedIn
	} else if !errors.Is(err, checkin.ErrNotCheckedIn) {
		return checkin.CheckIn{}, err
	}

	method := input.Method
	if method == "" {
		method = checkin.MethodManual
	}
	c = checkin.CheckIn{
		ID:          generateID(),
		MemberID:    m.ID,
		MemberName:  m.Name,
		CheckInTime: nowFrom(deps.Now),
		Method:      method,
		Status:      checkin.StatusActive,
	}
	if err := c.Validate(); err != nil {
		return checkin.CheckIn{}, err
	}
	if err := deps.CheckInStore.Create(ctx, c); err != nil {
		return checkin.CheckIn{}, err
	}

	log.Info("checkin_event", zap.String("event", "member_checked_in"), zap.String("member_id", m.ID), zap.String("method", method))
	invalidate(ctx, deps.Cache, m.FranchiseID, log)
	return c, nil
}

// CheckOutMemberInput carries input for the check-out orchestrator.
type CheckOutMemberInput struct {
	MemberID string `json:"member_id"`
}

// ExecuteCheckOutMember completes the member's active check-in.
// PRE: the member has an active check-in
// POST: that check-in is completed with CheckOutTime set
func ExecuteCheckOutMember(ctx context.Context, input CheckOutMemberInput, deps CheckInMemberDeps) (c checkin.CheckIn, err error) {
	defer func() { metrics.Event("check_out", err) }()
	log := logger.OrNop(deps.Logger)

	if input.MemberID == "" {
		var errs validation.Errors
		errs.Required("member_id", input.MemberID)
		return checkin.CheckIn{}, errs.Err()
	}

	c, err = deps.CheckInStore.GetActiveByMember(ctx, input.MemberID)
	if err != nil {
		return checkin.CheckIn{}, err
	}
	if err := c.Complete(nowFrom(deps.Now)); err != nil {
		return checkin.CheckIn{}, err
	}
	if err := deps.CheckInStore.Complete(ctx, c.ID, *c.CheckOutTime); err != nil {
		return checkin.CheckIn{}, err
	}

	log.Info("checkin_event", zap.String("event", "member_checked_out"), zap.String("member_id", c.MemberID),
		zap.Duration("duration", c.CheckOutTime.Sub(c.CheckInTime)))
	invalidate(ctx, deps.Cache, memberFranchise(ctx, deps.MemberStore, c.MemberID), log)
	return c, nil
}
