package orchestrators

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/storage"
	"gymdash/internal/domain/payment"
	"gymdash/internal/domain/validation"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// PaymentStore defines the payment persistence used by the payment commands.
type PaymentStore interface {
	Create(ctx context.Context, p payment.Payment) error
	GetByID(ctx context.Context, id string) (payment.Payment, error)
	UpdateStatus(ctx context.Context, p payment.Payment, from string) error
	ListDueBefore(ctx context.Context, cutoff time.Time) ([]payment.Payment, error)
}

// PaymentDeps holds dependencies for the payment commands.
type PaymentDeps struct {
	PaymentStore PaymentStore
	MemberStore  CheckInMemberStore // optional: rejects unknown members and scopes cache invalidation
	Cache        cache.Cache
	Logger       *zap.Logger
	Now          func() time.Time
}

// ExecuteRecordPayment stores a new payment.
// PRE: p.MemberID names an existing member; p.Amount > 0
// POST: payment stored as pending unless it arrives completed with PaidAt
func ExecuteRecordPayment(ctx context.Context, p payment.Payment, deps PaymentDeps) (_ payment.Payment, err error) {
	defer func() { metrics.Event("payment_recorded", err) }()
	now := nowFrom(deps.Now)

	p.ID = generateID()
	p.CreatedAt = now
	if p.Status == "" {
		p.Status = payment.StatusPending
	}
	if p.Status == payment.StatusCompleted && p.PaidAt == nil {
		p.PaidAt = &now
	}
	if err := p.Validate(); err != nil {
		return payment.Payment{}, err
	}
	var franchiseID string
	if deps.MemberStore != nil {
		m, err := deps.MemberStore.GetByID(ctx, p.MemberID)
		if errors.Is(err, storage.ErrNotFound) {
			var errs validation.Errors
			errs.Add("member_id", "unknown member %q", p.MemberID)
			return payment.Payment{}, errs.Err()
		} else if err != nil {
			return payment.Payment{}, err
		}
		franchiseID = m.FranchiseID
	}
	if err := deps.PaymentStore.Create(ctx, p); err != nil {
		return payment.Payment{}, err
	}
	log := logger.OrNop(deps.Logger)
	log.Info("payment_event", zap.String("event", "payment_recorded"), zap.String("payment_id", p.ID),
		zap.Int64("amount", p.Amount), zap.String("status", p.Status))
	invalidate(ctx, deps.Cache, franchiseID, log)
	return p, nil
}

// TransitionPaymentInput carries input for a status change.
type TransitionPaymentInput struct {
	PaymentID string `json:"-"`
	Status    string `json:"status"`
}

// ExecuteTransitionPayment moves a payment along its status graph.
// PRE: the transition is allowed from the stored status
// POST: status updated; PaidAt set when completing
// INVARIANT: completed and failed are terminal; a concurrent change yields storage.ErrConflict
func ExecuteTransitionPayment(ctx context.Context, input TransitionPaymentInput, deps PaymentDeps) (p payment.Payment, err error) {
	defer func() { metrics.Event("payment_transition", err) }()

	p, err = deps.PaymentStore.GetByID(ctx, input.PaymentID)
	if err != nil {
		return payment.Payment{}, err
	}
	from := p.Status
	if err := p.Transition(input.Status, nowFrom(deps.Now)); err != nil {
		return payment.Payment{}, err
	}
	if err := deps.PaymentStore.UpdateStatus(ctx, p, from); err != nil {
		return payment.Payment{}, err
	}

	log := logger.OrNop(deps.Logger)
	log.Info("payment_event", zap.String("event", "payment_status_changed"), zap.String("payment_id", p.ID),
		zap.String("from", from), zap.String("to", p.Status))
	invalidate(ctx, deps.Cache, memberFranchise(ctx, deps.MemberStore, p.MemberID), log)
	return p, nil
}

// ExecuteOverdueSweep marks pending payments overdue once DueDate+grace has passed.
// POST: returns the payments that were moved to overdue
func ExecuteOverdueSweep(ctx context.Context, grace time.Duration, deps PaymentDeps) (_ []payment.Payment, err error) {
	defer func() { metrics.Event("overdue_sweep", err) }()
	log := logger.OrNop(deps.Logger)
	now := nowFrom(deps.Now)

	due, err := deps.PaymentStore.ListDueBefore(ctx, now.Add(-grace))
	if err != nil {
		return nil, err
	}

	moved := make([]payment.Payment, 0, len(due))
	for _, p := range due {
		if !p.IsOverdue(now, grace) {
			continue
		}
		from := p.Status
		if err := p.Transition(payment.StatusOverdue, now); err != nil {
			continue
		}
		if err := deps.PaymentStore.UpdateStatus(ctx, p, from); err != nil {
			if errors.Is(err, storage.ErrConflict) {
				// Settled between the list and the update.
				continue
			}
			return moved, err
		}
		moved = append(moved, p)
	}

	if len(moved) > 0 {
		log.Info("payment_event", zap.String("event", "overdue_sweep"), zap.Int("marked_overdue", len(moved)))
		franchises := make(map[string]bool)
		for _, p := range moved {
			franchises[memberFranchise(ctx, deps.MemberStore, p.MemberID)] = true
		}
		for id := range franchises {
			invalidate(ctx, deps.Cache, id, log)
		}
	}
	return moved, nil
}
