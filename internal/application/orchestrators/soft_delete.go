package orchestrators

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gymdash/internal/domain/entity"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// ErrNotDeletable is returned for ledger kinds, which have no delete.
var ErrNotDeletable = errors.New("records of this kind cannot be deleted")

// ExecuteSoftDelete retires a record by flipping its lifecycle status:
// members and trainers become inactive, products discontinued, events
// cancelled and franchises inactive. Deleting an already-retired record
// succeeds without a write.
// PRE: kind.Deletable()
// POST: the record still exists with its retired status
func ExecuteSoftDelete(ctx context.Context, kind entity.Kind, id string, deps SaveDeps) (err error) {
	if !kind.Deletable() {
		return fmt.Errorf("%s: %w", kind, ErrNotDeletable)
	}
	defer func() { metrics.Event(string(kind)+"_deleted", err) }()

	var franchiseID string
	switch kind {
	case entity.KindMembers:
		err = retire(ctx, deps.Members, id, func(m *member.Member) error {
			franchiseID = m.FranchiseID
			return ignore(m.Deactivate(), member.ErrAlreadyInactive)
		})
	case entity.KindTrainers:
		err = retire(ctx, deps.Trainers, id, func(t *trainer.Trainer) error {
			franchiseID = t.FranchiseID
			return ignore(t.Deactivate(), trainer.ErrAlreadyInactive)
		})
	case entity.KindProducts:
		err = retire(ctx, deps.Products, id, func(p *product.Product) error {
			franchiseID = p.FranchiseID
			return ignore(p.Discontinue(), product.ErrAlreadyDiscontinued)
		})
	case entity.KindScheduleEvents:
		err = retire[schedule.Event](ctx, deps.Schedule, id, func(e *schedule.Event) error {
			franchiseID = e.FranchiseID
			return ignore(e.Cancel(), schedule.ErrAlreadyCancelled)
		})
	case entity.KindFranchises:
		err = retire(ctx, deps.Franchises, id, func(f *franchise.Franchise) error {
			franchiseID = f.ID
			return ignore(f.Deactivate(), franchise.ErrAlreadyInactive)
		})
	default:
		err = fmt.Errorf("%s: %w", kind, ErrNotDeletable)
	}
	if err != nil {
		return err
	}

	log := logger.OrNop(deps.Logger)
	log.Info("record_event", zap.String("event", "soft_deleted"), zap.String("kind", string(kind)), zap.String("id", id))
	invalidate(ctx, deps.Cache, franchiseID, log)
	return nil
}

// errUnchanged marks a transition that was already in effect.
var errUnchanged = errors.New("unchanged")

func ignore(err, already error) error {
	if errors.Is(err, already) {
		return errUnchanged
	}
	return err
}

func retire[T any](ctx context.Context, store RecordStore[T], id string, flip func(*T) error) error {
	v, err := store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := flip(&v); err != nil {
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return err
	}
	return store.Save(ctx, v)
}
