package orchestrators

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/adapters/storage"
	schedulestore "gymdash/internal/adapters/storage/schedule"
	"gymdash/internal/domain/franchise"
	"gymdash/internal/domain/member"
	"gymdash/internal/domain/product"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/domain/trainer"
	"gymdash/internal/domain/validation"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// RecordStore is the read/write shape shared by the mutable kinds.
type RecordStore[T any] interface {
	GetByID(ctx context.Context, id string) (T, error)
	Save(ctx context.Context, value T) error
}

// ScheduleRecordStore adds the room lookup used for double-booking checks.
type ScheduleRecordStore interface {
	RecordStore[schedule.Event]
	List(ctx context.Context, filter schedulestore.ListFilter) ([]schedule.Event, error)
}

// SaveDeps holds the stores for create and update of mutable kinds. Only the
// store for the kind being saved needs to be set.
type SaveDeps struct {
	Members    RecordStore[member.Member]
	Trainers   RecordStore[trainer.Trainer]
	Products   RecordStore[product.Product]
	Schedule   ScheduleRecordStore
	Franchises RecordStore[franchise.Franchise]
	Cache      cache.Cache
	Logger     *zap.Logger
	Now        func() time.Time
}

// existing loads the stored record for an update. An empty id means create.
func existing[T any](ctx context.Context, store RecordStore[T], id string) (T, bool, error) {
	var zero T
	if id == "" {
		return zero, false, nil
	}
	v, err := store.GetByID(ctx, id)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func (d SaveDeps) saved(ctx context.Context, kind, id, franchiseID string, updated bool, err error) {
	event := kind + "_created"
	if updated {
		event = kind + "_updated"
	}
	metrics.Event(event, err)
	if err != nil {
		return
	}
	log := logger.OrNop(d.Logger)
	log.Info("record_event", zap.String("event", event), zap.String("id", id))
	invalidate(ctx, d.Cache, franchiseID, log)
}

// ExecuteSaveMember creates (id == "") or replaces a member.
// PRE: m passes Validate after normalisation
// POST: member stored; JoinedAt is kept from the stored record on update
func ExecuteSaveMember(ctx context.Context, id string, m member.Member, deps SaveDeps) (_ member.Member, err error) {
	prev, updating, err := existing(ctx, deps.Members, id)
	if err != nil {
		return member.Member{}, err
	}
	defer func() { deps.saved(ctx, "member", m.ID, m.FranchiseID, updating, err) }()

	if updating {
		m.ID = prev.ID
		if m.JoinedAt.IsZero() {
			m.JoinedAt = prev.JoinedAt
		}
	} else {
		m.ID = generateID()
	}
	m.Normalize(nowFrom(deps.Now))
	if err := m.Validate(); err != nil {
		return member.Member{}, err
	}
	if err := deps.Members.Save(ctx, m); err != nil {
		return member.Member{}, err
	}
	return m, nil
}

// ExecuteSaveTrainer creates or replaces a trainer or staff record.
func ExecuteSaveTrainer(ctx context.Context, id string, t trainer.Trainer, deps SaveDeps) (_ trainer.Trainer, err error) {
	prev, updating, err := existing(ctx, deps.Trainers, id)
	if err != nil {
		return trainer.Trainer{}, err
	}
	defer func() { deps.saved(ctx, "trainer", t.ID, t.FranchiseID, updating, err) }()

	t.ID = prev.ID
	if !updating {
		t.ID = generateID()
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return trainer.Trainer{}, err
	}
	if err := deps.Trainers.Save(ctx, t); err != nil {
		return trainer.Trainer{}, err
	}
	return t, nil
}

// ExecuteSaveProduct creates or replaces a product.
// POST: Status is re-derived from Stock and MinStock unless discontinued
func ExecuteSaveProduct(ctx context.Context, id string, p product.Product, deps SaveDeps) (_ product.Product, err error) {
	prev, updating, err := existing(ctx, deps.Products, id)
	if err != nil {
		return product.Product{}, err
	}
	defer func() { deps.saved(ctx, "product", p.ID, p.FranchiseID, updating, err) }()

	p.ID = prev.ID
	if !updating {
		p.ID = generateID()
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return product.Product{}, err
	}
	if err := deps.Products.Save(ctx, p); err != nil {
		return product.Product{}, err
	}
	return p, nil
}

// ExecuteSaveEvent creates or replaces a schedule event.
// PRE: the room is free for [StartTime, EndTime) within the event's franchise
// PRE: TrainerID, when set, names a trainer of the same franchise
// POST: event stored; on update the stored enrolment count is kept
// INVARIANT: 0 <= Enrolled <= Capacity
func ExecuteSaveEvent(ctx context.Context, id string, e schedule.Event, deps SaveDeps) (_ schedule.Event, err error) {
	prev, updating, err := existing[schedule.Event](ctx, deps.Schedule, id)
	if err != nil {
		return schedule.Event{}, err
	}
	defer func() { deps.saved(ctx, "schedule_event", e.ID, e.FranchiseID, updating, err) }()

	if updating {
		e.ID = prev.ID
		e.Enrolled = prev.Enrolled
		if e.Capacity < e.Enrolled {
			return schedule.Event{}, schedule.ErrAtCapacity
		}
	} else {
		e.ID = generateID()
	}
	e.Normalize()
	if err := e.Validate(); err != nil {
		return schedule.Event{}, err
	}
	if err := checkTrainer(ctx, deps.Trainers, e); err != nil {
		return schedule.Event{}, err
	}

	if e.Status != schedule.StatusCancelled {
		nearby, err := deps.Schedule.List(ctx, schedulestore.ListFilter{
			FranchiseID: e.FranchiseID,
			Room:        e.Room,
			From:        e.StartTime.Add(-24 * time.Hour),
			To:          e.EndTime,
		})
		if err != nil {
			return schedule.Event{}, err
		}
		for _, other := range nearby {
			if e.Overlaps(other) {
				return schedule.Event{}, schedule.ErrRoomBooked
			}
		}
	}

	if err := deps.Schedule.Save(ctx, e); err != nil {
		return schedule.Event{}, err
	}
	return e, nil
}

// checkTrainer rejects a trainer that does not exist or works for another
// franchise than the event.
func checkTrainer(ctx context.Context, trainers RecordStore[trainer.Trainer], e schedule.Event) error {
	if e.TrainerID == "" || trainers == nil {
		return nil
	}
	t, err := trainers.GetByID(ctx, e.TrainerID)
	if err == nil && e.FranchiseID != "" && t.FranchiseID != e.FranchiseID {
		err = storage.NotFound("trainer", e.TrainerID)
	}
	if errors.Is(err, storage.ErrNotFound) {
		var errs validation.Errors
		errs.Add("trainer_id", "unknown trainer %q", e.TrainerID)
		return errs.Err()
	}
	return err
}

// ExecuteSaveFranchise creates or replaces a franchise.
func ExecuteSaveFranchise(ctx context.Context, id string, f franchise.Franchise, deps SaveDeps) (_ franchise.Franchise, err error) {
	prev, updating, err := existing(ctx, deps.Franchises, id)
	if err != nil {
		return franchise.Franchise{}, err
	}
	defer func() { deps.saved(ctx, "franchise", f.ID, f.ID, updating, err) }()

	f.ID = prev.ID
	if !updating {
		f.ID = generateID()
	}
	f.Normalize()
	if err := f.Validate(); err != nil {
		return franchise.Franchise{}, err
	}
	if err := deps.Franchises.Save(ctx, f); err != nil {
		return franchise.Franchise{}, err
	}
	return f, nil
}
