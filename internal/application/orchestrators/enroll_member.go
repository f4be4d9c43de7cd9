package orchestrators

import (
	"context"

	"go.uber.org/zap"

	"gymdash/internal/adapters/cache"
	"gymdash/internal/domain/schedule"
	"gymdash/internal/logger"
	"gymdash/internal/metrics"
)

// EnrollmentStore defines the schedule store interface needed for enrolment.
type EnrollmentStore interface {
	Enroll(ctx context.Context, id string) (schedule.Event, error)
	Unenroll(ctx context.Context, id string) (schedule.Event, error)
}

// EnrollDeps holds dependencies for Enroll and Unenroll.
type EnrollDeps struct {
	ScheduleStore EnrollmentStore
	Cache         cache.Cache
	Logger        *zap.Logger
}

// ExecuteEnroll takes one seat in a schedule event.
// PRE: EventID names a bookable, non-cancelled event
// POST: Enrolled incremented by one
// INVARIANT: 0 <= Enrolled <= Capacity, enforced by a conditional update
func ExecuteEnroll(ctx context.Context, eventID string, deps EnrollDeps) (e schedule.Event, err error) {
	defer func() { metrics.Event("enroll", err) }()
	log := logger.OrNop(deps.Logger)

	e, err = deps.ScheduleStore.Enroll(ctx, eventID)
	if err != nil {
		log.Info("schedule_event", zap.String("event", "enroll_rejected"), zap.String("event_id", eventID), zap.Error(err))
		return schedule.Event{}, err
	}
	log.Info("schedule_event", zap.String("event", "enrolled"), zap.String("event_id", e.ID),
		zap.Int("enrolled", e.Enrolled), zap.Int("capacity", e.Capacity))
	invalidate(ctx, deps.Cache, e.FranchiseID, log)
	return e, nil
}

// ExecuteUnenroll releases one seat.
// PRE: the event has at least one enrolment
// POST: Enrolled decremented by one
func ExecuteUnenroll(ctx context.Context, eventID string, deps EnrollDeps) (e schedule.Event, err error) {
	defer func() { metrics.Event("unenroll", err) }()
	log := logger.OrNop(deps.Logger)

	e, err = deps.ScheduleStore.Unenroll(ctx, eventID)
	if err != nil {
		return schedule.Event{}, err
	}
	log.Info("schedule_event", zap.String("event", "unenrolled"), zap.String("event_id", e.ID), zap.Int("enrolled", e.Enrolled))
	invalidate(ctx, deps.Cache, e.FranchiseID, log)
	return e, nil
}
