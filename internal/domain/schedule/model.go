package schedule

import (
	"errors"
	"strings"
	"time"

	"gymdash/internal/domain/validation"
)

// Event type values.
const (
	TypeClass            = "class"
	TypePersonalTraining = "personal_training"
	TypeEvent            = "event"
	TypeMaintenance      = "maintenance"
)

// Status values.
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	ValidTypes    = []string{TypeClass, TypePersonalTraining, TypeEvent, TypeMaintenance}
	ValidStatuses = []string{StatusScheduled, StatusConfirmed, StatusCancelled}
)

// Domain errors
var (
	ErrAtCapacity       = errors.New("event is at capacity")
	ErrNoEnrollment     = errors.New("event has no enrollments to remove")
	ErrCancelled        = errors.New("event is cancelled")
	ErrAlreadyCancelled = errors.New("event is already cancelled")
	ErrNotEnrollable    = errors.New("maintenance slots do not take enrollments")
	ErrRoomBooked       = errors.New("room is already booked for that time")
)

// Event is a scheduled room booking: a class, PT session, event or
// maintenance window.
type Event struct {
	ID          string    `json:"id"`
	FranchiseID string    `json:"franchise_id,omitempty"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	TrainerID   string    `json:"trainer_id,omitempty"`
	Room        string    `json:"room"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	Enrolled    int       `json:"enrolled"`
	Status      string    `json:"status"`
}

// Validate checks if the Event has valid data.
// PRE: Event struct is populated
// POST: Returns validation.Errors if invalid
// INVARIANT: 0 <= Enrolled <= Capacity, EndTime after StartTime
func (e *Event) Validate() error {
	var errs validation.Errors
	errs.Required("title", e.Title)
	errs.Required("room", e.Room)
	errs.OneOf("type", e.Type, ValidTypes...)
	errs.OneOf("status", e.Status, ValidStatuses...)
	if e.StartTime.IsZero() {
		errs.Add("start_time", "is required")
	}
	if !e.EndTime.After(e.StartTime) {
		errs.Add("end_time", "must be after start_time")
	}
	if e.Capacity < 0 {
		errs.Add("capacity", "cannot be negative")
	}
	if e.Enrolled < 0 || e.Enrolled > e.Capacity {
		errs.Add("enrolled", "must be between 0 and capacity")
	}
	if e.Type == TypePersonalTraining && strings.TrimSpace(e.TrainerID) == "" {
		errs.Add("trainer_id", "is required for personal training")
	}
	return errs.Err()
}

// Normalize applies defaults for a new event.
func (e *Event) Normalize() {
	e.Title = strings.TrimSpace(e.Title)
	e.Room = strings.TrimSpace(e.Room)
	if e.Status == "" {
		e.Status = StatusScheduled
	}
}

// HasCapacity reports whether one more enrollment fits.
func (e *Event) HasCapacity() bool {
	return e.Enrolled < e.Capacity
}

// Enroll books one more attendee.
// PRE: event is not cancelled, Enrolled < Capacity
// POST: Enrolled incremented
// INVARIANT: Enrolled never exceeds Capacity
func (e *Event) Enroll() error {
	if e.Status == StatusCancelled {
		return ErrCancelled
	}
	if e.Type == TypeMaintenance {
		return ErrNotEnrollable
	}
	if !e.HasCapacity() {
		return ErrAtCapacity
	}
	e.Enrolled++
	return nil
}

// Unenroll releases one booking.
// PRE: Enrolled > 0
// POST: Enrolled decremented
func (e *Event) Unenroll() error {
	if e.Enrolled <= 0 {
		return ErrNoEnrollment
	}
	e.Enrolled--
	return nil
}

// Confirm marks a scheduled event as confirmed.
func (e *Event) Confirm() error {
	if e.Status == StatusCancelled {
		return ErrCancelled
	}
	e.Status = StatusConfirmed
	return nil
}

// Cancel is the soft delete for events.
// PRE: event is not already cancelled
// POST: Status is cancelled; enrollments are kept for reporting
func (e *Event) Cancel() error {
	if e.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	e.Status = StatusCancelled
	return nil
}

// Utilization returns Enrolled/Capacity as a percentage, 0 for capacity 0.
func (e *Event) Utilization() float64 {
	if e.Capacity <= 0 {
		return 0
	}
	return float64(e.Enrolled) / float64(e.Capacity) * 100
}

// DurationHours returns the booked length in hours.
func (e *Event) DurationHours() float64 {
	return e.EndTime.Sub(e.StartTime).Hours()
}

// Overlaps reports whether two events share a room at the same time.
func (e *Event) Overlaps(other Event) bool {
	if e.Room != other.Room || e.ID == other.ID {
		return false
	}
	if e.Status == StatusCancelled || other.Status == StatusCancelled {
		return false
	}
	return e.StartTime.Before(other.EndTime) && other.StartTime.Before(e.EndTime)
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Event) string {
	return []func(Event) string{
		func(e Event) string { return e.Title },
		func(e Event) string { return e.Room },
		func(e Event) string { return e.Type },
	}
}
