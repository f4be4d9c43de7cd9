package checkin

import (
	"errors"
	"time"

	"gymdash/internal/domain/validation"
)

// Status values.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Method values.
const (
	MethodManual    = "manual"
	MethodQR        = "qr"
	MethodRFID      = "rfid"
	MethodBiometric = "biometric"
)

var ValidMethods = []string{MethodManual, MethodQR, MethodRFID, MethodBiometric}

var (
	ErrAlreadyCheckedIn = errors.New("member already has an active check-in")
	ErrNotCheckedIn     = errors.New("member has no active check-in")
	ErrAlreadyCompleted = errors.New("check-in is already completed")
)

// CheckIn is one visit. At most one active CheckIn exists per member.
type CheckIn struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member_id"`
	MemberName   string     `json:"member_name,omitempty"`
	CheckInTime  time.Time  `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty"`
	Method       string     `json:"method"`
	Status       string     `json:"status"`
}

// Validate checks if the CheckIn has valid data.
// PRE: CheckIn struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: a completed check-in has a check-out time not before check-in
func (c *CheckIn) Validate() error {
	var errs validation.Errors
	errs.Required("member_id", c.MemberID)
	if c.CheckInTime.IsZero() {
		errs.Add("check_in_time", "is required")
	}
	errs.OneOf("method", c.Method, ValidMethods...)
	errs.OneOf("status", c.Status, StatusActive, StatusCompleted)
	if c.Status == StatusCompleted && c.CheckOutTime == nil {
		errs.Add("check_out_time", "is required once completed")
	}
	if c.CheckOutTime != nil && c.CheckOutTime.Before(c.CheckInTime) {
		errs.Add("check_out_time", "cannot be before check-in time")
	}
	return errs.Err()
}

// IsActive reports whether the member is still on site.
func (c *CheckIn) IsActive() bool {
	return c.Status == StatusActive
}

// Complete checks the member out.
// PRE: CheckIn is active
// POST: Status is completed, CheckOutTime is at (clamped to CheckInTime)
func (c *CheckIn) Complete(at time.Time) error {
	if c.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if at.Before(c.CheckInTime) {
		at = c.CheckInTime
	}
	c.CheckOutTime = &at
	c.Status = StatusCompleted
	return nil
}

// Duration returns the visit length, or the time on site so far.
func (c *CheckIn) Duration(now time.Time) time.Duration {
	if c.CheckOutTime != nil {
		return c.CheckOutTime.Sub(c.CheckInTime)
	}
	return now.Sub(c.CheckInTime)
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(CheckIn) string {
	return []func(CheckIn) string{
		func(c CheckIn) string { return c.MemberName },
		func(c CheckIn) string { return c.MemberID },
		func(c CheckIn) string { return c.Method },
	}
}
