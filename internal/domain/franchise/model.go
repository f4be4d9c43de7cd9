package franchise

import (
	"errors"
	"strings"
	"time"

	"gymdash/internal/domain/validation"
)

// Status values.
const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusInactive = "inactive"
)

var ValidStatuses = []string{StatusActive, StatusPending, StatusInactive}

// ValidDays are the keys accepted in OperatingHours.
var ValidDays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var (
	ErrAlreadyActive   = errors.New("franchise is already active")
	ErrAlreadyInactive = errors.New("franchise is already inactive")
)

// Settings holds per-location configuration.
type Settings struct {
	OperatingHours map[string]string `json:"operating_hours"` // day -> "HH:MM-HH:MM"
	Amenities      []string          `json:"amenities"`
}

// Franchise is one gym location, the tenant boundary for members, staff,
// products and schedule.
type Franchise struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	ManagerID string   `json:"manager_id,omitempty"`
	Settings  Settings `json:"settings"`
	Status    string   `json:"status"`
}

// Validate checks if the Franchise has valid data.
// PRE: Franchise struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: every OperatingHours value parses as an HH:MM-HH:MM range
func (f *Franchise) Validate() error {
	var errs validation.Errors
	errs.Required("name", f.Name)
	errs.OneOf("status", f.Status, ValidStatuses...)
	for day, hours := range f.Settings.OperatingHours {
		if !isValidDay(day) {
			errs.Add("settings.operating_hours", "unknown day %q", day)
			continue
		}
		if _, _, err := ParseHours(hours); err != nil {
			errs.Add("settings.operating_hours", "%s: %v", day, err)
		}
	}
	return errs.Err()
}

// Normalize applies defaults.
func (f *Franchise) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	if f.Status == "" {
		f.Status = StatusPending
	}
	if f.Settings.OperatingHours == nil {
		f.Settings.OperatingHours = map[string]string{}
	}
	if f.Settings.Amenities == nil {
		f.Settings.Amenities = []string{}
	}
}

// ParseHours splits "06:00-22:00" into its bounds.
func ParseHours(s string) (string, string, error) {
	open, closeAt, ok := strings.Cut(s, "-")
	if !ok {
		return "", "", errors.New("hours must look like HH:MM-HH:MM")
	}
	open, closeAt = strings.TrimSpace(open), strings.TrimSpace(closeAt)
	if _, err := time.Parse("15:04", open); err != nil {
		return "", "", errors.New("opening time must be HH:MM")
	}
	if _, err := time.Parse("15:04", closeAt); err != nil {
		return "", "", errors.New("closing time must be HH:MM")
	}
	return open, closeAt, nil
}

// IsOpen reports whether the location is open at t (local to t's zone).
func (f *Franchise) IsOpen(t time.Time) bool {
	hours, ok := f.Settings.OperatingHours[strings.ToLower(t.Weekday().String())]
	if !ok {
		return false
	}
	open, closeAt, err := ParseHours(hours)
	if err != nil {
		return false
	}
	now := t.Format("15:04")
	if open <= closeAt {
		return now >= open && now < closeAt
	}
	return now >= open || now < closeAt
}

// AssignManager sets the managing staff member.
// PRE: trainerID refers to a staff record with manager role (checked by caller)
// POST: ManagerID is set
func (f *Franchise) AssignManager(trainerID string) {
	f.ManagerID = trainerID
}

// Activate moves a pending or inactive franchise to active.
func (f *Franchise) Activate() error {
	if f.Status == StatusActive {
		return ErrAlreadyActive
	}
	f.Status = StatusActive
	return nil
}

// Deactivate is the soft delete for franchises.
func (f *Franchise) Deactivate() error {
	if f.Status == StatusInactive {
		return ErrAlreadyInactive
	}
	f.Status = StatusInactive
	return nil
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Franchise) string {
	return []func(Franchise) string{
		func(f Franchise) string { return f.Name },
		func(f Franchise) string { return strings.Join(f.Settings.Amenities, " ") },
	}
}

func isValidDay(day string) bool {
	for _, d := range ValidDays {
		if d == day {
			return true
		}
	}
	return false
}
