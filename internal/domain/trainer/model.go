// Package trainer models trainers and other staff. Both live in one
// collection distinguished by Role.
package trainer

import (
	"errors"
	"strings"

	"gymdash/internal/domain/validation"
)

// Role values.
const (
	RoleTrainer = "trainer"
	RoleStaff   = "staff"
	RoleManager = "manager"
)

// Status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

const (
	MaxNameLength = 100
	MaxRating     = 5.0
)

var (
	ValidRoles    = []string{RoleTrainer, RoleStaff, RoleManager}
	ValidStatuses = []string{StatusActive, StatusInactive}
)

var (
	ErrAlreadyInactive = errors.New("trainer is already inactive")
	ErrAlreadyActive   = errors.New("trainer is already active")
)

// Trainer is a staff record.
type Trainer struct {
	ID              string   `json:"id"`
	FranchiseID     string   `json:"franchise_id,omitempty"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone,omitempty"`
	Role            string   `json:"role"`
	Specializations []string `json:"specializations"`
	Rating          float64  `json:"rating"`
	Status          string   `json:"status"`
}

// Validate checks if the Trainer has valid data.
// PRE: Trainer struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: 0 <= Rating <= 5
func (t *Trainer) Validate() error {
	var errs validation.Errors
	errs.Required("name", t.Name)
	errs.MaxLen("name", t.Name, MaxNameLength)
	errs.Required("email", t.Email)
	errs.Email("email", t.Email)
	errs.OneOf("role", t.Role, ValidRoles...)
	errs.OneOf("status", t.Status, ValidStatuses...)
	if t.Rating < 0 || t.Rating > MaxRating {
		errs.Add("rating", "must be between 0 and 5")
	}
	for _, s := range t.Specializations {
		if strings.TrimSpace(s) == "" {
			errs.Add("specializations", "cannot contain blank entries")
			break
		}
	}
	return errs.Err()
}

// Normalize trims input and applies defaults.
func (t *Trainer) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Email = strings.ToLower(strings.TrimSpace(t.Email))
	if t.Role == "" {
		t.Role = RoleTrainer
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.Specializations == nil {
		t.Specializations = []string{}
	}
}

// IsActive reports whether the trainer can be scheduled.
func (t *Trainer) IsActive() bool {
	return t.Status == StatusActive
}

// Deactivate is the soft delete for staff.
// PRE: Trainer is active
// POST: Status is inactive
func (t *Trainer) Deactivate() error {
	if t.Status == StatusInactive {
		return ErrAlreadyInactive
	}
	t.Status = StatusInactive
	return nil
}

// Activate reverses Deactivate.
func (t *Trainer) Activate() error {
	if t.Status == StatusActive {
		return ErrAlreadyActive
	}
	t.Status = StatusActive
	return nil
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Trainer) string {
	return []func(Trainer) string{
		func(t Trainer) string { return t.Name },
		func(t Trainer) string { return t.Email },
		func(t Trainer) string { return t.Role },
		func(t Trainer) string { return strings.Join(t.Specializations, " ") },
	}
}
