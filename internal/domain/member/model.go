package member

import (
	"errors"
	"strings"
	"time"

	"gymdash/internal/domain/validation"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength    = 100
	MaxPhoneLength   = 32
	MaxPackageLength = 50
)

// Lifecycle status values.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusExpired  = "expired"
)

// ValidStatuses lists every member status.
var ValidStatuses = []string{StatusActive, StatusInactive, StatusExpired}

// Domain errors
var (
	ErrAlreadyInactive = errors.New("member is already inactive")
	ErrAlreadyActive   = errors.New("member is already active")
	ErrAlreadyExpired  = errors.New("member is already expired")
	ErrNotActive       = errors.New("member is not active")
)

// Member is a gym member belonging to one franchise.
type Member struct {
	ID          string    `json:"id"`
	FranchiseID string    `json:"franchise_id,omitempty"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	Package     string    `json:"package"`
	Status      string    `json:"status"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns validation.Errors if any field is invalid, nil otherwise
// INVARIANT: Email must be an address, Name must not be empty
func (m *Member) Validate() error {
	var errs validation.Errors
	errs.Required("name", m.Name)
	errs.MaxLen("name", m.Name, MaxNameLength)
	errs.Required("email", m.Email)
	errs.Email("email", m.Email)
	errs.MaxLen("phone", m.Phone, MaxPhoneLength)
	errs.Required("package", m.Package)
	errs.MaxLen("package", m.Package, MaxPackageLength)
	errs.OneOf("status", m.Status, ValidStatuses...)
	return errs.Err()
}

// Normalize trims user input and fills defaults for a new member.
// POST: Status defaults to active, JoinedAt defaults to now
func (m *Member) Normalize(now time.Time) {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	m.Phone = strings.TrimSpace(m.Phone)
	m.Package = strings.TrimSpace(m.Package)
	if m.Status == "" {
		m.Status = StatusActive
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = now
	}
}

// IsActive returns true if the member may check in and use facilities.
// INVARIANT: Status field is not mutated
func (m *Member) IsActive() bool {
	return m.Status == StatusActive
}

// Deactivate is the soft delete for members.
// PRE: Member is not already inactive
// POST: Status is set to inactive
func (m *Member) Deactivate() error {
	if m.Status == StatusInactive {
		return ErrAlreadyInactive
	}
	m.Status = StatusInactive
	return nil
}

// Expire marks the membership as lapsed.
// PRE: Member is active
// POST: Status is set to expired
func (m *Member) Expire() error {
	switch m.Status {
	case StatusExpired:
		return ErrAlreadyExpired
	case StatusActive:
		m.Status = StatusExpired
		return nil
	default:
		return ErrNotActive
	}
}

// Reactivate restores an inactive or expired member.
// PRE: Member is not active
// POST: Status is set to active
func (m *Member) Reactivate() error {
	if m.Status == StatusActive {
		return ErrAlreadyActive
	}
	m.Status = StatusActive
	return nil
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Member) string {
	return []func(Member) string{
		func(m Member) string { return m.Name },
		func(m Member) string { return m.Email },
		func(m Member) string { return m.Phone },
		func(m Member) string { return m.Package },
	}
}
