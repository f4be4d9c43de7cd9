// Package payment models member payments. Amounts are integer cents.
package payment

import (
	"errors"
	"fmt"
	"time"

	"gymdash/internal/domain/validation"
)

// Status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusOverdue   = "overdue"
)

// Method values.
const (
	MethodCash         = "cash"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
	MethodOnline       = "online"
)

// Type values.
const (
	TypeMembership       = "membership"
	TypePersonalTraining = "personal_training"
	TypeProduct          = "product"
	TypeClass            = "class"
	TypeOther            = "other"
)

var (
	ValidStatuses = []string{StatusPending, StatusCompleted, StatusFailed, StatusOverdue}
	ValidMethods  = []string{MethodCash, MethodCard, MethodBankTransfer, MethodOnline}
	ValidTypes    = []string{TypeMembership, TypePersonalTraining, TypeProduct, TypeClass, TypeOther}
)

// ErrInvalidTransition is returned for any move the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid payment status transition")

// transitions lists the statuses reachable from each status. Completed and
// failed are terminal.
var transitions = map[string][]string{
	StatusPending: {StatusCompleted, StatusFailed, StatusOverdue},
	StatusOverdue: {StatusCompleted, StatusFailed},
}

// Payment is one charge against a member.
type Payment struct {
	ID        string     `json:"id"`
	MemberID  string     `json:"member_id"`
	Amount    int64      `json:"amount"` // cents
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	Type      string     `json:"type"`
	DueDate   time.Time  `json:"due_date"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Validate checks if the Payment has valid data.
// PRE: Payment struct is initialized
// POST: Returns validation.Errors if invalid
// INVARIANT: Amount > 0; a completed payment has PaidAt
func (p *Payment) Validate() error {
	var errs validation.Errors
	errs.Required("member_id", p.MemberID)
	if p.Amount <= 0 {
		errs.Add("amount", "must be greater than zero")
	}
	errs.OneOf("method", p.Method, ValidMethods...)
	errs.OneOf("status", p.Status, ValidStatuses...)
	errs.OneOf("type", p.Type, ValidTypes...)
	if p.Status == StatusCompleted && p.PaidAt == nil {
		errs.Add("paid_at", "is required for completed payments")
	}
	return errs.Err()
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves the payment to a new status.
// PRE: to is reachable from the current status
// POST: Status is to; PaidAt is set when completing
// INVARIANT: a completed payment never changes status again
func (p *Payment) Transition(to string, at time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.Status, to)
	}
	p.Status = to
	if to == StatusCompleted {
		paid := at
		p.PaidAt = &paid
	}
	return nil
}

// IsOverdue reports whether a pending payment is past due plus grace.
func (p *Payment) IsOverdue(now time.Time, grace time.Duration) bool {
	if p.Status != StatusPending || p.DueDate.IsZero() {
		return false
	}
	return now.After(p.DueDate.Add(grace))
}

// RevenueTime is the instant the payment counts toward revenue.
func (p *Payment) RevenueTime() time.Time {
	if p.PaidAt != nil {
		return *p.PaidAt
	}
	return p.CreatedAt
}

// FormatCents renders cents as a dollar amount, e.g. 12345 -> "$123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

// SearchFields returns the indexed fields used by the list filter.
func SearchFields() []func(Payment) string {
	return []func(Payment) string{
		func(p Payment) string { return p.MemberID },
		func(p Payment) string { return p.Method },
		func(p Payment) string { return p.Type },
		func(p Payment) string { return p.Status },
	}
}
