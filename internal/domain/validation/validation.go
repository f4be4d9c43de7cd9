// Package validation holds the field-level error type returned by every
// entity's Validate method. A non-empty Errors value blocks submission before
// any request or store write happens.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is an ordered list of field errors.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *Errors) Add(field, format string, args ...any) {
	*e = append(*e, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns nil when no errors were collected, so callers can write
// `return errs.Err()` without tripping the typed-nil interface trap.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// As extracts Errors from err.
func As(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// IsValidation reports whether err carries field errors.
func IsValidation(err error) bool {
	_, ok := As(err)
	return ok
}

// Required records an error when value is blank.
func (e *Errors) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
}

// MaxLen records an error when value exceeds max bytes.
func (e *Errors) MaxLen(field, value string, max int) {
	if len(value) > max {
		e.Add(field, "cannot exceed %d characters", max)
	}
}

// Email records an error when value is present but not an address.
func (e *Errors) Email(field, value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil || !strings.Contains(value, "@") {
		e.Add(field, "must be a valid email address")
	}
}

// OneOf records an error when value is not in allowed.
func (e *Errors) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, "must be one of: %s", strings.Join(allowed, ", "))
}
