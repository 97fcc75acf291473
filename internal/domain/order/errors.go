package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a referenced order does not exist.
var ErrNotFound = errors.New("order not found")

// FieldErrors maps input field names to their validation messages.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

// ValidationError rejects a checkout request before anything is persisted.
// Validation is all-or-nothing: Fields carries every rule violation found.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid order: %d field(s) rejected", len(e.Fields))
}

// AvailabilityError rejects a checkout because the storefront is closed.
type AvailabilityError struct {
	Reason string
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("store closed: %s", e.Reason)
}

// ConflictError rejects an illegal status transition. No state changes.
type ConflictError struct {
	From Status
	To   Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}
