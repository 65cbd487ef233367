// Package errs defines the error taxonomy shared by the HTTP layer and the
// domain packages: validation failures, missing entities, and illegal
// ticket transitions each map to a distinct caller-visible status.
package errs

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a referenced entity that does not exist. Wrap it with
// context: fmt.Errorf("ticket %d: %w", id, errs.ErrNotFound).
var ErrNotFound = errors.New("not found")

// ValidationError reports missing or malformed required input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalid builds a ValidationError.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// TransitionError reports a ticket state-machine guard violation.
type TransitionError struct {
	Reason string
}

func (e *TransitionError) Error() string { return e.Reason }

func InvalidTransition(format string, args ...any) error {
	return &TransitionError{Reason: fmt.Sprintf(format, args...)}
}
