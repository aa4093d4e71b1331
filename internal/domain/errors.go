package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ValidationError is a caller fault: missing or malformed input, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidTransitionError rejects a status change out of a terminal state.
type InvalidTransitionError struct {
	From ReservationStatus
	To   ReservationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition reservation from %s to %s", e.From, e.To)
}
