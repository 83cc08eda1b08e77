package storage

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by ExpenseStore matches exactly one of
// these with errors.Is.
var (
	// ErrValidation means the expense failed a local invariant; nothing was sent to the store.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCriteria means the match criteria cannot identify a row.
	ErrInvalidCriteria = errors.New("invalid match criteria")
	// ErrStorage wraps any failure reported by the driver or connection layer.
	ErrStorage = errors.New("storage failure")
	// ErrIntegrity means a row was inserted but its generated id could not be read.
	ErrIntegrity = errors.New("generated id unavailable")
	// ErrMatchCount means a natural-key update or delete did not match exactly one row.
	ErrMatchCount = errors.New("natural key must match exactly one row")
)

// Error describes a failed store operation.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// MatchError is returned when a natural-key update or delete matched a
// number of rows other than one. The operation was rolled back.
type MatchError struct {
	Op      string
	Matched int64
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s: %v (matched %d)", e.Op, ErrMatchCount, e.Matched)
}

func (e *MatchError) Unwrap() error {
	return ErrMatchCount
}

func newError(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}
