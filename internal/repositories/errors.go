package repositories

import (
	"errors"
	"fmt"
)

// Error implements RepositoryError for in-process stores.
type Error struct {
	op          string
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.op != "" {
		return fmt.Sprintf("%s: %v", e.op, e.err)
	}
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// IsNotFound reports whether the error represents a missing record.
func (e *Error) IsNotFound() bool {
	return e != nil && e.notFound
}

// IsConflict reports whether the error represents a conflicting update.
func (e *Error) IsConflict() bool {
	return e != nil && e.conflict
}

// IsUnavailable reports whether the error represents a store outage.
func (e *Error) IsUnavailable() bool {
	return e != nil && e.unavailable
}

// NewNotFoundError builds a not-found repository error.
func NewNotFoundError(op string, message string) *Error {
	return &Error{op: op, err: errors.New(message), notFound: true}
}

// NewConflictError builds a conflict repository error.
func NewConflictError(op string, message string) *Error {
	return &Error{op: op, err: errors.New(message), conflict: true}
}

// NewUnavailableError builds an unavailable repository error.
func NewUnavailableError(op string, err error) *Error {
	return &Error{op: op, err: err, unavailable: true}
}
