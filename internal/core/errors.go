package core

import (
	"errors"
	"fmt"
)

// ValidationError reports input that breaks a field rule. The underlying
// sentinel is available through errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ReferenceError reports a member id that does not belong to the trip.
type ReferenceError struct {
	Field string
	ID    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s references unknown member %q", e.Field, e.ID)
}

// NotFoundError reports an unknown trip or expense id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError reports an id that already exists.
type ConflictError struct {
	Kind string
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.ID)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsReference(err error) bool {
	var r *ReferenceError
	return errors.As(err, &r)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
