package domain

import (
	"errors"
	"fmt"
)

// NotFoundError reports an operation referencing an unknown record id.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// ValidationError reports a required field missing or malformed. It is raised
// synchronously before any persistence I/O.
type ValidationError struct {
	Entity EntityType
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation: %s %s", e.Entity, e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// ConflictError reports an attempted create with an id that already exists.
type ConflictError struct {
	Entity EntityType
	ID     string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Entity, e.ID)
}

// TransitionError reports an invalid route status transition.
type TransitionError struct {
	From RouteStatus
	To   RouteStatus
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("route cannot transition from %s to %s", e.From, e.To)
}
