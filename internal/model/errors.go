// Package model defines the Tricket domain value objects (productions,
// screenings, tags and images) and the rules for building them out of the
// loosely typed records returned by the remote API.
package model

import (
	"errors"
	"fmt"
)

// ErrMissingField matches any ValidationError caused by an absent mandatory field.
var ErrMissingField = errors.New("missing required field")

// ErrInvalidField matches any ValidationError caused by a field of the wrong shape.
var ErrInvalidField = errors.New("invalid field")

// ValidationError names the entity kind and the offending field of a record
// that could not be turned into a domain value.  Reason is empty when the
// field was missing altogether.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("missing required field: %s for %s", e.Field, e.Entity)
	}
	return fmt.Sprintf("invalid field: %s for %s: %s", e.Field, e.Entity, e.Reason)
}

// Is lets errors.Is match the error against ErrMissingField or ErrInvalidField.
func (e *ValidationError) Is(target error) bool {
	if e.Reason == "" {
		return target == ErrMissingField
	}
	return target == ErrInvalidField
}

func missing(entity, field string) error {
	return &ValidationError{Entity: entity, Field: field}
}

func invalid(entity, field, reason string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: reason}
}
