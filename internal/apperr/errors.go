// Package apperr defines the error kinds the booking core reports to callers.
// Each kind maps to one HTTP status at the edge.
package apperr

import (
	"errors"
	"fmt"
)

// NonFieldKey is the key used for errors that do not belong to a single field.
const NonFieldKey = "__all__"

// ValidationError is a rejected input. Field is empty for whole-request errors.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Key returns the field name, or NonFieldKey for whole-request errors.
func (e *ValidationError) Key() string {
	if e.Field == "" {
		return NonFieldKey
	}
	return e.Field
}

// PermissionDeniedError means the actor may not perform the operation.
type PermissionDeniedError struct {
	Message string
}

func (e *PermissionDeniedError) Error() string { return e.Message }

// NotFoundError means the referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// IllegalTransitionError means the requested status change is not allowed
// from the current status.
type IllegalTransitionError struct {
	From string
	To   string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot change appointment status from %s to %s", e.From, e.To)
}

// Validation builds a whole-request validation error.
func Validation(code, message string) error {
	return &ValidationError{Code: code, Message: message}
}

// InvalidField builds a validation error attached to field.
func InvalidField(field, code, message string) error {
	return &ValidationError{Field: field, Code: code, Message: message}
}

func PermissionDenied(message string) error {
	return &PermissionDeniedError{Message: message}
}

func NotFound(resource string) error {
	return &NotFoundError{Resource: resource}
}

func IllegalTransition(from, to fmt.Stringer) error {
	return &IllegalTransitionError{From: from.String(), To: to.String()}
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var target *ValidationError
	ok := errors.As(err, &target)
	return target, ok
}

func IsValidation(err error) bool {
	_, ok := AsValidation(err)
	return ok
}

func IsPermissionDenied(err error) bool {
	var target *PermissionDeniedError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsIllegalTransition(err error) bool {
	var target *IllegalTransitionError
	return errors.As(err, &target)
}
