// Package apperror defines the error kinds surfaced at the request boundary.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindInsufficientPermission
	KindNotFound
	KindInvalidStateTransition
	KindInsufficientInventory
	KindValidation
	KindDependency
)

// Code is the stable machine-readable name of a kind.
func (k Kind) Code() string {
	switch k {
	case KindUnauthenticated:
		return "AUTHENTICATION_REQUIRED"
	case KindInsufficientPermission:
		return "PERMISSION_DENIED"
	case KindNotFound:
		return "RESOURCE_NOT_FOUND"
	case KindInvalidStateTransition:
		return "INVALID_STATE_TRANSITION"
	case KindInsufficientInventory:
		return "INSUFFICIENT_INVENTORY"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindDependency:
		return "DEPENDENCY_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error carries a kind, a human message and whatever detail the kind needs
// to be rendered by a client.
type Error struct {
	Kind    Kind
	Message string

	// Field names the offending input for validation errors.
	Field string

	// Permission and Role are set on permission denials.
	Permission string
	Role       string

	// Required and Available are set on inventory shortfalls.
	Required  int
	Available int

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind, so callers can write
// errors.Is(err, apperror.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated        = &Error{Kind: KindUnauthenticated}
	ErrInsufficientPermission = &Error{Kind: KindInsufficientPermission}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition}
	ErrInsufficientInventory  = &Error{Kind: KindInsufficientInventory}
	ErrValidation             = &Error{Kind: KindValidation}
	ErrDependency             = &Error{Kind: KindDependency}
)

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func PermissionDenied(permission, role string) *Error {
	return &Error{
		Kind:       KindInsufficientPermission,
		Message:    "Insufficient permissions",
		Permission: permission,
		Role:       role,
	}
}

func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidStateTransition, Message: fmt.Sprintf(format, args...)}
}

func InsufficientInventory(required, available int) *Error {
	return &Error{
		Kind:      KindInsufficientInventory,
		Message:   fmt.Sprintf("Insufficient equipment available. Required: %d, Available: %d", required, available),
		Required:  required,
		Available: available,
	}
}

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

// Dependency wraps a persistence or identity-provider failure.
func Dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Message: op, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
