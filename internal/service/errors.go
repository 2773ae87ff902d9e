package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures; controllers map kinds to HTTP status codes.
type ErrorKind string

const (
	KindMissingArgument ErrorKind = "missing_argument"
	KindInvalidArgument ErrorKind = "invalid_argument"
	KindConflict        ErrorKind = "conflict"
	KindNotFound        ErrorKind = "not_found"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindAccess          ErrorKind = "access"
)

// Error is returned by every service operation that fails.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func NewMissingArgument(message string) *Error {
	return &Error{Kind: KindMissingArgument, Message: message}
}

func NewInvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewUnauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

// NewAccessError hides a storage fault behind a generic message.
func NewAccessError(cause error) *Error {
	return &Error{Kind: KindAccess, Message: "database access error", Cause: cause}
}

// KindOf reports the kind of err, treating anything unclassified as an access error.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindAccess
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

// asAccessError passes classified errors through and coerces everything else to an access error.
func asAccessError(err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return NewAccessError(err)
}
