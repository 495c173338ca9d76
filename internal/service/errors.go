package service

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map each kind to one HTTP status.
var (
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrUnsupportedMedia = errors.New("unsupported media type")
	ErrConflict         = errors.New("conflict")
	ErrStorage          = errors.New("storage failure")
)

// Error carries a client-safe Message next to the underlying cause.
// errors.Is matches both Kind and Err.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func validationError(message string) error {
	return newError(ErrValidation, message, nil)
}

func notFound(message string, cause error) error {
	return newError(ErrNotFound, message, cause)
}

func storageError(message string, cause error) error {
	return newError(ErrStorage, message, cause)
}
