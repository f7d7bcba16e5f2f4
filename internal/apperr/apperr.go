// Package apperr holds the error kinds shared by the domain, store and
// transport layers. Handlers map a kind to a status code; everything that
// is not one of these kinds is treated as an opaque internal failure.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

// Error is a classified error. Kind is one of the sentinels above and Code
// is the machine readable code put on the wire.
type Error struct {
	Kind    error
	Code    string
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(message string) *Error {
	return New(ErrValidation, "invalid_request", message)
}

func Validationf(format string, args ...any) *Error {
	return Validation(fmt.Sprintf(format, args...))
}

func Unauthenticated(message string) *Error {
	return New(ErrUnauthenticated, "unauthorized", message)
}

func Forbidden(message string) *Error {
	return New(ErrForbidden, "forbidden", message)
}

func NotFound(message string) *Error {
	return New(ErrNotFound, "not_found", message)
}

func Conflict(code, message string) *Error {
	return New(ErrConflict, code, message)
}

// WithDetails returns a copy of e carrying details. Sentinels stay untouched.
func (e *Error) WithDetails(details interface{}) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// As extracts the classified error from a chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
