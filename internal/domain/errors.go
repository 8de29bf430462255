package domain

import (
	"errors"
	"fmt"
)

// Code classifies an error for the API surface. Codes are part of the wire
// contract and surface verbatim in error responses.
type Code string

const (
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL_SERVER_ERROR"
)

// Error is a coded application error. All domain checks fail with one of
// these; anything else reaching the transport maps to CodeInternal.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func Unauthenticated(msg string) error {
	return &Error{Code: CodeUnauthenticated, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func BadRequest(msg string) error {
	return &Error{Code: CodeBadRequest, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func Internal(msg string, cause error) error {
	return &Error{Code: CodeInternal, Message: msg, Cause: cause}
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// unclassified errors (unexpected datastore failures and the like).
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ErrDuplicate is returned by repositories when an insert hits a uniqueness
// constraint. Services translate it into the appropriate coded error or,
// for idempotent get-or-create paths, re-read the winning row.
var ErrDuplicate = errors.New("duplicate row")
