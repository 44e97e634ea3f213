// Package apperror defines the error taxonomy shared by the services and the API layer.
//
// Errors are plain data so they survive a JSON hop through a mono service
// container: a reply carries *Error in its "error" field and the caller gets
// back a value that still matches the sentinels below via errors.Is.
package apperror

import "errors"

// Code identifies a class of failure.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeDuplicateEmail     Code = "duplicate_email"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeMissingToken       Code = "missing_token"
	CodeInvalidToken       Code = "invalid_token"
	CodeUnknownSubject     Code = "unknown_subject"
	CodeInvalidIdentifier  Code = "invalid_identifier"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeInternal           Code = "internal"
)

// Error is a classified application error.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Sentinels for errors.Is checks. Matching is by code, so a returned error
// with a more specific message still matches.
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrDuplicateEmail     = &Error{Code: CodeDuplicateEmail, Message: "user already exists"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrMissingToken       = &Error{Code: CodeMissingToken, Message: "missing bearer token"}
	ErrInvalidToken       = &Error{Code: CodeInvalidToken, Message: "invalid or expired token"}
	ErrUnknownSubject     = &Error{Code: CodeUnknownSubject, Message: "token subject no longer exists"}
	ErrInvalidIdentifier  = &Error{Code: CodeInvalidIdentifier, Message: "invalid task id"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "task not found"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "not authorized to access this task"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal server error"}
)

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Validation creates a validation error carrying a user-facing message.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Unauthorized reports whether the error is one of the access guard failures.
func (e *Error) Unauthorized() bool {
	switch e.Code {
	case CodeMissingToken, CodeInvalidToken, CodeUnknownSubject:
		return true
	}
	return false
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
