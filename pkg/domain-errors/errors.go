// Package derrors defines the coded error taxonomy shared by every service.
// Services return these; the transport layer maps codes to HTTP statuses.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeValidation marks malformed or missing input. Recoverable by the
	// caller correcting the request; never mutates state.
	CodeValidation Code = "VALIDATION_ERROR"

	// CodeRolePolicy marks an authenticated principal lacking the required
	// role key(s) for a business action.
	CodeRolePolicy Code = "ROLE_POLICY_VIOLATION"

	// CodeWorkflowPolicy marks an operation forbidden by the entity's
	// current state: illegal transition, already approved, already
	// verdicted, terminally invalidated, duplicate assignment.
	CodeWorkflowPolicy Code = "WORKFLOW_POLICY_VIOLATION"

	// CodeNotFound marks a missing or invisible entity.
	CodeNotFound Code = "NOT_FOUND"

	// CodeConflict marks an optimistic-lock failure. Callers should retry
	// the whole operation, not just the write.
	CodeConflict Code = "CONFLICT"

	// CodeGateway marks a downstream payment/gateway collaborator failure.
	CodeGateway Code = "GATEWAY_ERROR"

	// CodeUnauthorized marks a missing or invalid principal.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeInternal marks unexpected failures.
	CodeInternal Code = "INTERNAL_ERROR"
)

// Error is a coded domain error with an optional wrapped cause and an
// optional details map surfaced to API clients.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message, preserving the cause chain.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetails attaches a details map for the API envelope.
func (e *Error) WithDetails(details map[string]any) *Error {
	e.Details = details
	return e
}

// HasCode reports whether err (or anything it wraps) carries code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		de = nil
	}
	return false
}

// CodeOf returns the outermost code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeRolePolicy:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeWorkflowPolicy, CodeConflict:
		return http.StatusConflict
	case CodeGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
