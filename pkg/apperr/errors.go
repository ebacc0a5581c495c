// Package apperr defines the dispatch core's error taxonomy: a single
// AppError type carrying an HTTP status and a stable error code, plus one
// constructor per taxonomy entry. It is the direct descendant of the
// ride-hailing service's pkg/common errors/response pair, renamed and
// extended so every failure mode the dispatch core can produce maps onto
// exactly one constructor.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier independent of the
// HTTP status it happens to map to.
type Code string

const (
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidTransition  Code = "INVALID_TRANSITION"
	CodeConflict           Code = "CONFLICT"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeDependencyFailure  Code = "DEPENDENCY_FAILURE"
	CodeUnprocessable      Code = "UNPROCESSABLE"
)

// AppError is the single error type returned by every dispatch-core
// component. HTTPStatus is what the transport layer responds with; Code is
// what callers should branch on.
type AppError struct {
	Code       Code
	HTTPStatus int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// As reports whether err is an *AppError, unwrapping through wrapped errors.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidationFailed, HTTPStatus: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, HTTPStatus: http.StatusNotFound, Message: message}
}

// TransitionDetail describes why a state transition was rejected: the
// entity's current state, the state it was asked to move to, and the
// states actually reachable from current.
type TransitionDetail struct {
	Entity  string
	Current string
	Target  string
	Allowed []string
}

func NewInvalidTransitionError(detail TransitionDetail) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		HTTPStatus: http.StatusConflict,
		Message: fmt.Sprintf("%s: cannot transition from %s to %s (allowed: %v)",
			detail.Entity, detail.Current, detail.Target, detail.Allowed),
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, HTTPStatus: http.StatusConflict, Message: message}
}

// NewConflictErrorWithCause wraps err so callers further up the stack can
// still errors.Is against the original sentinel (e.g. a retryable-miss
// check in the Dispatch Worker) while the transport layer still only sees
// CONFLICT/409.
func NewConflictErrorWithCause(message string, err error) *AppError {
	return &AppError{Code: CodeConflict, HTTPStatus: http.StatusConflict, Message: message, Err: err}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, HTTPStatus: http.StatusUnauthorized, Message: message}
}

func NewRateLimitedError(message string) *AppError {
	return &AppError{Code: CodeRateLimited, HTTPStatus: http.StatusTooManyRequests, Message: message}
}

func NewDependencyFailure(message string, err error) *AppError {
	return &AppError{Code: CodeDependencyFailure, HTTPStatus: http.StatusBadGateway, Message: message, Err: err}
}

func NewUnprocessableError(message string) *AppError {
	return &AppError{Code: CodeUnprocessable, HTTPStatus: http.StatusUnprocessableEntity, Message: message}
}
