package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidTransition  = errors.New("invalid workflow transition")
	ErrMissingReference   = errors.New("missing reference")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrTemporaryFailure   = errors.New("temporary failure")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// AppError represents a structured application error with context
type AppError struct {
	Err        error
	StatusCode int
	Message    string
	Retryable  bool
	Context    map[string]interface{}
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithContext adds additional context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new AppError with the given parameters
func NewAppError(err error, message string, statusCode int, retryable bool) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Context:    make(map[string]interface{}),
	}
}

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	var appErr *AppError

	if errors.As(err, &appErr) {
		return appErr.Retryable
	}

	return errors.Is(err, ErrTemporaryFailure) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// InvalidTransitionError reports an action that is not legal for the
// item state it was attempted against. The offending triple is carried
// so callers can surface exactly what was rejected.
type InvalidTransitionError struct {
	Stage  string
	Status string
	Action string
	Role   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not available for role %q in stage %q (status %q)",
		e.Action, e.Role, e.Stage, e.Status)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// NewInvalidTransitionError creates an InvalidTransitionError for the given triple
func NewInvalidTransitionError(stage, status, action, role string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Stage:  stage,
		Status: status,
		Action: action,
		Role:   role,
	}
}

// MissingReferenceError reports a required identifier that was absent
// at call time. Nothing is mutated when this is returned.
type MissingReferenceError struct {
	Field string
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("required reference %q is missing", e.Field)
}

func (e *MissingReferenceError) Unwrap() error {
	return ErrMissingReference
}

// NewMissingReferenceError creates a MissingReferenceError for the given field
func NewMissingReferenceError(field string) *MissingReferenceError {
	return &MissingReferenceError{Field: field}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(message string) *AppError {
	return NewAppError(ErrNotFound, message, http.StatusNotFound, false)
}

// NewInvalidInputError creates an invalid input error
func NewInvalidInputError(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, http.StatusBadRequest, false)
}

// NewConflictError creates a conflict error, used when an item changed
// between read and write and the caller should re-fetch and retry
func NewConflictError(message string) *AppError {
	return NewAppError(ErrConflict, message, http.StatusConflict, true)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrInternal, message, http.StatusInternalServerError, true)
}

// NewTemporaryError creates a temporary error
func NewTemporaryError(message string) *AppError {
	return NewAppError(ErrTemporaryFailure, message, http.StatusServiceUnavailable, true)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(message string) *AppError {
	return NewAppError(ErrTimeout, message, http.StatusGatewayTimeout, true)
}
