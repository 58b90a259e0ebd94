// Package errors provides domain-specific error types for LaporKota.
//
// Every failure crossing a package boundary is an *AppError carrying a
// machine-readable code; raw storage errors never leak to callers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the five failure kinds of the workflow core.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPermission        = errors.New("permission denied")
	ErrStorageUnavail    = errors.New("storage unavailable")
)

// AppError is a structured application error with HTTP status and error code.
type AppError struct {
	// Code is a machine-readable error code (e.g., "COMPLAINT_NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable error message.
	Message string `json:"message"`

	// HTTPStatus is the corresponding HTTP status code for transport layers.
	HTTPStatus int `json:"-"`

	// Params carries structured context for caller-side interpolation.
	Params map[string]interface{} `json:"params,omitempty"`

	// FieldErrors carries field-level validation details.
	FieldErrors []FieldError `json:"field_errors,omitempty"`

	// Err is the wrapped underlying error.
	Err error `json:"-"`
}

// FieldError describes a field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error into an AppError.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// WithParams attaches structured parameters to the error.
func (e *AppError) WithParams(params map[string]interface{}) *AppError {
	if e == nil || len(params) == 0 {
		return e
	}
	e.Params = params
	return e
}

// WithFieldErrors attaches field-level errors to the AppError.
func (e *AppError) WithFieldErrors(fieldErrors []FieldError) *AppError {
	if e == nil || len(fieldErrors) == 0 {
		return e
	}
	e.FieldErrors = fieldErrors
	return e
}

// Typed constructors. Each wraps the matching sentinel so callers can branch
// with errors.Is regardless of the concrete code.

// NotFound creates a 404 error.
func NotFound(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusNotFound, Err: ErrNotFound}
}

// Validation creates a 400 error.
func Validation(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusBadRequest, Err: ErrValidation}
}

// InvalidTransition creates a 409 error.
func InvalidTransition(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusConflict, Err: ErrInvalidTransition}
}

// Permission creates a 403 error.
func Permission(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusForbidden, Err: ErrPermission}
}

// StorageUnavailable creates a 503 error wrapping both the sentinel and the
// causing storage error.
func StorageUnavailable(cause error) *AppError {
	return &AppError{
		Code:       CodeStorageUnavailable,
		Message:    "backing store failed or timed out",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        errors.Join(ErrStorageUnavail, cause),
	}
}

// IsAppError checks if an error is an AppError and returns it.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
