package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/noah-isme/courseflow-api/pkg/validation"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Details []string `json:"details,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Messages returns the user facing messages carried by the error.
func (e *Error) Messages() []string {
	if e == nil {
		return nil
	}
	if len(e.Details) > 0 {
		return e.Details
	}
	return []string{e.Message}
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrBadRequest         = New("BAD_REQUEST", http.StatusBadRequest, "bad request")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidCredentials = New("UNAUTHORIZED", http.StatusUnauthorized, "Invalid credentials")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "Insufficient permissions")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrScheduleConflict   = New("SCHEDULE_CONFLICT", http.StatusConflict, "schedule conflicts with an existing schedule")
	ErrRecordExists       = New("RECORD_EXISTS", http.StatusConflict, "record already exists")
	ErrRecordNotFound     = New("RECORD_NOT_FOUND", http.StatusNotFound, "record not found")
	ErrForeignKey         = New("FOREIGN_KEY_ERROR", http.StatusBadRequest, "related record does not exist")
	ErrDatabase           = New("DATABASE_ERROR", http.StatusInternalServerError, "database error")
	ErrPayloadTooLarge    = New("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "payload too large")
	ErrUnprocessable      = New("UNPROCESSABLE_ENTITY", http.StatusUnprocessableEntity, "unprocessable entity")
	ErrTooManyRequests    = New("TOO_MANY_REQUESTS", http.StatusTooManyRequests, "Too many requests")
	ErrServiceUnavailable = New("SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "service unavailable")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if dbErr := FromDatabase(err); dbErr != nil {
		return dbErr
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation wraps a validator failure, exposing one message per failed field.
func Validation(err error, message string) *Error {
	wrapped := Wrap(err, ErrValidation.Code, ErrValidation.Status, message)
	wrapped.Details = validation.Messages(err)
	return wrapped
}

// BadRequest builds a 400 error with the provided message.
func BadRequest(message string) *Error {
	return Clone(ErrBadRequest, message)
}

// Conflict builds a 409 error with the provided message.
func Conflict(message string) *Error {
	return Clone(ErrConflict, message)
}

// NotFound builds a 404 error with the provided message.
func NotFound(message string) *Error {
	return Clone(ErrNotFound, message)
}

// Internal wraps an unexpected failure.
func Internal(err error, message string) *Error {
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, message)
}
