package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FieldError describes why a single request field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Fields  []FieldError `json:"fields,omitempty"`
	Err     error        `json:"-"`
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

// Is matches errors sharing the same code so callers can use errors.Is against
// the predefined values even after Clone.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the caller may reload and resubmit. Only a lost
// version race qualifies; every other outcome repeats on retry.
func (e *Error) Retryable() bool {
	return e != nil && e.Code == ErrVersionConflict.Code
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
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrVersionConflict   = New("VERSION_CONFLICT", http.StatusConflict, "complaint was modified concurrently; reload and retry")
	ErrComplaintClosed   = New("COMPLAINT_CLOSED", http.StatusConflict, "complaint is closed")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusUnprocessableEntity, "invalid status transition")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrRequestCancelled  = New("REQUEST_CANCELLED", http.StatusRequestTimeout, "request cancelled before commit")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss         = New("CACHE_MISS", http.StatusNotFound, "cache miss")
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
	if len(err.Fields) > 0 {
		clone.Fields = append([]FieldError(nil), err.Fields...)
	}
	return &clone
}

// WithFields returns a copy of err carrying the provided field reasons.
func WithFields(err *Error, message string, fields ...FieldError) *Error {
	clone := Clone(err, message)
	if clone == nil {
		return nil
	}
	clone.Fields = append(clone.Fields, fields...)
	return clone
}

// IsRetryable reports whether err, anywhere in its chain, is a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable()
}

// InvalidTransition builds the error returned for an illegal status change.
func InvalidTransition(from, to string) *Error {
	return WithFields(ErrInvalidTransition,
		fmt.Sprintf("cannot transition from %s to %s", from, to),
		FieldError{Field: "status", Reason: fmt.Sprintf("%s -> %s is not allowed", from, to)},
	)
}
