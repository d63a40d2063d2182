package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "server error"
	// InvalidInputMessage describes rejected request payloads.
	InvalidInputMessage = "invalid input"
	// UpstreamUnavailableMessage describes transient model/search service failures.
	UpstreamUnavailableMessage = "upstream service unavailable"
	// UpstreamErrorMessage describes a definitive upstream rejection (bad request, refusal).
	UpstreamErrorMessage = "upstream service error"
	// TimeoutMessage describes an exceeded deadline on an external call.
	TimeoutMessage = "upstream call timed out"
	// NotFoundMessage describes a missing resource.
	NotFoundMessage = "not found"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Error wraps an underlying error with an HTTP status and safe message.
type Error struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// InvalidInput flags a request that must be rejected before any upstream call.
func InvalidInput(message string) *Error {
	if message == "" {
		message = InvalidInputMessage
	}
	return New(nil, http.StatusBadRequest, message)
}

// UpstreamUnavailable flags a transient, retryable upstream failure.
func UpstreamUnavailable(err error) *Error {
	return New(err, http.StatusBadGateway, UpstreamUnavailableMessage)
}

// Upstream flags a definitive upstream error (the service answered with a failure).
func Upstream(err error) *Error {
	return New(err, http.StatusInternalServerError, UpstreamErrorMessage)
}

// Timeout flags an exceeded deadline on an external call.
func Timeout(err error) *Error {
	return New(err, http.StatusGatewayTimeout, TimeoutMessage)
}

// NotFound flags a missing resource.
func NotFound(message string) *Error {
	if message == "" {
		message = NotFoundMessage
	}
	return New(nil, http.StatusNotFound, message)
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}

// MessageOf extracts the safe message carried by err, defaulting to the system message.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}
