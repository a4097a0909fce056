package errors

import (
	"errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Request-local error taxonomy. Validation and invalid-state map to 400,
// conflicts to 409, unknown or out-of-scope references to 404.
func Validation(msg string) *HTTPError   { return NewHTTPError(http.StatusBadRequest, msg) }
func Conflict(msg string) *HTTPError     { return NewHTTPError(http.StatusConflict, msg) }
func InvalidState(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
func NotFound(msg string) *HTTPError     { return NewHTTPError(http.StatusNotFound, msg) }
func Unauthorized(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }

// StatusOf extracts the HTTP status for err, defaulting to 500 for
// anything that is not an HTTPError.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// IsConflict reports whether err is the conflict rejection.
func IsConflict(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.Code == http.StatusConflict
}
