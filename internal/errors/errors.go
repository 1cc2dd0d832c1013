package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the counters client
var (
	// Authentication errors
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNoRefreshToken        = errors.New("no refresh token")
	ErrRefreshTokenInvalid   = errors.New("refresh token invalid")
	ErrRefreshFailed         = errors.New("token refresh failed")
	ErrQueuedRequestRejected = errors.New("queued request rejected")
	ErrSessionChanged        = errors.New("session changed during refresh")

	// Session errors
	ErrInvalidCredentials = errors.New("access and refresh tokens must be set together")
	ErrNoFragmentTokens   = errors.New("no tokens in url fragment")

	// General errors
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// HTTPError is returned for any non-2xx backend response.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string // backend-provided message, if any
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets callers match on status class with errors.Is.
func (e *HTTPError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsAuthClass reports whether err is a 401 or 403 backend response.
func IsAuthClass(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
