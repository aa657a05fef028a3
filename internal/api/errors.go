package api

import (
	"errors"
	"fmt"
)

// APIError is returned for any non-2xx response other than 401.
type APIError struct {
	StatusCode int
	Method     string
	Path       string

	// Message is the server-provided explanation, taken from the "message"
	// or "error" field of the response body. Empty when the body had neither.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path)
}

// AuthError indicates that the bearer token was missing, expired, or
// rejected. The credential provider has already been invalidated when a
// client returns it.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "auth error: session expired, please log in again"
	}
	return "auth error: " + e.Message
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Message returns the human-readable text to show for err: the server's
// message when one was provided, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0 when err did not
// come from a server response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	if IsAuthError(err) {
		return 401
	}
	return 0
}
