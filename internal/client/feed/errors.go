package feed

import (
	"errors"
	"fmt"
)

// Static error definitions for better error handling.
var (
	// ErrInvalidURL indicates that the provided URL could not be parsed or is not absolute.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrUnsupportedScheme indicates that the URL scheme is not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
)

// HTTPStatusError indicates that the server responded with an unexpected HTTP status.
// The status code is preserved so callers can decide whether the failure is retryable.
type HTTPStatusError struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d", e.StatusCode)
}
