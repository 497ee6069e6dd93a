package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the model service. The original
// status code is preserved so callers can distinguish rate limiting
// from hard failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("model service status %d: %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the failure was a 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Retryable reports whether the request may be retried (5xx or 429).
// Any other 4xx is a terminal client error.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err wraps a 429 APIError.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.RateLimited()
}
