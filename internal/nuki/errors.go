package nuki

import (
	"errors"
	"fmt"
	"net"
)

// APIError describes a non-2xx response from the Web API.
type APIError struct {
	Operation string
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}
	return fmt.Sprintf("nuki %s failed with status %d: %s", e.Operation, e.Status, e.Body)
}

// Retryable reports whether the response class is worth retrying:
// rate limits and server-side failures are, other client errors are not.
func (e *APIError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Status == 429 || e.Status >= 500
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}

	// Remaining transport-level failures (connection reset, EOF mid-body)
	// are treated as transient.
	return true
}
