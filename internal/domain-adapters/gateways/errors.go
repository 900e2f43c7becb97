// Package gateways provides implementations of domain gateway interfaces.
package gateways

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse marks a response body that could not be decoded.
// Retrying will not help.
var ErrMalformedResponse = errors.New("malformed response")

// ErrSourceUnavailable marks an enrichment source that already failed to load
// during this run and is not retried.
var ErrSourceUnavailable = errors.New("source unavailable")

// StatusError is returned when a remote service answers with an unexpected
// HTTP status
type StatusError struct {
	Service    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// Temporary reports whether the request may succeed when retried
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// isRetryable classifies lookup failures. Transport errors and timeouts are
// retried, client errors and undecodable bodies are not.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMalformedResponse) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}
