package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the backend rejected the session token.
// By the time a caller sees it the session has already been expired.
var ErrUnauthorized = errors.New("api: session rejected by backend")

// TransportError is a network-level failure; the request may be retried.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("api: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError carries the backend's {error, details} body.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Details != "" {
		return fmt.Sprintf("api: %d %s (%s)", e.Status, msg, e.Details)
	}
	return fmt.Sprintf("api: %d %s", e.Status, msg)
}

// Retryable reports whether showing a retry action makes sense for err.
func Retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= http.StatusInternalServerError
	}
	return false
}
