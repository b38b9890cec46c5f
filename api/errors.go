package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the session.
var (
	// ErrForbidden indicates the API rejected the request with 403.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrSessionClosed indicates a request was made before Login or
	// after Close without a Recreate.
	ErrSessionClosed = errors.New("session is not open")
)

// HTTPError represents a non-2xx response from the Slowly API.
type HTTPError struct {
	Status  int
	Message string
	Body    string
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{
		Status: status,
		Body:   string(body),
	}

	// API error bodies carry the message under an "error" key.
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		e.Message = payload.Error
	} else {
		e.Message = http.StatusText(status)
	}
	return e
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("slowly API error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps terminal statuses onto the sentinel errors so callers
// can classify with errors.Is.
func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// IsForbidden checks if the error indicates an authorization failure.
func (e *HTTPError) IsForbidden() bool {
	return e.Status == http.StatusForbidden
}

// IsNotFound checks if the error indicates a missing resource.
func (e *HTTPError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}
