package slowly

import "errors"

// Common errors returned by the client. HTTP-level errors live in the
// api package; these cover local misuse and authentication.
var (
	// ErrInvalidData indicates the API returned a payload the client
	// could not map onto its models.
	ErrInvalidData = errors.New("invalid data received")

	// ErrLoginFailure indicates the credentials were rejected.
	ErrLoginFailure = errors.New("login failure")
)
