package domain

import "errors"

var (
	// ErrUnauthenticated means no credential is available. Loads refuse to
	// start but the condition is not reported as a failure.
	ErrUnauthenticated = errors.New("no credential available")

	ErrNotFound = errors.New("not found")
)
