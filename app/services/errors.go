package services

import "errors"

// Error taxonomy surfaced by the engine. Controllers map these to HTTP
// status codes; anything else is reported as a generic internal failure.
var (
	// ErrInvalidRequest marks malformed or missing fields caught at the
	// boundary.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrForbidden marks a banned user attempting to join.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks an operation referencing an unknown record.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a join attempted while the user already has an
	// active match.
	ErrConflict = errors.New("conflict")
)
