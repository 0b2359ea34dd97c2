package store

import "errors"

// Error kinds returned by the reservation workflow. Handlers map these to
// HTTP status codes with errors.Is; everything else is an internal error.
var (
	// ErrNotFound means the referenced equipment or reservation does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRange means a reservation window is missing or non-causal.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrConflict means an overlapping approved reservation exists, or a
	// reservation is not in a state that allows the requested transition.
	ErrConflict = errors.New("conflict")
)
