package scenes

import "errors"

var (
	// ErrNotFound indicates a video or scene id with no matching row.
	ErrNotFound = errors.New("scenes: not found")

	// ErrInvalidTransition indicates a status change the lifecycle graph forbids.
	ErrInvalidTransition = errors.New("scenes: invalid status transition")
)
