package wheel

import "errors"

var (
	// ErrNoSegments is returned when a wheel has no segments to land on.
	ErrNoSegments = errors.New("wheel: no segments configured")

	// ErrSegmentOutOfRange is returned when a segment index does not exist
	// on the wheel. It means the outcome service and the campaign layout
	// disagree.
	ErrSegmentOutOfRange = errors.New("wheel: segment index out of range")

	// ErrInvalidFullSpins is returned for a negative number of extra turns.
	ErrInvalidFullSpins = errors.New("wheel: full spins must not be negative")

	// ErrBusy is returned by Animator.Start while a spin is in flight.
	// The request is ignored; it is not a failure of the running spin.
	ErrBusy = errors.New("wheel: spin already in progress")
)
