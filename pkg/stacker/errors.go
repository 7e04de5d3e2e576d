package stacker

import "errors"

var (
	// ErrInvalidDimensions is returned when an image (or depth map) does
	// not match the dimensions of the stack it is being added to.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrDegenerateNormalization flags a normalization with a zero
	// divisor (zero max, or max == min). Callers fall back to a flat
	// zero field; it is never fatal.
	ErrDegenerateNormalization = errors.New("degenerate normalization")

	ErrEmptyStack = errors.New("empty stack")

	// ErrConcurrentInvocation is returned when a chunked run is started
	// while a previous one is still outstanding.
	ErrConcurrentInvocation = errors.New("pipeline busy")

	ErrCancelled = errors.New("cancelled")
)
