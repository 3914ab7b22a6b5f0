package environ

import "errors"

var (
	// ErrInvalidConfiguration is returned by constructors for a non-positive
	// window length, a negative commission or a missing encoder.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidOffset is returned by Reset when the starting offset leaves
	// less than one encoding window of history.
	ErrInvalidOffset = errors.New("invalid offset")

	// ErrOutOfRange marks a price or factor lookup outside the series. It is
	// a caller contract violation; the state is left untouched.
	ErrOutOfRange = errors.New("offset out of range")

	ErrFactorWidth   = errors.New("factor width mismatch")
	ErrNotReset      = errors.New("state has not been reset")
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidSeries = errors.New("invalid series")
)
