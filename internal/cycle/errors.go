package cycle

import "errors"

var (
	// ErrDegenerateCycle indicates every stage duration is zero.
	ErrDegenerateCycle = errors.New("cycle: degenerate cycle (all stage durations are zero)")

	// ErrNegativeDuration indicates a stage duration below zero.
	ErrNegativeDuration = errors.New("cycle: stage duration must not be negative")
)
