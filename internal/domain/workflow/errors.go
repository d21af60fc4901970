package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not legal from the current status
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a status is not a known lifecycle state
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")
)
