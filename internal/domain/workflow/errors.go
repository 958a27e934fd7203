package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the (current, target) pair is not in the table
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state does not belong to the entity's state set
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized is returned when the actor lacks the role or ownership the transition requires
	ErrUnauthorized = errors.New("actor not authorized for transition")

	// ErrGuardFailed is returned when a business precondition for the transition is unmet
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrConflict is returned when a concurrent modification won the race for the same entity version
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrNotFound is returned when the entity a transition targets does not exist
	ErrNotFound = errors.New("entity not found")
)
