package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input errors
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNumericDegenerate = errors.New("numerically degenerate parameters")

	// Execution errors
	ErrResourceExhaustion = errors.New("resource exhaustion")
	ErrIllegalTransition  = errors.New("illegal pipeline transition")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrHashMismatch     = errors.New("hash mismatch")
)

// Error constructors with context
func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidArgument, field, reason)
}

func NewDegenerateError(field string, value float64, reason string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrNumericDegenerate, field, value, reason)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidArgument) ||
		errors.Is(err, ErrNumericDegenerate)
}

func IsDeterminismError(err error) bool {
	return errors.Is(err, ErrNonDeterministic) ||
		errors.Is(err, ErrHashMismatch)
}
