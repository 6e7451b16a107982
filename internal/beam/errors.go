package beam

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a turn produced NaN or Inf coordinates.
	ErrInvalidState = errors.New("longsim: invalid particle state (NaN or Inf detected)")

	// ErrEnsemble indicates mismatched or empty initial coordinates.
	ErrEnsemble = errors.New("longsim: invalid ensemble")
)

// TurnError wraps a failure with the turn that could not be committed.
// The beam stays at Turn-1.
type TurnError struct {
	Turn     int
	Particle int
	Wrapped  error
}

func (e *TurnError) Error() string {
	if e.Particle >= 0 {
		return fmt.Sprintf("turn %d, particle %d: %v", e.Turn, e.Particle, e.Wrapped)
	}
	return fmt.Sprintf("turn %d: %v", e.Turn, e.Wrapped)
}

func (e *TurnError) Unwrap() error {
	return e.Wrapped
}
