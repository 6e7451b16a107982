package rf

import (
	"errors"
	"fmt"
)

// Domain errors for RF and bucket computations.
var (
	// ErrConfiguration indicates a malformed RF configuration or a request
	// with no solution (no synchronous phase, no bucket).
	ErrConfiguration = errors.New("longsim: invalid rf configuration")

	// ErrTransitionSingularity indicates a zero motion constant (eta == 0).
	ErrTransitionSingularity = errors.New("longsim: motion constant is zero at transition energy")

	// ErrNonConvergence indicates a root or extremum search ran out of iterations.
	ErrNonConvergence = errors.New("longsim: numerical search did not converge")
)

// RangeError wraps a search failure with the phase range that was attempted.
type RangeError struct {
	Op         string
	Lo, Hi     float64
	Iterations int
	Wrapped    error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s on [%.6f, %.6f] after %d iterations: %v", e.Op, e.Lo, e.Hi, e.Iterations, e.Wrapped)
}

func (e *RangeError) Unwrap() error {
	return e.Wrapped
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
