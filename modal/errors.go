package modal

import "errors"

var (
	// ErrDegenerateSignal is returned when every sensor amplitude at the
	// dominant bin is zero, so there is nothing to normalize against.
	ErrDegenerateSignal = errors.New("modal: degenerate signal")

	// ErrNoConvergence is returned when the least-squares solve does not
	// reach a minimum within its iteration and damping limits.
	ErrNoConvergence = errors.New("modal: fit did not converge")

	// ErrInsufficientData is returned for mismatched or too few fit points.
	ErrInsufficientData = errors.New("modal: insufficient fit data")
)
