package control

import "errors"

var (
	// ErrInvalidTrajectory reports an empty or non-monotonic trajectory.
	ErrInvalidTrajectory = errors.New("invalid trajectory")

	// ErrSingularAttitude reports |R[2,2]| below epsilon (vehicle near 90°
	// tilt); the collective and body-rate solves both divide by that term.
	ErrSingularAttitude = errors.New("singular attitude")

	// ErrZeroThrust reports a collective command too close to zero for the
	// roll/pitch loop to normalize against.
	ErrZeroThrust = errors.New("zero thrust command")
)

// denomEps is the smallest denominator magnitude the cascade accepts before
// reporting a degenerate-division fault instead of propagating Inf/NaN into
// actuator commands.
const denomEps = 1e-6
