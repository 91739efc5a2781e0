package simulation

import "errors"

var (
	// ErrPrecondition indicates an invalid run request (negative step
	// count, target behind the current step).
	ErrPrecondition = errors.New("simulation: precondition failed")

	// ErrSimulationEnd is the cooperative stop signal. A backend or
	// observer returns an error wrapping it to end the run early; the
	// runner reports it as a normal termination, not a failure.
	ErrSimulationEnd = errors.New("simulation: end")
)
