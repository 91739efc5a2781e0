package system

import "errors"

// Domain errors for system configuration and property setters.
var (
	// ErrConfiguration indicates an invalid cell or an unsatisfiable
	// density/temperature target.
	ErrConfiguration = errors.New("system: invalid configuration")

	// ErrNoCell indicates an operation that needs a periodic cell was
	// called on an unbounded system.
	ErrNoCell = errors.New("system: no cell defined")

	// ErrZeroKinetic indicates a velocity rescale with zero total
	// kinetic energy (the scale factor would be 0/0).
	ErrZeroKinetic = errors.New("system: zero kinetic energy")

	// ErrNoParticles indicates a property that is undefined for an
	// empty particle set.
	ErrNoParticles = errors.New("system: no particles")
)
