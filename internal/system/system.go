package system

import (
	"fmt"
	"math"
)

// Thermostat is a boundary condition imposing a target temperature.
// Its Temperature is a target state variable, not the instantaneous
// kinetic temperature of the particles.
type Thermostat struct {
	Temperature float64
	Relaxation  float64
}

// Barostat is a boundary condition imposing a target pressure.
type Barostat struct {
	Pressure float64
}

// Reservoir is a particle reservoir imposing a target chemical
// potential.
type Reservoir struct {
	ChemicalPotential float64
}

// System aggregates a set of particles, an optional periodic cell and
// optional thermodynamic reservoirs. A nil cell means an unbounded,
// non-periodic system.
type System struct {
	Particle   []*Particle
	Cell       *Cell
	Thermostat *Thermostat
	Barostat   *Barostat
	Reservoir  *Reservoir
}

// New builds a system around an existing particle slice. The slice is
// referenced, not copied: backends mutate it in place.
func New(particles []*Particle, cell *Cell) *System {
	return &System{Particle: particles, Cell: cell}
}

// NDim is the spatial dimensionality, taken from the first particle
// or, for an empty system, from the cell.
func (s *System) NDim() int {
	if len(s.Particle) > 0 {
		return len(s.Particle[0].Position)
	}
	if s.Cell != nil {
		return s.Cell.NDim()
	}
	return 0
}

// Density is the number density N/V.
func (s *System) Density() (float64, error) {
	if s.Cell == nil {
		return 0, fmt.Errorf("%w: density undefined without a cell", ErrNoCell)
	}
	return float64(len(s.Particle)) / s.Cell.Volume(), nil
}

// SetDensity rescales the cell sides uniformly so the number density
// matches rho. Particle positions are left untouched.
func (s *System) SetDensity(rho float64) error {
	if s.Cell == nil {
		return fmt.Errorf("%w: cannot set density without a cell", ErrNoCell)
	}
	if rho <= 0 {
		return fmt.Errorf("%w: density target %g, must be positive", ErrConfiguration, rho)
	}
	if len(s.Particle) == 0 {
		return fmt.Errorf("%w: cannot set density", ErrNoParticles)
	}
	target := float64(len(s.Particle)) / rho
	factor := math.Pow(target/s.Cell.Volume(), 1.0/float64(s.Cell.NDim()))
	for d := range s.Cell.Side {
		s.Cell.Side[d] *= factor
	}
	return nil
}

// KineticEnergy is the total kinetic energy of the particles.
func (s *System) KineticEnergy() float64 {
	ke := 0.0
	for _, p := range s.Particle {
		ke += p.KineticEnergy()
	}
	return ke
}

// Temperature is the instantaneous kinetic temperature
// T = 2*K/ndof with ndof = ndim * npart.
func (s *System) Temperature() float64 {
	ndof := s.NDim() * len(s.Particle)
	if ndof == 0 {
		return 0
	}
	return 2 * s.KineticEnergy() / float64(ndof)
}

// SetTemperature rescales all velocities by a common factor so the
// kinetic temperature matches the target. It is independent of any
// thermostat target temperature.
func (s *System) SetTemperature(temperature float64) error {
	if len(s.Particle) == 0 {
		return fmt.Errorf("%w: cannot set temperature", ErrNoParticles)
	}
	if temperature < 0 {
		return fmt.Errorf("%w: temperature target %g, must be non-negative", ErrConfiguration, temperature)
	}
	current := s.Temperature()
	if current == 0 {
		return fmt.Errorf("%w: velocity rescale undefined", ErrZeroKinetic)
	}
	factor := math.Sqrt(temperature / current)
	for _, p := range s.Particle {
		for d := range p.Velocity {
			p.Velocity[d] *= factor
		}
	}
	return nil
}

// CMVelocity is the center-of-mass velocity of the particles.
func (s *System) CMVelocity() []float64 { return CMVelocity(s.Particle) }

// FixTotalMomentum zeroes the total momentum of the particles.
func (s *System) FixTotalMomentum() { FixTotalMomentum(s.Particle) }

// Clone returns a deep copy of the system, reservoirs included.
func (s *System) Clone() *System {
	c := &System{}
	c.Particle = make([]*Particle, len(s.Particle))
	for i, p := range s.Particle {
		c.Particle[i] = p.Clone()
	}
	if s.Cell != nil {
		c.Cell = &Cell{Side: append([]float64(nil), s.Cell.Side...)}
	}
	if s.Thermostat != nil {
		t := *s.Thermostat
		c.Thermostat = &t
	}
	if s.Barostat != nil {
		b := *s.Barostat
		c.Barostat = &b
	}
	if s.Reservoir != nil {
		r := *s.Reservoir
		c.Reservoir = &r
	}
	return c
}
