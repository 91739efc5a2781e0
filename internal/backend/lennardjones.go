package backend

import (
	"fmt"
	"math"

	"github.com/san-kum/mdkit/internal/system"
)

// LennardJones is a velocity-Verlet molecular dynamics backend with a
// truncated 12-6 pair potential under minimum-image convention. If
// the system carries a thermostat, velocities are rescaled toward its
// target temperature with a Berendsen-style coupling each step.
type LennardJones struct {
	sys     *system.System
	Dt      float64
	Epsilon float64
	Sigma   float64
	Cutoff  float64

	forces [][]float64
}

func NewLennardJones(sys *system.System, dt float64) (*LennardJones, error) {
	if sys.Cell == nil {
		return nil, fmt.Errorf("%w: molecular dynamics needs a cell", system.ErrNoCell)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("%w: time step %g, must be positive", system.ErrConfiguration, dt)
	}
	for _, p := range sys.Particle {
		if p.Velocity == nil {
			return nil, fmt.Errorf("%w: particle without velocity", system.ErrConfiguration)
		}
	}
	b := &LennardJones{
		sys:     sys,
		Dt:      dt,
		Epsilon: 1.0,
		Sigma:   1.0,
		Cutoff:  2.5,
	}
	b.forces = b.computeForces()
	return b, nil
}

func (b *LennardJones) System() *system.System { return b.sys }

func (b *LennardJones) Advance(steps int) error {
	for i := 0; i < steps; i++ {
		b.step()
	}
	return nil
}

// step performs one velocity-Verlet update.
func (b *LennardJones) step() {
	dt := b.Dt
	for i, p := range b.sys.Particle {
		for d := range p.Position {
			p.Velocity[d] += 0.5 * dt * b.forces[i][d] / p.Mass
			p.Position[d] += dt * p.Velocity[d]
		}
		p.Fold(b.sys.Cell)
	}
	b.forces = b.computeForces()
	for i, p := range b.sys.Particle {
		for d := range p.Velocity {
			p.Velocity[d] += 0.5 * dt * b.forces[i][d] / p.Mass
		}
	}
	if t := b.sys.Thermostat; t != nil {
		b.couple(t)
	}
}

// couple rescales velocities toward the thermostat target. The
// relaxation time defaults to 100 steps when unset.
func (b *LennardJones) couple(t *system.Thermostat) {
	current := b.sys.Temperature()
	if current == 0 {
		return
	}
	tau := t.Relaxation
	if tau <= 0 {
		tau = 100 * b.Dt
	}
	factor := math.Sqrt(1 + b.Dt/tau*(t.Temperature/current-1))
	for _, p := range b.sys.Particle {
		for d := range p.Velocity {
			p.Velocity[d] *= factor
		}
	}
}

func (b *LennardJones) computeForces() [][]float64 {
	n := len(b.sys.Particle)
	ndim := b.sys.NDim()
	forces := make([][]float64, n)
	for i := range forces {
		forces[i] = make([]float64, ndim)
	}
	rc2 := b.Cutoff * b.Cutoff
	dr := make([]float64, ndim)

	for i := 0; i < n; i++ {
		pi := b.sys.Particle[i]
		for j := i + 1; j < n; j++ {
			pj := b.sys.Particle[j]
			r2 := 0.0
			for d := 0; d < ndim; d++ {
				s := b.sys.Cell.Side[d]
				x := pi.Position[d] - pj.Position[d]
				x -= s * math.Round(x/s)
				dr[d] = x
				r2 += x * x
			}
			if r2 > rc2 || r2 == 0 {
				continue
			}
			sr2 := b.Sigma * b.Sigma / r2
			sr6 := sr2 * sr2 * sr2
			// f/r for the 12-6 potential.
			fr := 24 * b.Epsilon * sr6 * (2*sr6 - 1) / r2
			for d := 0; d < ndim; d++ {
				forces[i][d] += fr * dr[d]
				forces[j][d] -= fr * dr[d]
			}
		}
	}
	return forces
}

// shift is the potential value at the cutoff, subtracted per pair so
// the energy is continuous when pairs cross the cutoff.
func (b *LennardJones) shift() float64 {
	sr2 := b.Sigma * b.Sigma / (b.Cutoff * b.Cutoff)
	sr6 := sr2 * sr2 * sr2
	return 4 * b.Epsilon * sr6 * (sr6 - 1)
}

// PotentialEnergy is the total cut-and-shifted pair energy.
func (b *LennardJones) PotentialEnergy() float64 {
	n := len(b.sys.Particle)
	ndim := b.sys.NDim()
	rc2 := b.Cutoff * b.Cutoff
	u := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r2 := 0.0
			for d := 0; d < ndim; d++ {
				s := b.sys.Cell.Side[d]
				x := b.sys.Particle[i].Position[d] - b.sys.Particle[j].Position[d]
				x -= s * math.Round(x/s)
				r2 += x * x
			}
			if r2 > rc2 || r2 == 0 {
				continue
			}
			sr2 := b.Sigma * b.Sigma / r2
			sr6 := sr2 * sr2 * sr2
			u += 4*b.Epsilon*sr6*(sr6-1) - b.shift()
		}
	}
	return u
}

// TotalEnergy is kinetic plus potential energy.
func (b *LennardJones) TotalEnergy() float64 {
	return b.sys.KineticEnergy() + b.PotentialEnergy()
}
