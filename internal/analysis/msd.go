// Package analysis provides observers that accumulate statistics
// over a run: mean squared displacement and velocity autocorrelation.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mdkit/internal/simulation"
	"github.com/san-kum/mdkit/internal/system"
)

// MSD accumulates the mean squared displacement from a reference
// configuration. Data maps step to the particle-averaged squared
// displacement; the same map instance is shared with the registered
// observer and fills up as the run proceeds.
type MSD struct {
	origin [][]float64
	Data   map[int]float64
	steps  []int
}

// NewMSD snapshots the reference positions of s.
func NewMSD(s *system.System) *MSD {
	m := &MSD{Data: make(map[int]float64)}
	m.origin = make([][]float64, len(s.Particle))
	for i, p := range s.Particle {
		m.origin[i] = append([]float64(nil), p.Position...)
	}
	return m
}

// Observer returns the callback to register with a runner. Positions
// must be unfolded (or the backend must not fold) for displacements
// to be meaningful across cell boundaries.
func (m *MSD) Observer() simulation.Observer {
	return func(r *simulation.Runner) error {
		m.Data[r.CurrentStep()] = m.Compute(r.System())
		m.steps = append(m.steps, r.CurrentStep())
		return nil
	}
}

// Compute is the particle-averaged squared displacement of s from the
// reference configuration.
func (m *MSD) Compute(s *system.System) float64 {
	if len(s.Particle) == 0 || len(s.Particle) != len(m.origin) {
		return 0
	}
	disp := make([]float64, len(s.Particle[0].Position))
	total := 0.0
	for i, p := range s.Particle {
		floats.SubTo(disp, p.Position, m.origin[i])
		total += floats.Dot(disp, disp)
	}
	return total / float64(len(s.Particle))
}

// RMSD is the square root of the current mean squared displacement,
// usable as a run target via simulation.TargetValue.
func (m *MSD) RMSD(r *simulation.Runner) float64 {
	return math.Sqrt(m.Compute(r.System()))
}

// Steps lists the steps at which the observer fired, in order.
func (m *MSD) Steps() []int { return m.steps }
