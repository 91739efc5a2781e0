package analysis

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/mdkit/internal/simulation"
	"github.com/san-kum/mdkit/internal/system"
)

// VACF accumulates the normalized velocity autocorrelation
// <v(0)·v(t)> / <v(0)·v(0)>, keyed by step.
type VACF struct {
	v0   [][]float64
	norm float64
	Data map[int]float64
}

// NewVACF snapshots the reference velocities of s. Particles without
// velocity contribute zero.
func NewVACF(s *system.System) *VACF {
	v := &VACF{Data: make(map[int]float64)}
	v.v0 = make([][]float64, len(s.Particle))
	for i, p := range s.Particle {
		v.v0[i] = append([]float64(nil), p.Velocity...)
		if p.Velocity != nil {
			v.norm += floats.Dot(p.Velocity, p.Velocity)
		}
	}
	return v
}

func (v *VACF) Observer() simulation.Observer {
	return func(r *simulation.Runner) error {
		v.Data[r.CurrentStep()] = v.Compute(r.System())
		return nil
	}
}

// Compute is the normalized correlation of current velocities with
// the reference ones.
func (v *VACF) Compute(s *system.System) float64 {
	if v.norm == 0 || len(s.Particle) != len(v.v0) {
		return 0
	}
	c := 0.0
	for i, p := range s.Particle {
		if p.Velocity == nil || v.v0[i] == nil {
			continue
		}
		c += floats.Dot(v.v0[i], p.Velocity)
	}
	return c / v.norm
}
