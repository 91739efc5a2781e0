package trajectory

import (
	"math"

	"github.com/san-kum/mdkit/internal/system"
)

// CoerceLattice rounds every position component to the nearest
// integer. Lattice models store site indices, which the text format
// carries as floats.
func CoerceLattice() Callback {
	return func(s *system.System) {
		for _, p := range s.Particle {
			for d := range p.Position {
				p.Position[d] = math.Round(p.Position[d])
			}
		}
	}
}

// DropVelocities nulls out velocities, for models where they have no
// meaning.
func DropVelocities() Callback {
	return func(s *system.System) {
		for _, p := range s.Particle {
			p.Velocity = nil
		}
	}
}

// Unfolder removes periodic jumps between successive frames, so
// positions become continuous across cell boundaries. It keeps a
// per-particle correction from the previous frame, hence frames must
// be visited in file order (e.g. via Each).
func Unfolder() Callback {
	var last [][]float64
	var corr [][]float64
	return func(s *system.System) {
		if s.Cell == nil {
			return
		}
		if last == nil || len(last) != len(s.Particle) {
			last = make([][]float64, len(s.Particle))
			corr = make([][]float64, len(s.Particle))
			for i, p := range s.Particle {
				last[i] = append([]float64(nil), p.Position...)
				corr[i] = make([]float64, len(p.Position))
			}
			return
		}
		for i, p := range s.Particle {
			for d := range p.Position {
				side := s.Cell.Side[d]
				x := p.Position[d] + corr[i][d]
				dist := last[i][d] - x
				if dist > side/2 {
					corr[i][d] += side
					x += side
				} else if dist < -side/2 {
					corr[i][d] -= side
					x -= side
				}
				last[i][d] = x
				p.Position[d] = x
			}
		}
	}
}
