package backend

import (
	"math"
	"math/rand"

	"github.com/san-kum/mdkit/internal/system"
)

// LatticeConfiguration places n particles on a simple cubic lattice
// at the requested number density, draws Maxwellian velocities at the
// requested temperature and zeroes the total momentum.
func LatticeConfiguration(n int, rho, temperature float64, seed int64) (*system.System, error) {
	side := math.Cbrt(float64(n) / rho)
	cell, err := system.NewCubicCell(side, 3)
	if err != nil {
		return nil, err
	}

	// Smallest lattice that holds n sites.
	per := int(math.Ceil(math.Cbrt(float64(n))))
	spacing := side / float64(per)

	rng := rand.New(rand.NewSource(seed))
	particles := make([]*system.Particle, 0, n)
	for ix := 0; ix < per && len(particles) < n; ix++ {
		for iy := 0; iy < per && len(particles) < n; iy++ {
			for iz := 0; iz < per && len(particles) < n; iz++ {
				p := system.NewParticle()
				p.Species = "A"
				p.Position = []float64{
					(float64(ix)+0.5)*spacing - side/2,
					(float64(iy)+0.5)*spacing - side/2,
					(float64(iz)+0.5)*spacing - side/2,
				}
				p.Maxwellian(temperature, rng)
				particles = append(particles, p)
			}
		}
	}

	s := system.New(particles, cell)
	s.FixTotalMomentum()
	if temperature > 0 && s.KineticEnergy() > 0 {
		// Momentum removal changes the kinetic temperature; rescale
		// back to the requested value.
		if err := s.SetTemperature(temperature); err != nil {
			return nil, err
		}
	}
	return s, nil
}
