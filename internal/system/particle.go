package system

import (
	"math"
	"math/rand"
)

// Particle is a point (or extended, when Radius is set) entity with a
// position, an optional velocity and a species label. Extra holds
// model-specific attributes (charge, spin, ...) that are not part of
// the fixed field set.
type Particle struct {
	Position []float64
	Velocity []float64 // nil when the model carries no velocities
	Species  string
	Mass     float64
	Radius   *float64 // nil means point particle
	Extra    map[string]float64
}

// NewParticle returns a point particle at the origin of a
// 3-dimensional space with unit mass and no velocity.
func NewParticle() *Particle {
	return &Particle{
		Position: make([]float64, 3),
		Mass:     1.0,
	}
}

// Fold maps the position back into the canonical cell centered at the
// origin, one dimension at a time. The particle is mutated in place
// and returned for chaining.
func (p *Particle) Fold(c *Cell) *Particle {
	for d := range p.Position {
		s := c.Side[d]
		p.Position[d] -= s * math.Round(p.Position[d]/s)
	}
	return p
}

// NearestImage moves other onto its periodic image closest to p, so
// that each component of the separation vector has magnitude at most
// side/2. With copy set, other is left untouched and a shifted
// duplicate is returned instead.
func (p *Particle) NearestImage(other *Particle, c *Cell, copyOther bool) *Particle {
	q := other
	if copyOther {
		q = other.Clone()
	}
	for d := range q.Position {
		s := c.Side[d]
		dr := q.Position[d] - p.Position[d]
		dr -= s * math.Round(dr/s)
		q.Position[d] = p.Position[d] + dr
	}
	return q
}

// Maxwellian draws the velocity components independently from a
// normal distribution with zero mean and variance T/mass. It does not
// fix the total momentum across particles; see FixTotalMomentum.
func (p *Particle) Maxwellian(temperature float64, rng *rand.Rand) {
	if p.Velocity == nil {
		p.Velocity = make([]float64, len(p.Position))
	}
	sigma := math.Sqrt(temperature / p.Mass)
	for d := range p.Velocity {
		p.Velocity[d] = sigma * rng.NormFloat64()
	}
}

// KineticEnergy is 0.5*m*v². A particle without velocity contributes
// zero.
func (p *Particle) KineticEnergy() float64 {
	ke := 0.0
	for _, v := range p.Velocity {
		ke += v * v
	}
	return 0.5 * p.Mass * ke
}

// Clone returns a deep copy of the particle.
func (p *Particle) Clone() *Particle {
	q := &Particle{
		Species: p.Species,
		Mass:    p.Mass,
	}
	q.Position = append([]float64(nil), p.Position...)
	if p.Velocity != nil {
		q.Velocity = append([]float64(nil), p.Velocity...)
	}
	if p.Radius != nil {
		r := *p.Radius
		q.Radius = &r
	}
	if p.Extra != nil {
		q.Extra = make(map[string]float64, len(p.Extra))
		for k, v := range p.Extra {
			q.Extra[k] = v
		}
	}
	return q
}

// CMVelocity is the mass-weighted average velocity of the particles.
// Particles without velocity count as at rest.
func CMVelocity(particles []*Particle) []float64 {
	if len(particles) == 0 {
		return nil
	}
	ndim := len(particles[0].Position)
	cm := make([]float64, ndim)
	mtot := 0.0
	for _, p := range particles {
		mtot += p.Mass
		for d, v := range p.Velocity {
			cm[d] += p.Mass * v
		}
	}
	for d := range cm {
		cm[d] /= mtot
	}
	return cm
}

// FixTotalMomentum subtracts the center-of-mass velocity from every
// particle so the total momentum becomes zero up to rounding.
func FixTotalMomentum(particles []*Particle) {
	cm := CMVelocity(particles)
	for _, p := range particles {
		for d := range p.Velocity {
			p.Velocity[d] -= cm[d]
		}
	}
}
