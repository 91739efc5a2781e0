package system

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewParticleDefaults(t *testing.T) {
	p := NewParticle()
	if len(p.Position) != 3 {
		t.Errorf("default position has %d dimensions, want 3", len(p.Position))
	}
	for d, x := range p.Position {
		if x != 0 {
			t.Errorf("position[%d] = %g, want 0", d, x)
		}
	}
	if p.Mass != 1.0 {
		t.Errorf("default mass = %g, want 1", p.Mass)
	}
	if p.Velocity != nil {
		t.Error("default velocity should be nil")
	}
	if p.Radius != nil {
		t.Error("default radius should be nil (point particle)")
	}
}

func TestParticleFold(t *testing.T) {
	cell, _ := NewCubicCell(2.0, 3)

	tests := []struct {
		name string
		pos  []float64
		want []float64
	}{
		{"inside", []float64{0.5, -0.5, 0.0}, []float64{0.5, -0.5, 0.0}},
		{"one image out", []float64{1.5, 0.0, 0.0}, []float64{-0.5, 0.0, 0.0}},
		{"far out", []float64{7.3, -5.1, 0.0}, []float64{-0.7, 0.9, 0.0}},
		{"negative", []float64{-1.2, 0.0, 0.0}, []float64{0.8, 0.0, 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Particle{Position: append([]float64(nil), tt.pos...), Mass: 1}
			p.Fold(cell)
			for d := range p.Position {
				if math.Abs(p.Position[d]-tt.want[d]) > 1e-12 {
					t.Errorf("position[%d] = %g, want %g", d, p.Position[d], tt.want[d])
				}
			}
		})
	}
}

func TestParticleFoldBounds(t *testing.T) {
	// Folded coordinates stay within [-side/2, side/2] and keep their
	// value modulo the side.
	cell, _ := NewCell([]float64{2.0, 3.0, 5.0})
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		orig := []float64{
			20 * (rng.Float64() - 0.5),
			20 * (rng.Float64() - 0.5),
			20 * (rng.Float64() - 0.5),
		}
		p := &Particle{Position: append([]float64(nil), orig...), Mass: 1}
		p.Fold(cell)
		for d := range p.Position {
			s := cell.Side[d]
			if math.Abs(p.Position[d]) > s/2+1e-12 {
				t.Fatalf("position[%d] = %g outside [-%g, %g]", d, p.Position[d], s/2, s/2)
			}
			shift := (orig[d] - p.Position[d]) / s
			if math.Abs(shift-math.Round(shift)) > 1e-9 {
				t.Fatalf("position[%d] not congruent modulo side: orig %g folded %g", d, orig[d], p.Position[d])
			}
		}
	}
}

func TestNearestImage(t *testing.T) {
	cell, _ := NewCubicCell(2.0, 3)
	a := &Particle{Position: []float64{0.9, 0.0, 0.0}, Mass: 1}
	b := &Particle{Position: []float64{-0.9, 0.0, 0.0}, Mass: 1}

	img := a.NearestImage(b, cell, true)
	if math.Abs(img.Position[0]-1.1) > 1e-12 {
		t.Errorf("nearest image x = %g, want 1.1", img.Position[0])
	}
	if b.Position[0] != -0.9 {
		t.Error("copy form mutated the other particle")
	}

	a.NearestImage(b, cell, false)
	if math.Abs(b.Position[0]-1.1) > 1e-12 {
		t.Errorf("in-place nearest image x = %g, want 1.1", b.Position[0])
	}
}

func TestNearestImageSeparationBound(t *testing.T) {
	cell, _ := NewCell([]float64{2.0, 4.0, 6.0})
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		a := &Particle{Position: make([]float64, 3), Mass: 1}
		b := &Particle{Position: make([]float64, 3), Mass: 1}
		for d := 0; d < 3; d++ {
			a.Position[d] = 30 * (rng.Float64() - 0.5)
			b.Position[d] = 30 * (rng.Float64() - 0.5)
		}
		img := a.NearestImage(b, cell, true)
		for d := 0; d < 3; d++ {
			sep := img.Position[d] - a.Position[d]
			if math.Abs(sep) > cell.Side[d]/2+1e-12 {
				t.Fatalf("separation[%d] = %g exceeds side/2 = %g", d, sep, cell.Side[d]/2)
			}
		}
	}
}

func TestMaxwellian(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 5000
	const temperature = 2.0

	var sum, sum2 float64
	for i := 0; i < n; i++ {
		p := NewParticle()
		p.Maxwellian(temperature, rng)
		for _, v := range p.Velocity {
			sum += v
			sum2 += v * v
		}
	}
	samples := float64(3 * n)
	mean := sum / samples
	variance := sum2/samples - mean*mean

	if math.Abs(mean) > 0.05 {
		t.Errorf("velocity mean = %g, want ~0", mean)
	}
	if math.Abs(variance-temperature) > 0.1 {
		t.Errorf("velocity variance = %g, want ~%g", variance, temperature)
	}
}

func TestMaxwellianMassScaling(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	const n = 5000
	const temperature = 1.0
	const mass = 4.0

	var sum2 float64
	for i := 0; i < n; i++ {
		p := NewParticle()
		p.Mass = mass
		p.Maxwellian(temperature, rng)
		for _, v := range p.Velocity {
			sum2 += v * v
		}
	}
	variance := sum2 / float64(3*n)
	if math.Abs(variance-temperature/mass) > 0.05 {
		t.Errorf("velocity variance = %g, want ~%g", variance, temperature/mass)
	}
}

func TestKineticEnergy(t *testing.T) {
	p := &Particle{Position: make([]float64, 3), Velocity: []float64{1, 2, 2}, Mass: 2}
	if got := p.KineticEnergy(); math.Abs(got-9.0) > 1e-12 {
		t.Errorf("KineticEnergy() = %g, want 9", got)
	}

	q := NewParticle()
	if got := q.KineticEnergy(); got != 0 {
		t.Errorf("KineticEnergy() without velocity = %g, want 0", got)
	}
}

func TestCMVelocity(t *testing.T) {
	particles := []*Particle{
		{Position: make([]float64, 2), Velocity: []float64{1, 0}, Mass: 1},
		{Position: make([]float64, 2), Velocity: []float64{0, 1}, Mass: 3},
	}
	cm := CMVelocity(particles)
	if math.Abs(cm[0]-0.25) > 1e-12 || math.Abs(cm[1]-0.75) > 1e-12 {
		t.Errorf("CMVelocity = %v, want [0.25 0.75]", cm)
	}
}

func TestFixTotalMomentum(t *testing.T) {
	tests := []struct {
		name   string
		masses []float64
	}{
		{"equal masses", []float64{1, 1, 1, 1}},
		{"unequal masses", []float64{1, 2, 5, 0.5}},
	}

	rng := rand.New(rand.NewSource(3))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			particles := make([]*Particle, len(tt.masses))
			for i, m := range tt.masses {
				particles[i] = NewParticle()
				particles[i].Mass = m
				particles[i].Maxwellian(1.0, rng)
			}
			FixTotalMomentum(particles)
			cm := CMVelocity(particles)
			for d, v := range cm {
				if math.Abs(v) > 1e-12 {
					t.Errorf("cm velocity[%d] = %g after fix, want ~0", d, v)
				}
			}
		})
	}
}

func TestParticleClone(t *testing.T) {
	r := 0.5
	p := &Particle{
		Position: []float64{1, 2, 3},
		Velocity: []float64{4, 5, 6},
		Species:  "A",
		Mass:     2,
		Radius:   &r,
		Extra:    map[string]float64{"charge": -1},
	}
	q := p.Clone()
	q.Position[0] = 99
	q.Velocity[0] = 99
	*q.Radius = 99
	q.Extra["charge"] = 99

	if p.Position[0] != 1 || p.Velocity[0] != 4 || *p.Radius != 0.5 || p.Extra["charge"] != -1 {
		t.Error("clone shares state with the original")
	}
}
