// Package backend provides simulation backends satisfying the
// runner's contract: they own a system and advance it in place.
package backend

import (
	"math/rand"

	"github.com/san-kum/mdkit/internal/system"
)

// RandomWalk displaces every particle by an independent Gaussian step
// of width Delta each time step. With a cell present and Fold set,
// positions are folded back into the cell after every move.
type RandomWalk struct {
	sys   *system.System
	rng   *rand.Rand
	Delta float64
	Fold  bool
}

func NewRandomWalk(sys *system.System, delta float64, seed int64) *RandomWalk {
	return &RandomWalk{
		sys:   sys,
		rng:   rand.New(rand.NewSource(seed)),
		Delta: delta,
	}
}

func (b *RandomWalk) System() *system.System { return b.sys }

func (b *RandomWalk) Advance(steps int) error {
	for i := 0; i < steps; i++ {
		for _, p := range b.sys.Particle {
			for d := range p.Position {
				p.Position[d] += b.Delta * b.rng.NormFloat64()
			}
			if b.Fold && b.sys.Cell != nil {
				p.Fold(b.sys.Cell)
			}
		}
	}
	return nil
}
