package system

import "fmt"

// Cell is an axis-aligned periodic box defined by its side lengths.
type Cell struct {
	Side []float64
}

// NewCell builds a cell from explicit per-dimension side lengths.
func NewCell(side []float64) (*Cell, error) {
	if len(side) == 0 {
		return nil, fmt.Errorf("%w: cell needs at least one side", ErrConfiguration)
	}
	for d, s := range side {
		if s <= 0 {
			return nil, fmt.Errorf("%w: cell side %d is %g, must be positive", ErrConfiguration, d, s)
		}
	}
	c := &Cell{Side: make([]float64, len(side))}
	copy(c.Side, side)
	return c, nil
}

// NewCubicCell broadcasts a single side length to ndim dimensions.
func NewCubicCell(side float64, ndim int) (*Cell, error) {
	if ndim < 1 {
		return nil, fmt.Errorf("%w: cell dimensionality %d, must be >= 1", ErrConfiguration, ndim)
	}
	s := make([]float64, ndim)
	for d := range s {
		s[d] = side
	}
	return NewCell(s)
}

// Volume is the product of the sides. It is recomputed on every call
// since sides may be reassigned (e.g. by SetDensity).
func (c *Cell) Volume() float64 {
	v := 1.0
	for _, s := range c.Side {
		v *= s
	}
	return v
}

func (c *Cell) NDim() int { return len(c.Side) }
