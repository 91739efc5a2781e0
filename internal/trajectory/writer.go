package trajectory

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/mdkit/internal/system"
)

// Writer appends frames to a trajectory file. Opening truncates any
// existing file. The field-to-column mapping is fixed at open time.
type Writer struct {
	path   string
	f      *os.File
	w      *bufio.Writer
	fields []string
	steps  []int
}

// OpenWriter opens path for writing, truncating it. With no fields
// the default species+position set is used.
func OpenWriter(path string, fields ...string) (*Writer, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}
	for _, field := range fields {
		if !knownField(field) {
			return nil, fmt.Errorf("trajectory: unknown field %q", field)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		path:   path,
		f:      f,
		w:      bufio.NewWriter(f),
		fields: append([]string(nil), fields...),
	}, nil
}

// Steps lists the step tags of the frames written so far, in append
// order.
func (w *Writer) Steps() []int { return w.steps }

// Len is the number of frames written so far.
func (w *Writer) Len() int { return len(w.steps) }

// Write appends one frame tagged with the given step.
func (w *Writer) Write(s *system.System, step int) error {
	ndim := s.NDim()
	if ndim == 0 {
		ndim = 3
	}

	fmt.Fprintf(w.w, "%d\n", len(s.Particle))

	meta := fmt.Sprintf("step=%d columns=%s ndim=%d", step, strings.Join(w.fields, ","), ndim)
	if s.Cell != nil {
		meta += " cell=" + joinFloats(s.Cell.Side)
	}
	fmt.Fprintln(w.w, meta)

	for _, p := range s.Particle {
		if err := w.writeParticle(p, ndim); err != nil {
			return err
		}
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	w.steps = append(w.steps, step)
	return nil
}

func (w *Writer) writeParticle(p *system.Particle, ndim int) error {
	var b []byte
	for i, field := range w.fields {
		if i > 0 {
			b = append(b, ' ')
		}
		switch field {
		case "species":
			sp := p.Species
			if sp == "" {
				sp = "A"
			}
			b = append(b, sp...)
		case "position":
			b = appendVector(b, p.Position, ndim)
		case "velocity":
			b = appendVector(b, p.Velocity, ndim)
		case "mass":
			b = strconv.AppendFloat(b, p.Mass, 'g', -1, 64)
		case "radius":
			r := 0.0
			if p.Radius != nil {
				r = *p.Radius
			}
			b = strconv.AppendFloat(b, r, 'g', -1, 64)
		}
	}
	b = append(b, '\n')
	_, err := w.w.Write(b)
	return err
}

// Close flushes buffered frames and releases the file handle. It is
// safe to defer on every exit path.
func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	ferr := w.w.Flush()
	cerr := w.f.Close()
	w.f = nil
	if ferr != nil {
		return ferr
	}
	return cerr
}

func appendVector(b []byte, v []float64, ndim int) []byte {
	for d := 0; d < ndim; d++ {
		if d > 0 {
			b = append(b, ' ')
		}
		x := 0.0
		if d < len(v) {
			x = v[d]
		}
		b = strconv.AppendFloat(b, x, 'g', -1, 64)
	}
	return b
}

func joinFloats(v []float64) string {
	var b []byte
	for d, x := range v {
		if d > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendFloat(b, x, 'g', -1, 64)
	}
	return string(b)
}
