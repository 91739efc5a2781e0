package trajectory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/mdkit/internal/system"
)

// Reader provides random access to the frames of a trajectory file.
// A per-frame offset and step index is built on open, so Get seeks
// instead of re-scanning.
type Reader struct {
	path      string
	f         *os.File
	offsets   []int64
	steps     []int
	callbacks []Callback
}

// OpenReader opens the trajectory at path and indexes its frames.
// A missing or malformed file is an error.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := &Reader{path: path, f: f}
	if err := r.index(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// index scans the whole file once, recording the byte offset and step
// tag of every frame.
func (r *Reader) index() error {
	br := bufio.NewReader(r.f)
	var offset int64
	line := 0
	for {
		frameStart := offset
		text, n, err := readLine(br)
		if err == io.EOF && n == 0 {
			break
		}
		if err != nil && err != io.EOF {
			return err
		}
		line++
		offset += int64(n)

		count, perr := strconv.Atoi(strings.TrimSpace(text))
		if perr != nil || count < 0 {
			return formatErr(r.path, line, "bad particle count %q", strings.TrimSpace(text))
		}

		text, n, err = readLine(br)
		if n == 0 {
			return formatErr(r.path, line, "truncated frame: missing metadata line")
		}
		line++
		offset += int64(n)
		meta, merr := parseMeta(text)
		if merr != nil {
			return formatErr(r.path, line, "%v", merr)
		}

		want := 0
		for _, c := range meta.columns {
			want += columnWidth(c, meta.ndim)
		}
		for i := 0; i < count; i++ {
			text, n, err = readLine(br)
			if n == 0 {
				return formatErr(r.path, line, "truncated frame: %d of %d particle lines", i, count)
			}
			line++
			offset += int64(n)
			fields := strings.Fields(text)
			if len(fields) != want {
				return formatErr(r.path, line, "particle line has %d columns, want %d", len(fields), want)
			}
			if _, perr := parseParticle(fields, meta); perr != nil {
				return formatErr(r.path, line, "%v", perr)
			}
		}

		r.offsets = append(r.offsets, frameStart)
		r.steps = append(r.steps, meta.step)

		if err == io.EOF {
			break
		}
	}
	return nil
}

// Steps lists the step tags of all frames in file order.
func (r *Reader) Steps() []int { return r.steps }

// Len is the number of frames.
func (r *Reader) Len() int { return len(r.steps) }

// AddCallback registers a transformation applied to every decoded
// system, in registration order.
func (r *Reader) AddCallback(cb Callback) { r.callbacks = append(r.callbacks, cb) }

// Get decodes frame i. Negative indices count from the end, -1 being
// the last frame.
func (r *Reader) Get(i int) (*system.System, int, error) {
	if i < 0 {
		i += len(r.offsets)
	}
	if i < 0 || i >= len(r.offsets) {
		return nil, 0, fmt.Errorf("trajectory: frame index %d out of range [0, %d)", i, len(r.offsets))
	}
	if _, err := r.f.Seek(r.offsets[i], io.SeekStart); err != nil {
		return nil, 0, err
	}
	s, err := r.decodeFrame(bufio.NewReader(r.f))
	if err != nil {
		return nil, 0, err
	}
	for _, cb := range r.callbacks {
		cb(s)
	}
	return s, r.steps[i], nil
}

// Each iterates over all frames in file order. A fresh call starts
// again from the first frame. Returning an error from fn stops the
// iteration and propagates the error.
func (r *Reader) Each(fn func(step int, s *system.System) error) error {
	for i := 0; i < r.Len(); i++ {
		s, step, err := r.Get(i)
		if err != nil {
			return err
		}
		if err := fn(step, s); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the file handle.
func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

type frameMeta struct {
	step    int
	columns []string
	ndim    int
	side    []float64
}

func parseMeta(line string) (frameMeta, error) {
	meta := frameMeta{ndim: 3, columns: DefaultFields}
	sawStep := false
	for _, kv := range strings.Fields(line) {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return meta, errors.New("metadata entry " + strconv.Quote(kv) + " is not key=value")
		}
		key, val := kv[:eq], kv[eq+1:]
		switch key {
		case "step":
			n, err := strconv.Atoi(val)
			if err != nil {
				return meta, errors.New("bad step " + strconv.Quote(val))
			}
			meta.step = n
			sawStep = true
		case "columns":
			meta.columns = strings.Split(val, ",")
			for _, c := range meta.columns {
				if !knownField(c) {
					return meta, errors.New("unknown column " + strconv.Quote(c))
				}
			}
		case "ndim":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return meta, errors.New("bad ndim " + strconv.Quote(val))
			}
			meta.ndim = n
		case "cell":
			for _, s := range strings.Split(val, ",") {
				x, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return meta, errors.New("bad cell side " + strconv.Quote(s))
				}
				meta.side = append(meta.side, x)
			}
		}
	}
	if !sawStep {
		return meta, errors.New("metadata line has no step tag")
	}
	return meta, nil
}

// decodeFrame parses one frame starting at the reader's position.
func (r *Reader) decodeFrame(br *bufio.Reader) (*system.System, error) {
	text, _, _ := readLine(br)
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return nil, formatErr(r.path, 0, "bad particle count %q", strings.TrimSpace(text))
	}

	text, n, _ := readLine(br)
	if n == 0 {
		return nil, formatErr(r.path, 0, "truncated frame")
	}
	meta, merr := parseMeta(text)
	if merr != nil {
		return nil, formatErr(r.path, 0, "%v", merr)
	}

	var cell *system.Cell
	if meta.side != nil {
		cell, err = system.NewCell(meta.side)
		if err != nil {
			return nil, formatErr(r.path, 0, "%v", err)
		}
	}

	want := 0
	for _, c := range meta.columns {
		want += columnWidth(c, meta.ndim)
	}

	particles := make([]*system.Particle, 0, count)
	for i := 0; i < count; i++ {
		text, n, _ = readLine(br)
		if n == 0 {
			return nil, formatErr(r.path, 0, "truncated frame: %d of %d particle lines", i, count)
		}
		fields := strings.Fields(text)
		if len(fields) != want {
			return nil, formatErr(r.path, 0, "particle line has %d columns, want %d", len(fields), want)
		}
		p, perr := parseParticle(fields, meta)
		if perr != nil {
			return nil, formatErr(r.path, 0, "%v", perr)
		}
		particles = append(particles, p)
	}
	return system.New(particles, cell), nil
}

func parseParticle(fields []string, meta frameMeta) (*system.Particle, error) {
	p := &system.Particle{Mass: 1}
	k := 0
	for _, col := range meta.columns {
		switch col {
		case "species":
			p.Species = fields[k]
			k++
		case "position":
			v, err := parseVector(fields[k:k+meta.ndim], "position")
			if err != nil {
				return nil, err
			}
			p.Position = v
			k += meta.ndim
		case "velocity":
			v, err := parseVector(fields[k:k+meta.ndim], "velocity")
			if err != nil {
				return nil, err
			}
			p.Velocity = v
			k += meta.ndim
		case "mass":
			m, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, errors.New("bad mass " + strconv.Quote(fields[k]))
			}
			p.Mass = m
			k++
		case "radius":
			r, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, errors.New("bad radius " + strconv.Quote(fields[k]))
			}
			if r > 0 {
				p.Radius = &r
			}
			k++
		}
	}
	if p.Position == nil {
		p.Position = make([]float64, meta.ndim)
	}
	return p, nil
}

func parseVector(fields []string, what string) ([]float64, error) {
	v := make([]float64, len(fields))
	for d, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.New("bad " + what + " component " + strconv.Quote(f))
		}
		v[d] = x
	}
	return v, nil
}

// readLine returns the next line without its terminator, along with
// the number of bytes consumed including the terminator.
func readLine(br *bufio.Reader) (string, int, error) {
	text, err := br.ReadString('\n')
	n := len(text)
	text = strings.TrimRight(text, "\n")
	return text, n, err
}
