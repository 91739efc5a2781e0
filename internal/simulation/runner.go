// Package simulation drives a pluggable backend step by step and
// fires registered observers at fixed step intervals.
package simulation

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/san-kum/mdkit/internal/system"
)

// Backend is anything that owns a system and can advance it. Advance
// mutates the system in place. It may return an error wrapping
// ErrSimulationEnd to request a cooperative stop.
type Backend interface {
	System() *system.System
	Advance(steps int) error
}

// An Observer is invoked by the runner whenever the current step is a
// multiple of its interval. Observers fire in registration order and
// run synchronously; shared accumulators are captured by the closure
// at registration time. Returning an error wrapping ErrSimulationEnd
// stops the run early; any other error aborts it.
type Observer func(r *Runner) error

type scheduled struct {
	fn       Observer
	interval int
}

// Runner drives one backend across multiple Run/RunUntil calls,
// resuming from the cumulative step count each time.
type Runner struct {
	backend   Backend
	observers []scheduled
	current   int
	start     time.Time
	reason    string
	log       *log.Logger
}

func New(backend Backend) *Runner {
	return &Runner{
		backend: backend,
		log:     log.New(os.Stderr, "simulation: ", log.LstdFlags),
	}
}

// SetLogger replaces the run-report logger.
func (r *Runner) SetLogger(l *log.Logger) { r.log = l }

// CurrentStep is the cumulative number of steps advanced so far.
func (r *Runner) CurrentStep() int { return r.current }

// System is the backend's system.
func (r *Runner) System() *system.System { return r.backend.System() }

// Termination is the reason the last run ended ("target steps
// reached" or the message of the cooperative stop).
func (r *Runner) Termination() string { return r.reason }

// ElapsedWallTime is the wall time since the current run started.
func (r *Runner) ElapsedWallTime() time.Duration { return time.Since(r.start) }

// Add registers an observer fired every interval steps. Intervals
// must be positive.
func (r *Runner) Add(fn Observer, interval int) error {
	if interval <= 0 {
		return fmt.Errorf("%w: observer interval %d, must be positive", ErrPrecondition, interval)
	}
	r.observers = append(r.observers, scheduled{fn: fn, interval: interval})
	return nil
}

// Report logs the registered observers and their intervals.
func (r *Runner) Report() {
	for i, o := range r.observers {
		r.log.Printf("observer %d: interval=%d", i, o.interval)
	}
}

// Run advances the backend by steps unit steps, firing observers
// after each one. A cooperative stop ends the loop early and is
// reported as normal termination; any other backend or observer
// error aborts the run and propagates.
func (r *Runner) Run(steps int) error {
	if steps < 0 {
		return fmt.Errorf("%w: negative step count %d", ErrPrecondition, steps)
	}

	initial := r.current
	r.start = time.Now()
	r.reason = ""
	r.log.Printf("backend %T: starting at step %d, target %d steps, %d particles",
		r.backend, r.current, steps, len(r.System().Particle))

	var stop error
	for i := 0; i < steps; i++ {
		if err := r.backend.Advance(1); err != nil {
			if errors.Is(err, ErrSimulationEnd) {
				stop = err
				break
			}
			return fmt.Errorf("backend step %d: %w", r.current+1, err)
		}
		r.current++

		for _, o := range r.observers {
			if r.current%o.interval != 0 {
				continue
			}
			if err := o.fn(r); err != nil {
				if errors.Is(err, ErrSimulationEnd) {
					stop = err
					break
				}
				return fmt.Errorf("observer at step %d: %w", r.current, err)
			}
		}
		if stop != nil {
			break
		}
	}

	if stop != nil {
		r.reason = stop.Error()
	} else {
		r.reason = "target steps reached"
	}
	r.reportEnd(initial)
	return nil
}

// RunUntil advances until the cumulative step counter reaches target.
func (r *Runner) RunUntil(target int) error {
	if target < r.current {
		return fmt.Errorf("%w: target step %d behind current step %d", ErrPrecondition, target, r.current)
	}
	return r.Run(target - r.current)
}

func (r *Runner) reportEnd(initial int) {
	done := r.current - initial
	elapsed := time.Since(r.start)
	r.log.Printf("finished at step %d (%s): %d steps in %v", r.current, r.reason, done, elapsed)
	if n := len(r.System().Particle); done > 0 && n > 0 {
		perStep := elapsed.Seconds() / float64(done) / float64(n)
		r.log.Printf("throughput: %.3g s/step/particle", perStep)
	}
}
