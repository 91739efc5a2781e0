package simulation

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/mdkit/internal/trajectory"
)

// Built-in observers, modeled after the usual writer/target split:
// writers dump state to files, targets end the run by returning a
// cooperative stop.

// WriteTrajectory appends a frame tagged with the current step on
// every invocation.
func WriteTrajectory(w *trajectory.Writer) Observer {
	return func(r *Runner) error {
		return w.Write(r.System(), r.CurrentStep())
	}
}

// WriteThermo writes one "step temperature kinetic-energy" line per
// invocation.
func WriteThermo(w io.Writer) Observer {
	return func(r *Runner) error {
		s := r.System()
		_, err := fmt.Fprintf(w, "%d %g %g\n", r.CurrentStep(), s.Temperature(), s.KineticEnergy())
		return err
	}
}

// TargetSteps stops the run once the cumulative step counter reaches
// n.
func TargetSteps(n int) Observer {
	return func(r *Runner) error {
		if r.CurrentStep() >= n {
			return fmt.Errorf("%w: reached target step %d", ErrSimulationEnd, n)
		}
		return nil
	}
}

// TargetWallTime stops the run once it has been going for longer than
// limit.
func TargetWallTime(limit time.Duration) Observer {
	return func(r *Runner) error {
		if r.ElapsedWallTime() > limit {
			return fmt.Errorf("%w: wall time limit %v exceeded", ErrSimulationEnd, limit)
		}
		return nil
	}
}

// TargetValue stops the run once value(r) reaches target.
func TargetValue(name string, value func(*Runner) float64, target float64) Observer {
	return func(r *Runner) error {
		if value(r) >= target {
			return fmt.Errorf("%w: %s reached target %g", ErrSimulationEnd, name, target)
		}
		return nil
	}
}
