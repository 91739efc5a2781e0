package simulation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/san-kum/mdkit/internal/system"
)

// countingBackend advances a single particle along x by one unit per
// step.
type countingBackend struct {
	sys   *system.System
	calls int
}

func newCountingBackend() *countingBackend {
	cell, _ := system.NewCubicCell(10.0, 3)
	return &countingBackend{
		sys: system.New([]*system.Particle{system.NewParticle()}, cell),
	}
}

func (b *countingBackend) System() *system.System { return b.sys }

func (b *countingBackend) Advance(steps int) error {
	for i := 0; i < steps; i++ {
		b.sys.Particle[0].Position[0] += 1.0
		b.calls++
	}
	return nil
}

func quietRunner(b Backend) *Runner {
	r := New(b)
	r.SetLogger(log.New(io.Discard, "", 0))
	return r
}

func TestRunAdvancesStepCount(t *testing.T) {
	r := quietRunner(newCountingBackend())

	if err := r.Run(10); err != nil {
		t.Fatal(err)
	}
	if r.CurrentStep() != 10 {
		t.Errorf("CurrentStep = %d, want 10", r.CurrentStep())
	}

	// Runs resume from the cumulative count, no implicit reset.
	if err := r.Run(20); err != nil {
		t.Fatal(err)
	}
	if r.CurrentStep() != 30 {
		t.Errorf("CurrentStep after second run = %d, want 30", r.CurrentStep())
	}
}

func TestRunUntil(t *testing.T) {
	r := quietRunner(newCountingBackend())

	if err := r.Run(10); err != nil {
		t.Fatal(err)
	}
	if err := r.RunUntil(30); err != nil {
		t.Fatal(err)
	}
	if r.CurrentStep() != 30 {
		t.Errorf("CurrentStep = %d, want 30", r.CurrentStep())
	}

	// Reaching the current step is a no-op, going backwards is not.
	if err := r.RunUntil(30); err != nil {
		t.Fatal(err)
	}
	err := r.RunUntil(29)
	if !errors.Is(err, ErrPrecondition) {
		t.Errorf("RunUntil(29) = %v, want ErrPrecondition", err)
	}
}

func TestRunNegative(t *testing.T) {
	r := quietRunner(newCountingBackend())
	if err := r.Run(-1); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Run(-1) = %v, want ErrPrecondition", err)
	}
	if r.CurrentStep() != 0 {
		t.Errorf("failed run moved the step counter to %d", r.CurrentStep())
	}
}

func TestObserverIntervals(t *testing.T) {
	r := quietRunner(newCountingBackend())

	var fired []int
	err := r.Add(func(r *Runner) error {
		fired = append(fired, r.CurrentStep())
		return nil
	}, 10)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Run(30); err != nil {
		t.Fatal(err)
	}

	want := []int{10, 20, 30}
	if len(fired) != len(want) {
		t.Fatalf("observer fired at %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Fatalf("observer fired at %v, want %v", fired, want)
		}
	}
}

func TestObserverRegistrationOrder(t *testing.T) {
	r := quietRunner(newCountingBackend())

	var order []string
	r.Add(func(*Runner) error { order = append(order, "a"); return nil }, 1)
	r.Add(func(*Runner) error { order = append(order, "b"); return nil }, 1)

	if err := r.Run(2); err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "a", "b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("observer order %v, want %v", order, want)
		}
	}
}

func TestObserverBadInterval(t *testing.T) {
	r := quietRunner(newCountingBackend())
	if err := r.Add(func(*Runner) error { return nil }, 0); !errors.Is(err, ErrPrecondition) {
		t.Errorf("Add with interval 0 = %v, want ErrPrecondition", err)
	}
}

func TestSharedAccumulator(t *testing.T) {
	r := quietRunner(newCountingBackend())

	// The observer closes over the map, so updates accumulate across
	// invocations.
	acc := make(map[int]float64)
	r.Add(func(r *Runner) error {
		acc[r.CurrentStep()] = r.System().Particle[0].Position[0]
		return nil
	}, 5)

	if err := r.Run(15); err != nil {
		t.Fatal(err)
	}
	if len(acc) != 3 {
		t.Fatalf("accumulator has %d entries, want 3: %v", len(acc), acc)
	}
	for _, step := range []int{5, 10, 15} {
		if acc[step] != float64(step) {
			t.Errorf("acc[%d] = %g, want %g", step, acc[step], float64(step))
		}
	}
}

func TestCooperativeStopFromObserver(t *testing.T) {
	b := newCountingBackend()
	r := quietRunner(b)
	r.Add(TargetSteps(7), 1)

	if err := r.Run(100); err != nil {
		t.Fatalf("cooperative stop surfaced as failure: %v", err)
	}
	if r.CurrentStep() != 7 {
		t.Errorf("CurrentStep = %d, want 7", r.CurrentStep())
	}
	if !strings.Contains(r.Termination(), "target step 7") {
		t.Errorf("Termination() = %q, want target-step reason", r.Termination())
	}
}

type stoppingBackend struct {
	*countingBackend
	stopAfter int
}

func (b *stoppingBackend) Advance(steps int) error {
	if b.calls >= b.stopAfter {
		return fmt.Errorf("%w: backend done", ErrSimulationEnd)
	}
	return b.countingBackend.Advance(steps)
}

func TestCooperativeStopFromBackend(t *testing.T) {
	b := &stoppingBackend{countingBackend: newCountingBackend(), stopAfter: 4}
	r := quietRunner(b)

	if err := r.Run(100); err != nil {
		t.Fatalf("cooperative stop surfaced as failure: %v", err)
	}
	if r.CurrentStep() != 4 {
		t.Errorf("CurrentStep = %d, want 4", r.CurrentStep())
	}
}

type failingBackend struct{ *countingBackend }

func (b *failingBackend) Advance(int) error { return errors.New("disk on fire") }

func TestBackendErrorPropagates(t *testing.T) {
	r := quietRunner(&failingBackend{newCountingBackend()})
	err := r.Run(5)
	if err == nil || !strings.Contains(err.Error(), "disk on fire") {
		t.Errorf("Run = %v, want wrapped backend error", err)
	}
}

func TestObserverErrorPropagates(t *testing.T) {
	r := quietRunner(newCountingBackend())
	r.Add(func(*Runner) error { return errors.New("observer broke") }, 1)
	err := r.Run(5)
	if err == nil || !strings.Contains(err.Error(), "observer broke") {
		t.Errorf("Run = %v, want wrapped observer error", err)
	}
}

func TestWriteThermoObserver(t *testing.T) {
	b := newCountingBackend()
	b.sys.Particle[0].Velocity = []float64{1, 0, 0}
	r := quietRunner(b)

	var buf bytes.Buffer
	r.Add(WriteThermo(&buf), 2)
	if err := r.Run(4); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("thermo wrote %d lines, want 2: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "2 ") || !strings.HasPrefix(lines[1], "4 ") {
		t.Errorf("thermo lines tagged wrong: %v", lines)
	}
}

func TestTargetWallTime(t *testing.T) {
	r := quietRunner(newCountingBackend())
	r.Add(TargetWallTime(0), 1)
	if err := r.Run(1000); err != nil {
		t.Fatal(err)
	}
	if r.CurrentStep() == 1000 {
		t.Error("wall time target never fired")
	}
}
