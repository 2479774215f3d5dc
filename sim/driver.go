package sim

import (
	"log/slog"

	"github.com/pthm-cable/fluid/input"
)

// Stepper advances some simulation by one frame.
type Stepper interface {
	Step(frame Frame, in input.Sample) error
}

// Simulation binds a Loop to the State it exclusively drives.
type Simulation struct {
	Loop  *Loop
	State *State
}

func (s *Simulation) Step(frame Frame, in input.Sample) error {
	return s.Loop.Step(s.State, frame, in)
}

// Release frees the state and the compiled programs.
func (s *Simulation) Release() {
	s.State.Release()
	s.Loop.Release()
}

// Driver samples input and steps once per scheduled frame, registering
// itself again after every successful step.
type Driver struct {
	stepper Stepper
	sched   Scheduler
	src     input.Source

	token   Token
	running bool
	frames  uint64
	err     error
	after   []func(Frame)
}

func NewDriver(stepper Stepper, sched Scheduler, src input.Source) *Driver {
	if src == nil {
		src = input.None{}
	}
	return &Driver{stepper: stepper, sched: sched, src: src}
}

// AfterStep registers fn to run after every successful step, before the
// next frame is requested.
func (d *Driver) AfterStep(fn func(Frame)) {
	d.after = append(d.after, fn)
}

// Start requests the first frame. Starting a running driver is a no-op.
func (d *Driver) Start() {
	if d.running {
		return
	}
	d.running = true
	d.err = nil
	d.token = d.sched.ScheduleNext(d.tick)
}

// Stop cancels the pending frame. A step in progress completes.
func (d *Driver) Stop() {
	d.running = false
	if d.token != 0 {
		d.sched.Cancel(d.token)
		d.token = 0
	}
}

func (d *Driver) Running() bool  { return d.running }
func (d *Driver) Frames() uint64 { return d.frames }

// Err returns the error that stopped the driver, if any.
func (d *Driver) Err() error { return d.err }

func (d *Driver) tick(f Frame) {
	d.token = 0
	if !d.running {
		return
	}
	if err := d.stepper.Step(f, d.src.Sample(f.Time)); err != nil {
		d.err = err
		d.running = false
		slog.Error("simulation step failed", "frame", f.Index, "error", err)
		return
	}
	d.frames++
	for _, fn := range d.after {
		fn(f)
	}
	// A hook that restarted the driver has already registered a frame.
	if d.running && d.token == 0 {
		d.token = d.sched.ScheduleNext(d.tick)
	}
}
