package sim

import (
	"errors"
	"testing"
	"time"

	"github.com/pthm-cable/fluid/input"
)

type countingStepper struct {
	frames  []Frame
	samples []input.Sample
	failAt  int
}

var errBoom = errors.New("boom")

func (c *countingStepper) Step(f Frame, in input.Sample) error {
	c.frames = append(c.frames, f)
	c.samples = append(c.samples, in)
	if c.failAt > 0 && len(c.frames) == c.failAt {
		return errBoom
	}
	return nil
}

func TestFrameQueueDispatchesOnlyEarlierRegistrations(t *testing.T) {
	var q FrameQueue
	calls := 0
	var again FrameFunc
	again = func(Frame) {
		calls++
		q.ScheduleNext(again)
	}
	q.ScheduleNext(again)

	if n := q.Dispatch(Frame{}); n != 1 || calls != 1 {
		t.Errorf("dispatched %d, calls %d", n, calls)
	}
	if q.Pending() != 1 {
		t.Errorf("pending = %d, want 1", q.Pending())
	}
}

func TestFrameQueueCancel(t *testing.T) {
	var q FrameQueue
	ran := false
	tok := q.ScheduleNext(func(Frame) { ran = true })
	if tok == 0 {
		t.Fatal("zero token issued")
	}
	q.Cancel(tok)
	q.Cancel(tok)
	q.Dispatch(Frame{})
	if ran {
		t.Error("cancelled callback ran")
	}
}

func TestManualSchedulerFrames(t *testing.T) {
	s := NewManualScheduler(16 * time.Millisecond)
	var seen []Frame
	var fn FrameFunc
	fn = func(f Frame) {
		seen = append(seen, f)
		s.ScheduleNext(fn)
	}
	s.ScheduleNext(fn)

	if n := s.Run(3); n != 3 {
		t.Fatalf("ran %d frames, want 3", n)
	}
	if seen[2].Index != 2 || seen[2].Time != 32*time.Millisecond {
		t.Errorf("third frame = %+v", seen[2])
	}
}

func TestDriverRunsUntilStopped(t *testing.T) {
	s := NewManualScheduler(time.Millisecond)
	st := &countingStepper{}
	d := NewDriver(st, s, input.Fixed{X: 0.5, Y: 0.5})
	d.AfterStep(func(f Frame) {
		if f.Index == 4 {
			d.Stop()
		}
	})
	d.Start()
	d.Start()

	if n := s.Run(100); n != 5 {
		t.Errorf("ran %d frames, want 5", n)
	}
	if d.Frames() != 5 || d.Running() {
		t.Errorf("frames = %d, running = %v", d.Frames(), d.Running())
	}
	if s.Pending() != 0 {
		t.Errorf("driver still registered after Stop")
	}
	if got := st.samples[3]; !got.Valid || got.Time != 3*time.Millisecond {
		t.Errorf("sample 3 = %+v", got)
	}
}

func TestDriverStopsOnError(t *testing.T) {
	s := NewManualScheduler(time.Millisecond)
	d := NewDriver(&countingStepper{failAt: 3}, s, nil)
	d.Start()

	s.Run(0)
	if !errors.Is(d.Err(), errBoom) {
		t.Errorf("Err = %v, want errBoom", d.Err())
	}
	if d.Frames() != 2 {
		t.Errorf("frames = %d, want 2", d.Frames())
	}
}

func TestDriverStopCancelsPendingFrame(t *testing.T) {
	s := NewManualScheduler(time.Millisecond)
	st := &countingStepper{}
	d := NewDriver(st, s, nil)
	d.Start()
	d.Stop()
	if s.Run(10) != 0 || len(st.frames) != 0 {
		t.Error("stopped driver still stepped")
	}
}

func TestDriverRestartFromHookKeepsOneFrame(t *testing.T) {
	s := NewManualScheduler(time.Millisecond)
	st := &countingStepper{}
	d := NewDriver(st, s, nil)
	d.AfterStep(func(f Frame) {
		if f.Index == 0 {
			d.Stop()
			d.Start()
		}
	})
	d.Start()

	s.Run(2)
	if s.Pending() != 1 {
		t.Errorf("pending = %d after restart, want 1", s.Pending())
	}
	if len(st.frames) != 2 {
		t.Errorf("stepped %d times over 2 frames, want 2", len(st.frames))
	}
	d.Stop()
	if s.Pending() != 0 {
		t.Error("Stop left a frame registered")
	}
}
