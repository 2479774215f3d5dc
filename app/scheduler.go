package app

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/sim"
)

// WindowScheduler dispatches registered frame callbacks once per display
// refresh, timed by raylib's monotonic clock.
type WindowScheduler struct {
	sim.FrameQueue
	start  float64
	frames uint64
}

func NewWindowScheduler() *WindowScheduler {
	return &WindowScheduler{start: rl.GetTime()}
}

// Tick runs the callbacks registered before this frame.
func (s *WindowScheduler) Tick() {
	s.Dispatch(sim.Frame{Index: s.frames, Time: s.Elapsed()})
	s.frames++
}

// Elapsed returns the time since the scheduler was created, on the clock
// frame times are read from.
func (s *WindowScheduler) Elapsed() time.Duration {
	return time.Duration((rl.GetTime() - s.start) * float64(time.Second))
}

// Frames returns the number of frames dispatched.
func (s *WindowScheduler) Frames() uint64 { return s.frames }
