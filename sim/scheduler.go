package sim

import "time"

// FrameFunc is called once for the frame it was scheduled for.
type FrameFunc func(Frame)

// Token identifies a pending registration. The zero Token is never issued.
type Token uint64

// Scheduler runs registered callbacks at the next frame. A callback that
// wants to keep running registers itself again.
type Scheduler interface {
	ScheduleNext(fn FrameFunc) Token
	Cancel(t Token)
}

type pending struct {
	token Token
	fn    FrameFunc
}

// FrameQueue holds registrations for the next frame. Scheduler
// implementations embed it and call Dispatch once per frame.
type FrameQueue struct {
	last  Token
	queue []pending
}

func (q *FrameQueue) ScheduleNext(fn FrameFunc) Token {
	q.last++
	q.queue = append(q.queue, pending{token: q.last, fn: fn})
	return q.last
}

func (q *FrameQueue) Cancel(t Token) {
	for i, p := range q.queue {
		if p.token == t {
			q.queue = append(q.queue[:i], q.queue[i+1:]...)
			return
		}
	}
}

// Pending reports how many callbacks wait for the next frame.
func (q *FrameQueue) Pending() int { return len(q.queue) }

// Dispatch runs the callbacks registered before the call. Callbacks they
// register wait for the following Dispatch.
func (q *FrameQueue) Dispatch(f Frame) int {
	batch := q.queue
	q.queue = nil
	for _, p := range batch {
		p.fn(f)
	}
	return len(batch)
}

// ManualScheduler advances frames on demand at a fixed interval, for
// headless runs and tests.
type ManualScheduler struct {
	FrameQueue
	interval time.Duration
	frame    Frame
}

func NewManualScheduler(interval time.Duration) *ManualScheduler {
	return &ManualScheduler{interval: interval}
}

// Advance dispatches one frame. It returns false when nothing was
// registered, without consuming a frame.
func (s *ManualScheduler) Advance() bool {
	if s.Pending() == 0 {
		return false
	}
	s.Dispatch(s.frame)
	s.frame.Index++
	s.frame.Time += s.interval
	return true
}

// Run advances until nothing is registered or maxFrames frames have been
// dispatched (0 means no limit). It returns the number of frames run.
func (s *ManualScheduler) Run(maxFrames int) int {
	n := 0
	for maxFrames <= 0 || n < maxFrames {
		if !s.Advance() {
			break
		}
		n++
	}
	return n
}

// Now returns the frame the next Advance will dispatch.
func (s *ManualScheduler) Now() Frame { return s.frame }
