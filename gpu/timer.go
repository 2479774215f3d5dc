package gpu

import "time"

// Span is the device execution time of the commands issued for one phase
// of one step.
type Span struct {
	Step    uint64
	Phase   string
	Elapsed time.Duration
}

// Timer measures how long the device spends executing commands, split at
// marks. Results of an asynchronous device may arrive frames after the
// commands were issued; Collect hands them out in issue order.
type Timer interface {
	// Mark closes the open span, if any, and opens one for phase of step.
	Mark(step uint64, phase string)
	// Close closes the open span.
	Close()
	// Collect appends to dst every closed span whose result is ready.
	Collect(dst []Span) []Span
}

// WallTimer times spans on a clock. It is exact for devices that finish
// every command before returning.
type WallTimer struct {
	now   func() time.Duration
	open  bool
	cur   Span
	start time.Duration
	done  []Span
}

// NewWallTimer reads the time from now, or from a monotonic clock started
// at creation when now is nil.
func NewWallTimer(now func() time.Duration) *WallTimer {
	if now == nil {
		origin := time.Now()
		now = func() time.Duration { return time.Since(origin) }
	}
	return &WallTimer{now: now}
}

func (w *WallTimer) Mark(step uint64, phase string) {
	t := w.now()
	w.closeAt(t)
	w.cur = Span{Step: step, Phase: phase}
	w.start = t
	w.open = true
}

func (w *WallTimer) Close() { w.closeAt(w.now()) }

func (w *WallTimer) closeAt(t time.Duration) {
	if !w.open {
		return
	}
	w.cur.Elapsed = t - w.start
	w.done = append(w.done, w.cur)
	w.open = false
}

func (w *WallTimer) Collect(dst []Span) []Span {
	dst = append(dst, w.done...)
	w.done = w.done[:0]
	return dst
}
