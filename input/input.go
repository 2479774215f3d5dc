// Package input supplies the pointer samples a simulation step consumes.
package input

import (
	"math"
	"time"
)

// Sample is the pointer state observed at one frame. X and Y are
// normalised display coordinates with the origin at the bottom left.
// Clicks counts discrete press events since the source was created.
type Sample struct {
	X, Y   float32
	Time   time.Duration
	Valid  bool
	Clicks uint64
}

// Source is polled once per frame.
type Source interface {
	Sample(now time.Duration) Sample
}

// None never reports a pointer.
type None struct{}

func (None) Sample(now time.Duration) Sample {
	return Sample{Time: now}
}

// Fixed reports the same position every frame.
type Fixed struct {
	X, Y float32
}

func (f Fixed) Sample(now time.Duration) Sample {
	return Sample{X: f.X, Y: f.Y, Time: now, Valid: true}
}

// Orbit drives a scripted Lissajous path around the centre of the
// display, for headless runs. It clicks once per Period.
type Orbit struct {
	Radius float64
	Period time.Duration
}

// NewOrbit returns an orbit with a quarter-display radius and a four
// second period.
func NewOrbit() *Orbit {
	return &Orbit{Radius: 0.25, Period: 4 * time.Second}
}

func (o *Orbit) Sample(now time.Duration) Sample {
	period := o.Period
	if period <= 0 {
		period = 4 * time.Second
	}
	phase := 2 * math.Pi * float64(now) / float64(period)
	return Sample{
		X:      float32(0.5 + o.Radius*math.Sin(phase)),
		Y:      float32(0.5 + o.Radius*math.Sin(2*phase)*0.5),
		Time:   now,
		Valid:  true,
		Clicks: uint64(now / period),
	}
}

// Script replays recorded samples in order, then reports no pointer.
// Sample times in the script are kept as recorded, so stale entries stay
// stale.
type Script struct {
	Samples []Sample
	next    int
}

func (s *Script) Sample(now time.Duration) Sample {
	if s.next >= len(s.Samples) {
		return Sample{Time: now}
	}
	out := s.Samples[s.next]
	s.next++
	return out
}

// Tracker turns polled pointer positions into samples stamped with the
// poll time of the last movement. A pointer resting since before the
// previous frame therefore reads as stale, as an event-driven pointer
// would.
type Tracker struct {
	x, y   float32
	moved  time.Duration
	seen   bool
	clicks uint64
}

// Observe records the pointer at (x, y), polled at now.
func (t *Tracker) Observe(x, y float32, now time.Duration) Sample {
	if !t.seen || x != t.x || y != t.y {
		t.x, t.y, t.moved, t.seen = x, y, now, true
	}
	return Sample{X: t.x, Y: t.y, Time: t.moved, Valid: true, Clicks: t.clicks}
}

// Lost records a poll at now with no usable pointer.
func (t *Tracker) Lost(now time.Duration) Sample {
	t.seen = false
	return Sample{Time: now, Clicks: t.clicks}
}

// Click counts one press.
func (t *Tracker) Click() { t.clicks++ }
