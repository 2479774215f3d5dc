package input

import (
	"testing"
	"time"
)

func TestNoneIsInvalid(t *testing.T) {
	s := None{}.Sample(time.Second)
	if s.Valid || s.Time != time.Second {
		t.Errorf("sample = %+v", s)
	}
}

func TestOrbitStaysOnScreen(t *testing.T) {
	o := NewOrbit()
	for ms := 0; ms < 8000; ms += 37 {
		s := o.Sample(time.Duration(ms) * time.Millisecond)
		if !s.Valid {
			t.Fatal("orbit sample not valid")
		}
		if s.X < 0 || s.X > 1 || s.Y < 0 || s.Y > 1 {
			t.Fatalf("sample at %dms off screen: (%v, %v)", ms, s.X, s.Y)
		}
	}
}

func TestOrbitClicksOncePerPeriod(t *testing.T) {
	o := &Orbit{Radius: 0.1, Period: time.Second}
	if c := o.Sample(999 * time.Millisecond).Clicks; c != 0 {
		t.Errorf("clicks before first period = %d", c)
	}
	if c := o.Sample(2500 * time.Millisecond).Clicks; c != 2 {
		t.Errorf("clicks at 2.5s = %d, want 2", c)
	}
}

func TestScriptReplaysThenStops(t *testing.T) {
	s := &Script{Samples: []Sample{
		{X: 0.1, Y: 0.2, Valid: true, Time: 5},
		{X: 0.3, Y: 0.4, Valid: true, Time: 3},
	}}
	if got := s.Sample(10); got.X != 0.1 || got.Time != 5 {
		t.Errorf("first = %+v", got)
	}
	if got := s.Sample(20); got.X != 0.3 || got.Time != 3 {
		t.Errorf("second = %+v", got)
	}
	if got := s.Sample(30); got.Valid {
		t.Errorf("exhausted script still valid: %+v", got)
	}
}

func TestTrackerStampsLastMovement(t *testing.T) {
	var tr Tracker
	ms := time.Millisecond

	if s := tr.Observe(0.2, 0.3, 10*ms); !s.Valid || s.Time != 10*ms {
		t.Fatalf("first = %+v", s)
	}
	if s := tr.Observe(0.2, 0.3, 26*ms); s.Time != 10*ms {
		t.Errorf("resting pointer stamped %v, want 10ms", s.Time)
	}
	if s := tr.Observe(0.25, 0.3, 42*ms); s.Time != 42*ms || s.X != 0.25 {
		t.Errorf("moved pointer = %+v", s)
	}

	tr.Click()
	if s := tr.Lost(58 * ms); s.Valid || s.Clicks != 1 {
		t.Errorf("lost = %+v", s)
	}
	// Coming back at the same spot counts as a fresh position.
	if s := tr.Observe(0.25, 0.3, 74*ms); s.Time != 74*ms || s.Clicks != 1 {
		t.Errorf("returned = %+v", s)
	}
}
