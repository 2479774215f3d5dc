package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/fluid/gpu"
)

// laggedTimer resolves each span lag Collect calls after it closes, the
// way non-blocking GPU query readback does.
type laggedTimer struct {
	lag    int
	cost   map[string]time.Duration
	open   *gpu.Span
	queued []queuedSpan
}

type queuedSpan struct {
	span gpu.Span
	age  int
}

func (l *laggedTimer) Mark(step uint64, phase string) {
	l.Close()
	l.open = &gpu.Span{Step: step, Phase: phase, Elapsed: l.cost[phase]}
}

func (l *laggedTimer) Close() {
	if l.open != nil {
		l.queued = append(l.queued, queuedSpan{span: *l.open})
		l.open = nil
	}
}

func (l *laggedTimer) Collect(dst []gpu.Span) []gpu.Span {
	for i := range l.queued {
		l.queued[i].age++
	}
	n := 0
	for n < len(l.queued) && l.queued[n].age > l.lag {
		dst = append(dst, l.queued[n].span)
		n++
	}
	l.queued = l.queued[n:]
	return dst
}

func runStep(pc *PerfCollector, phases ...string) {
	pc.BeginStep()
	for _, ph := range phases {
		pc.Phase(ph)
	}
	pc.EndStep()
}

func TestPerfCollectorWaitsForDeviceResults(t *testing.T) {
	us := time.Microsecond
	pc := NewPerfCollector(8)
	pc.UseTimer(&laggedTimer{lag: 1, cost: map[string]time.Duration{
		PhaseAdvect:   30 * us,
		PhasePressure: 70 * us,
	}})

	runStep(pc, PhaseAdvect, PhasePressure)
	if s := pc.Stats(); s.Steps != 0 || pc.Waiting() != 1 {
		t.Fatalf("after one step: %d complete, %d waiting; want 0, 1", s.Steps, pc.Waiting())
	}

	runStep(pc, PhaseAdvect, PhasePressure)
	s := pc.Stats()
	if s.Steps != 1 || pc.Waiting() != 1 {
		t.Fatalf("after two steps: %d complete, %d waiting; want 1, 1", s.Steps, pc.Waiting())
	}
	if s.AvgStep != 100*us || s.PhaseAvg[PhaseAdvect] != 30*us {
		t.Errorf("step = %v, advect = %v; want 100µs, 30µs", s.AvgStep, s.PhaseAvg[PhaseAdvect])
	}
	if s.PhasePct[PhasePressure] != 70 {
		t.Errorf("pressure share = %v%%, want 70", s.PhasePct[PhasePressure])
	}
}

func TestPerfCollectorRepeatedPhaseAccumulates(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.UseTimer(&laggedTimer{cost: map[string]time.Duration{PhaseBoundary: 5 * time.Microsecond}})

	runStep(pc, PhaseBoundary, PhaseBoundary)
	if got := pc.Stats().PhaseAvg[PhaseBoundary]; got != 10*time.Microsecond {
		t.Errorf("boundary = %v, want 10µs", got)
	}
}

// stepTimer reports each step's single span as step microseconds long.
type stepTimer struct{ laggedTimer }

func (s *stepTimer) Mark(step uint64, phase string) {
	s.laggedTimer.Mark(step, phase)
	s.open.Elapsed = time.Duration(step) * time.Microsecond
}

func TestPerfCollectorWindowKeepsLatestSteps(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.UseTimer(&stepTimer{})
	for i := 0; i < 20; i++ {
		runStep(pc, PhaseDiffuse)
	}

	s := pc.Stats()
	us := time.Microsecond
	if s.Steps != 10 {
		t.Fatalf("steps in window = %d, want 10", s.Steps)
	}
	// Steps 11..20 remain.
	if s.MinStep != 11*us || s.MaxStep != 20*us || s.P90Step != 19*us {
		t.Errorf("min/max/p90 = %v/%v/%v, want 11µs/20µs/19µs", s.MinStep, s.MaxStep, s.P90Step)
	}
	if s.AvgStep != 15500*time.Nanosecond {
		t.Errorf("avg = %v, want 15.5µs", s.AvgStep)
	}
}

func TestPerfCollectorSwitchingTimersDropsWaitingSteps(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.UseTimer(&laggedTimer{lag: 5})
	runStep(pc, PhaseGradient)
	pc.UseTimer(&laggedTimer{})
	if pc.Waiting() != 0 {
		t.Errorf("waiting = %d after switching timers", pc.Waiting())
	}
	runStep(pc, PhaseGradient)
	if pc.Stats().Steps != 1 {
		t.Errorf("steps = %d, want 1", pc.Stats().Steps)
	}
}

func TestPerfCollectorEmptyStats(t *testing.T) {
	s := NewPerfCollector(4).Stats()
	if s.Steps != 0 || s.AvgStep != 0 || s.FPS != 0 {
		t.Errorf("empty stats = %+v", s)
	}
	if s.PhaseAvg == nil || s.PhasePct == nil {
		t.Error("phase maps must be non-nil")
	}
}

func TestPerfCollectorFrameInterval(t *testing.T) {
	pc := NewPerfCollector(4)
	clock := time.Unix(0, 0)
	pc.now = func() time.Time { return clock }

	pc.RecordFrame()
	if pc.Stats().FPS != 0 {
		t.Error("FPS reported after a single frame")
	}
	clock = clock.Add(20 * time.Millisecond)
	pc.RecordFrame()
	if s := pc.Stats(); s.FrameDuration != 20*time.Millisecond || s.FPS != 50 {
		t.Errorf("frame = %v, fps = %v; want 20ms, 50", s.FrameDuration, s.FPS)
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	s := PerfStats{
		Steps:    3,
		AvgStep:  900 * time.Microsecond,
		PhaseAvg: map[string]time.Duration{PhasePressure: 600 * time.Microsecond},
		FPS:      60,
	}
	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.Steps != 3 || row.AvgStepUS != 900 || row.PressureUS != 600 || row.AdvectUS != 0 {
		t.Errorf("row = %+v", row)
	}
}
