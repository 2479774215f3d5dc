package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fluid/gpu"
)

// Solver phases, in step order. Boundary runs twice per step and is
// reported as one phase.
const (
	PhaseBoundary   = "boundary"
	PhaseAdvect     = "advect"
	PhaseImpulse    = "impulse"
	PhaseDiffuse    = "diffuse"
	PhaseDivergence = "divergence"
	PhasePressure   = "pressure"
	PhaseGradient   = "gradient"
	PhaseDisplay    = "display"
)

var Phases = []string{
	PhaseBoundary, PhaseAdvect, PhaseImpulse, PhaseDiffuse,
	PhaseDivergence, PhasePressure, PhaseGradient, PhaseDisplay,
}

// stepTiming accumulates the device spans of one step until all of them
// have been resolved.
type stepTiming struct {
	step   uint64
	issued int
	timed  int
	closed bool
	total  time.Duration
	phases map[string]time.Duration
}

func (s *stepTiming) complete() bool { return s.closed && s.timed == s.issued }

// PerfCollector records how long the device spends on each solver phase,
// averaged over the last window of completed steps, and the host frame
// interval. Phase boundaries are marks on a gpu.Timer, so on an
// asynchronous device a step completes only when its results come back,
// typically a frame or two later.
type PerfCollector struct {
	timer  gpu.Timer
	window int

	step    uint64
	waiting []*stepTiming
	spans   []gpu.Span

	// Ring of completed steps.
	ring   []stepTiming
	next   int
	filled int

	now       func() time.Time
	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window completed steps. It times with a
// wall clock until UseTimer installs the device's timer.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		timer:  gpu.NewWallTimer(nil),
		window: window,
		ring:   make([]stepTiming, window),
		now:    time.Now,
	}
}

// UseTimer switches to t. Steps still waiting on the old timer are dropped.
func (p *PerfCollector) UseTimer(t gpu.Timer) {
	p.timer.Close()
	p.timer = t
	p.waiting = p.waiting[:0]
}

// BeginStep opens the timing record of a new step.
func (p *PerfCollector) BeginStep() {
	p.step++
	p.waiting = append(p.waiting, &stepTiming{step: p.step, phases: make(map[string]time.Duration)})
}

// Phase marks the start of phase within the current step.
func (p *PerfCollector) Phase(phase string) {
	if len(p.waiting) == 0 || p.waiting[len(p.waiting)-1].step != p.step {
		return
	}
	p.waiting[len(p.waiting)-1].issued++
	p.timer.Mark(p.step, phase)
}

// EndStep closes the current step and folds in every result the timer
// has ready.
func (p *PerfCollector) EndStep() {
	p.timer.Close()
	if n := len(p.waiting); n > 0 && p.waiting[n-1].step == p.step {
		p.waiting[n-1].closed = true
	}
	p.collect()
}

func (p *PerfCollector) collect() {
	p.spans = p.timer.Collect(p.spans[:0])
	for _, sp := range p.spans {
		for _, st := range p.waiting {
			if st.step == sp.Step {
				st.timed++
				st.total += sp.Elapsed
				st.phases[sp.Phase] += sp.Elapsed
				break
			}
		}
	}
	done := 0
	for done < len(p.waiting) && p.waiting[done].complete() {
		p.ring[p.next] = *p.waiting[done]
		p.next = (p.next + 1) % p.window
		p.filled = min(p.filled+1, p.window)
		done++
	}
	p.waiting = p.waiting[:copy(p.waiting, p.waiting[done:])]
}

// Waiting returns the number of closed or open steps whose device times
// have not all arrived.
func (p *PerfCollector) Waiting() int { return len(p.waiting) }

// RecordFrame marks a presented frame on the host clock.
func (p *PerfCollector) RecordFrame() {
	t := p.now()
	if !p.lastFrame.IsZero() {
		p.frame = t.Sub(p.lastFrame)
	}
	p.lastFrame = t
}

// PerfStats summarises the window of completed steps.
type PerfStats struct {
	Steps          int
	AvgStep        time.Duration
	MinStep        time.Duration
	MaxStep        time.Duration
	P90Step        time.Duration
	StepsPerSecond float64

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats aggregates the completed steps in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Steps:         p.filled,
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	totals := make([]float64, p.filled)
	sums := make(map[string]float64)
	for i := range totals {
		st := p.ring[i]
		totals[i] = float64(st.total)
		for phase, d := range st.phases {
			sums[phase] += float64(d)
		}
	}

	mean := stat.Mean(totals, nil)
	s.AvgStep = time.Duration(mean)
	s.MinStep = time.Duration(floats.Min(totals))
	s.MaxStep = time.Duration(floats.Max(totals))
	sort.Float64s(totals)
	s.P90Step = time.Duration(stat.Quantile(0.9, stat.Empirical, totals, nil))
	if mean > 0 {
		s.StepsPerSecond = float64(time.Second) / mean
	}

	n := float64(p.filled)
	for phase, sum := range sums {
		s.PhaseAvg[phase] = time.Duration(sum / n)
		if mean > 0 {
			s.PhasePct[phase] = sum / n / mean * 100
		}
	}
	return s
}

// LogStats logs the summary at info level.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer. Phases are listed in step order.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("steps", s.Steps),
		slog.Int64("avg_step_us", s.AvgStep.Microseconds()),
		slog.Int64("p90_step_us", s.P90Step.Microseconds()),
		slog.Int64("max_step_us", s.MaxStep.Microseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if d, ok := s.PhaseAvg[phase]; ok {
			attrs = append(attrs, slog.Int64(phase+"_us", d.Microseconds()))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row. Phase columns are average device
// microseconds per step.
type PerfStatsCSV struct {
	WindowEnd    int64   `csv:"window_end"`
	Steps        int     `csv:"steps"`
	AvgStepUS    int64   `csv:"avg_step_us"`
	MinStepUS    int64   `csv:"min_step_us"`
	MaxStepUS    int64   `csv:"max_step_us"`
	P90StepUS    int64   `csv:"p90_step_us"`
	FPS          float64 `csv:"fps"`
	BoundaryUS   int64   `csv:"boundary_us"`
	AdvectUS     int64   `csv:"advect_us"`
	ImpulseUS    int64   `csv:"impulse_us"`
	DiffuseUS    int64   `csv:"diffuse_us"`
	DivergenceUS int64   `csv:"divergence_us"`
	PressureUS   int64   `csv:"pressure_us"`
	GradientUS   int64   `csv:"gradient_us"`
	DisplayUS    int64   `csv:"display_us"`
}

// ToCSV flattens s into a row ending at frame windowEnd.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	us := func(phase string) int64 { return s.PhaseAvg[phase].Microseconds() }
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Steps:        s.Steps,
		AvgStepUS:    s.AvgStep.Microseconds(),
		MinStepUS:    s.MinStep.Microseconds(),
		MaxStepUS:    s.MaxStep.Microseconds(),
		P90StepUS:    s.P90Step.Microseconds(),
		FPS:          s.FPS,
		BoundaryUS:   us(PhaseBoundary),
		AdvectUS:     us(PhaseAdvect),
		ImpulseUS:    us(PhaseImpulse),
		DiffuseUS:    us(PhaseDiffuse),
		DivergenceUS: us(PhaseDivergence),
		PressureUS:   us(PhasePressure),
		GradientUS:   us(PhaseGradient),
		DisplayUS:    us(PhaseDisplay),
	}
}
