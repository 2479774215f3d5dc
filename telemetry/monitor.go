package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/fluid/field"
)

// Monitor runs the per-frame telemetry: frame timing, periodic perf
// logging, and field diagnostics written to the output directory.
type Monitor struct {
	perf        *PerfCollector
	collector   *Collector
	out         *OutputManager
	logStats    bool
	logInterval int64

	latest   *FieldStats
	readback time.Duration
}

// NewMonitor wires the collectors to out, which may be nil.
func NewMonitor(perf *PerfCollector, collector *Collector, out *OutputManager, logStats bool, logInterval int) *Monitor {
	return &Monitor{
		perf:        perf,
		collector:   collector,
		out:         out,
		logStats:    logStats,
		logInterval: int64(logInterval),
	}
}

// Observe is called after every step. velocity and dye may be nil when the
// running simulation has no such fields.
func (m *Monitor) Observe(frame int64, simTime time.Duration, velocity, dye *field.Field) {
	m.perf.RecordFrame()

	if m.logInterval > 0 && frame > 0 && frame%m.logInterval == 0 {
		stats := m.perf.Stats()
		if m.logStats {
			stats.LogStats()
		}
		if err := m.out.WritePerf(stats, frame); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	if velocity == nil || dye == nil || m.collector == nil || !m.collector.Due(frame) {
		return
	}
	start := time.Now()
	s, err := m.collector.Measure(frame, simTime, velocity, dye)
	m.readback = time.Since(start)
	if err != nil {
		slog.Error("field diagnostics failed", "frame", frame, "error", err)
		return
	}
	m.latest = &s
	if m.logStats {
		slog.Info("fields", "stats", s, "readback_us", m.readback.Microseconds())
	}
	if err := m.out.WriteFields(s); err != nil {
		slog.Error("failed to write fields", "error", err)
	}
}

// Latest returns the most recent field stats, or nil before the first.
func (m *Monitor) Latest() *FieldStats { return m.latest }

// Perf returns the current window of step timings.
func (m *Monitor) Perf() PerfStats { return m.perf.Stats() }
