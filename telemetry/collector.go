package telemetry

import (
	"fmt"
	"time"

	"github.com/pthm-cable/fluid/field"
)

// Collector reads the fields back every interval frames and produces
// FieldStats. Readback stalls the GPU pipeline, so keep the interval
// coarse in graphical runs.
type Collector struct {
	interval int64
}

// NewCollector creates a collector sampling every interval frames.
func NewCollector(interval int) *Collector {
	if interval < 1 {
		interval = 1
	}
	return &Collector{interval: int64(interval)}
}

// Due reports whether frame should be measured.
func (c *Collector) Due(frame int64) bool {
	return frame%c.interval == 0
}

// Measure reads velocity and dye and summarises them.
func (c *Collector) Measure(frame int64, simTime time.Duration, velocity, dye *field.Field) (FieldStats, error) {
	vel, err := velocity.Pixels()
	if err != nil {
		return FieldStats{}, fmt.Errorf("reading velocity: %w", err)
	}
	rgba, err := dye.Pixels()
	if err != nil {
		return FieldStats{}, fmt.Errorf("reading dye: %w", err)
	}

	s := FieldStats{Frame: frame, SimTimeSec: simTime.Seconds()}
	s.DyeMass, s.DyeMax = DyeMass(rgba)
	s.SpeedMean, s.SpeedP50, s.SpeedP90, s.SpeedMax = ComputeSpeedStats(Speeds(vel))
	s.DivergenceL2, s.DivergenceMax = ComputeDivergenceStats(Divergence(vel, velocity.Width(), velocity.Height()))
	return s, nil
}
