package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// FieldStats summarises the simulation fields at one frame.
type FieldStats struct {
	Frame      int64   `csv:"frame"`
	SimTimeSec float64 `csv:"sim_time"`

	// Dye: sum of all RGB values, which advection should conserve.
	DyeMass float64 `csv:"dye_mass"`
	DyeMax  float64 `csv:"dye_max"`

	// Velocity magnitude in texels per step.
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Residual divergence after projection.
	DivergenceL2  float64 `csv:"divergence_l2"`
	DivergenceMax float64 `csv:"divergence_max"`
}

// DyeMass sums the RGB channels of an RGBA field and returns the largest
// channel value.
func DyeMass(rgba []float32) (mass, peak float64) {
	for i := 0; i+3 < len(rgba); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(rgba[i+c])
			mass += v
			if v > peak {
				peak = v
			}
		}
	}
	return mass, peak
}

// Speeds returns the per-texel magnitude of an RG velocity field.
func Speeds(rg []float32) []float64 {
	out := make([]float64, len(rg)/2)
	for i := range out {
		out[i] = math.Hypot(float64(rg[2*i]), float64(rg[2*i+1]))
	}
	return out
}

// Divergence returns the central-difference divergence of an RG velocity
// field of w×h texels, in the solver's units. Edge texels hold the
// boundary condition, not flow, and are left at zero.
func Divergence(rg []float32, w, h int) []float64 {
	at := func(x, y, c int) float64 {
		return float64(rg[(y*w+x)*2+c])
	}
	tx, ty := 1/float64(w), 1/float64(h)
	out := make([]float64, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			du := at(x+1, y, 0) - at(x-1, y, 0)
			dv := at(x, y+1, 1) - at(x, y-1, 1)
			out[y*w+x] = (du*tx + dv*ty) * 0.5
		}
	}
	return out
}

// ComputeSpeedStats calculates mean and percentiles from speed values.
func ComputeSpeedStats(values []float64) (mean, p50, p90, peak float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	peak = sorted[len(sorted)-1]
	return mean, p50, p90, peak
}

// ComputeDivergenceStats returns the L2 norm and largest magnitude.
func ComputeDivergenceStats(div []float64) (l2, peak float64) {
	if len(div) == 0 {
		return 0, 0
	}
	l2 = floats.Norm(div, 2)
	peak = math.Max(math.Abs(floats.Max(div)), math.Abs(floats.Min(div)))
	return l2, peak
}

// LogValue implements slog.LogValuer for structured logging.
func (s FieldStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("frame", s.Frame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Float64("dye_mass", s.DyeMass),
		slog.Float64("dye_max", s.DyeMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("divergence_l2", s.DivergenceL2),
		slog.Float64("divergence_max", s.DivergenceMax),
	)
}

// LogStats logs the field stats using slog.
func (s FieldStats) LogStats() {
	slog.Info("fields", "stats", s)
}
