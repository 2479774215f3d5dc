package main

import (
	"math"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/sim"
)

// ParamSpec defines a single tunable solver parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the solver parameters the optimizer may move.
// Timestep and viscosity change the physics, not the solve quality, so
// they stay fixed.
func NewParamVector(base sim.Params) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "pressure_iterations", Path: "solver.pressure_iterations", Min: 4, Max: 120, Default: float64(base.PressureIterations)},
			{Name: "diffusion_iterations", Path: "solver.diffusion_iterations", Min: 0, Max: 60, Default: float64(base.DiffusionIterations)},
			{Name: "pressure_boundary_interval", Path: "solver.pressure_boundary_interval", Min: 1, Max: 8, Default: float64(base.PressureBoundaryInterval)},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value and rounds it to a whole number; all tunables
// are counts.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Round(math.Max(spec.Min, math.Min(spec.Max, v[i])))
	}
	return clamped
}

// Apply returns base with the clamped values substituted, in Specs order.
func (pv *ParamVector) Apply(base sim.Params, values []float64) sim.Params {
	c := pv.Clamp(values)
	base.PressureIterations = int(c[0])
	base.DiffusionIterations = int(c[1])
	base.PressureBoundaryInterval = int(c[2])
	return base
}

// ApplyToConfig writes the clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)
	cfg.Solver.PressureIterations = int(c[0])
	cfg.Solver.DiffusionIterations = int(c[1])
	cfg.Solver.PressureBoundaryInterval = int(c[2])
}
