package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/gpu"
)

// Params are the tunable constants of one step.
type Params struct {
	Timestep  float32
	Viscosity float32

	DiffusionIterations int
	PressureIterations  int
	// PressureBoundaryInterval reapplies the pressure boundary before every
	// Nth pressure Jacobi iteration, starting with the first.
	PressureBoundaryInterval int

	ImpulseRadius float32 // normalised display units
	ImpulseScale  float32
}

// DefaultParams returns the solver constants the simulation ships with.
func DefaultParams() Params {
	return Params{
		Timestep:                 1,
		Viscosity:                0.5,
		DiffusionIterations:      30,
		PressureIterations:       40,
		PressureBoundaryInterval: 1,
		ImpulseRadius:            1.0 / 24,
		ImpulseScale:             7,
	}
}

// ParamsFromConfig reads solver and impulse settings.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		Timestep:                 float32(cfg.Solver.Timestep),
		Viscosity:                float32(cfg.Solver.Viscosity),
		DiffusionIterations:      cfg.Solver.DiffusionIterations,
		PressureIterations:       cfg.Solver.PressureIterations,
		PressureBoundaryInterval: cfg.Solver.PressureBoundaryInterval,
		ImpulseRadius:            float32(cfg.Impulse.Radius),
		ImpulseScale:             float32(cfg.Impulse.Scale),
	}
}

// Validate rejects parameters that would produce non-finite coefficients.
func (p Params) Validate() error {
	var errs []error
	if p.Timestep <= 0 {
		errs = append(errs, fmt.Errorf("timestep %v must be positive", p.Timestep))
	}
	if p.Viscosity <= 0 {
		errs = append(errs, fmt.Errorf("viscosity %v must be positive", p.Viscosity))
	}
	if p.DiffusionIterations < 0 || p.PressureIterations < 0 {
		errs = append(errs, fmt.Errorf("iteration counts %d/%d must not be negative", p.DiffusionIterations, p.PressureIterations))
	}
	if p.PressureBoundaryInterval < 1 {
		errs = append(errs, fmt.Errorf("pressure boundary interval %d must be at least 1", p.PressureBoundaryInterval))
	}
	if p.ImpulseRadius <= 0 {
		errs = append(errs, fmt.Errorf("impulse radius %v must be positive", p.ImpulseRadius))
	}
	return errors.Join(errs...)
}

// diffusion returns the Jacobi coefficients for the viscous diffusion
// solve: alpha = 1/(texel²·ν·dt), r_beta = 1/(alpha+4), per axis.
func (p Params) diffusion(texel gpu.Vec2) (alpha, rBeta gpu.Vec2) {
	alpha = gpu.Vec2{
		X: 1 / (texel.X * texel.X) / (p.Viscosity * p.Timestep),
		Y: 1 / (texel.Y * texel.Y) / (p.Viscosity * p.Timestep),
	}
	rBeta = gpu.Vec2{X: 1 / (alpha.X + 4), Y: 1 / (alpha.Y + 4)}
	return alpha, rBeta
}

// pressure returns the Jacobi coefficients for the pressure Poisson solve:
// alpha = -1/texel², r_beta = 1/4.
func (p Params) pressure(texel gpu.Vec2) (alpha, rBeta gpu.Vec2) {
	alpha = gpu.Vec2{X: -1 / (texel.X * texel.X), Y: -1 / (texel.Y * texel.Y)}
	return alpha, gpu.Vec2{X: 0.25, Y: 0.25}
}
