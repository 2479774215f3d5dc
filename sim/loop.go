// Package sim runs the fluid solver: a fixed sequence of full-screen passes
// over the fields of a State, advanced one step per frame by a Driver.
package sim

import (
	"fmt"
	"time"

	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/pass"
	"github.com/pthm-cable/fluid/telemetry"
)

// Frame identifies one scheduled frame. Time is measured from the start of
// the run.
type Frame struct {
	Index uint64
	Time  time.Duration
}

// Loop holds the compiled passes and parameters; it does not own any field.
type Loop struct {
	dev    gpu.Device
	comp   *pass.Compositor
	ps     *passes
	params Params
	perf   *telemetry.PerfCollector
}

// NewLoop compiles every solver program and validates it against its
// wrapper. Any failure aborts setup.
func NewLoop(dev gpu.Device, params Params, background gpu.Color) (*Loop, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver parameters: %w", err)
	}
	ps, err := compilePasses(dev)
	if err != nil {
		return nil, fmt.Errorf("building solver passes: %w", err)
	}
	return &Loop{
		dev:    dev,
		comp:   pass.NewCompositor(dev, background),
		ps:     ps,
		params: params,
	}, nil
}

// SetPerf attaches a collector that times each stage on the device's
// timer. nil disables timing.
func (l *Loop) SetPerf(p *telemetry.PerfCollector) {
	l.perf = p
	if p != nil {
		p.UseTimer(l.dev.Timer())
	}
}

func (l *Loop) Params() Params { return l.params }

// SetParams replaces the solver parameters from the next step on.
func (l *Loop) SetParams(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	l.params = p
	return nil
}

// Release deletes the compiled programs.
func (l *Loop) Release() { l.ps.release() }

// Step advances st by one frame and composites the dye to the display.
func (l *Loop) Step(st *State, frame Frame, in input.Sample) error {
	if l.perf != nil {
		l.perf.BeginStep()
		defer l.perf.EndStep()
	}

	l.phase(telemetry.PhaseBoundary)
	l.velocityBoundary(st)

	l.phase(telemetry.PhaseAdvect)
	l.advect(st)

	l.phase(telemetry.PhaseImpulse)
	l.impulse(st, in)

	l.phase(telemetry.PhaseDiffuse)
	if err := l.diffuse(st); err != nil {
		return err
	}

	l.phase(telemetry.PhaseDivergence)
	l.divergence(st)

	l.phase(telemetry.PhasePressure)
	if err := l.solvePressure(st); err != nil {
		return err
	}

	l.phase(telemetry.PhaseBoundary)
	l.velocityBoundary(st)

	l.phase(telemetry.PhaseGradient)
	l.subtractGradient(st)

	l.phase(telemetry.PhaseDisplay)
	l.present(st)

	st.lastFrame = frame.Time
	return nil
}

func (l *Loop) phase(name string) {
	if l.perf != nil {
		l.perf.Phase(name)
	}
}

// velocityBoundary applies the no-slip condition.
func (l *Loop) velocityBoundary(st *State) {
	l.ps.boundary.SetArguments(st.Velocity.Read(), st.Offsets, -1)
	l.comp.Blit(st.Velocity.Write())
	st.Velocity.Swap()
}

func (l *Loop) advect(st *State) {
	dt := l.params.Timestep

	l.ps.advect.SetArguments(st.Velocity.Read(), st.Velocity.Read(), dt)
	l.comp.Blit(st.Velocity.Write())
	st.Velocity.Swap()

	l.ps.advect.SetArguments(st.Dye.Read(), st.Velocity.Read(), dt)
	l.comp.Blit(st.Dye.Write())
	st.Dye.Swap()
}

// impulse injects pointer force when the pointer moved since the last
// accepted sample and the sample is not older than the last rendered
// frame. It reports whether velocity was written.
func (l *Loop) impulse(st *State, in input.Sample) bool {
	if !in.Valid || in.Time < st.lastFrame {
		return false
	}
	cur := gpu.Vec2{X: in.X, Y: in.Y}
	if !st.hasPointer {
		st.pointer, st.hasPointer = cur, true
		return false
	}
	prev := st.pointer
	st.pointer = cur
	if cur == prev {
		return false
	}

	// Pointer travel in uv, expressed in velocity texels per step.
	texel := st.Velocity.TexelSize()
	dir := gpu.Vec2{
		X: (cur.X - prev.X) / texel.X,
		Y: (cur.Y - prev.Y) / texel.Y,
	}
	l.ps.force.SetArguments(st.Velocity.Read(), cur, dir, l.params.ImpulseRadius, l.params.ImpulseScale)
	l.comp.Blit(st.Velocity.Write())
	st.Velocity.Swap()
	return true
}

// diffuse relaxes the viscous diffusion equation with velocity at the start
// of the stage as the fixed source.
func (l *Loop) diffuse(st *State) error {
	if err := st.Temp.CopyFrom(st.Velocity.Read()); err != nil {
		return fmt.Errorf("diffusion source: %w", err)
	}
	if err := st.Velocity.Read().CopyFrom(st.Zero); err != nil {
		return fmt.Errorf("clearing velocity: %w", err)
	}
	alpha, rBeta := l.params.diffusion(st.Velocity.TexelSize())
	for i := 0; i < l.params.DiffusionIterations; i++ {
		l.ps.jacobi.SetArguments(st.Temp, st.Velocity.Read(), alpha, rBeta)
		l.comp.Blit(st.Velocity.Write())
		st.Velocity.Swap()
	}
	return nil
}

// divergence writes the velocity divergence into Temp.
func (l *Loop) divergence(st *State) {
	l.ps.divergence.SetArguments(st.Velocity.Read())
	l.comp.Blit(st.Temp)
}

func (l *Loop) solvePressure(st *State) error {
	if err := st.Pressure.Read().CopyFrom(st.Zero); err != nil {
		return fmt.Errorf("clearing pressure: %w", err)
	}
	alpha, rBeta := l.params.pressure(st.Pressure.TexelSize())
	for i := 0; i < l.params.PressureIterations; i++ {
		if i%l.params.PressureBoundaryInterval == 0 {
			l.pressureBoundary(st)
		}
		l.ps.jacobi.SetArguments(st.Temp, st.Pressure.Read(), alpha, rBeta)
		l.comp.Blit(st.Pressure.Write())
		st.Pressure.Swap()
	}
	return nil
}

// pressureBoundary applies the Neumann condition.
func (l *Loop) pressureBoundary(st *State) {
	l.ps.boundary.SetArguments(st.Pressure.Read(), st.Offsets, 1)
	l.comp.Blit(st.Pressure.Write())
	st.Pressure.Swap()
}

func (l *Loop) subtractGradient(st *State) {
	l.ps.gradient.SetArguments(st.Velocity.Read(), st.Pressure.Read())
	l.comp.Blit(st.Velocity.Write())
	st.Velocity.Swap()
}

// present composites the dye onto the display and returns the device to
// the host renderer.
func (l *Loop) present(st *State) {
	l.ps.display.SetArguments(st.Dye.Read())
	l.comp.Blit(nil)
	l.dev.EndFrame()
}
