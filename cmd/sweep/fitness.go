package main

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

// Evaluator runs headless simulations on the soft device and scores the
// solver parameters by residual divergence and iteration cost.
type Evaluator struct {
	gridSize int
	frames   int
	seeds    []int64
	// costWeight is the fitness penalty per 100 Jacobi iterations.
	costWeight float64
}

func NewEvaluator(gridSize, frames int, seeds []int64, costWeight float64) *Evaluator {
	return &Evaluator{gridSize: gridSize, frames: frames, seeds: seeds, costWeight: costWeight}
}

// RunResult is the outcome of one parameter set across all seeds.
type RunResult struct {
	PressureIterations       int     `csv:"pressure_iterations"`
	DiffusionIterations      int     `csv:"diffusion_iterations"`
	PressureBoundaryInterval int     `csv:"pressure_boundary_interval"`
	DivergenceL2             float64 `csv:"divergence_l2"`
	DivergenceL2StdDev       float64 `csv:"divergence_l2_stddev"`
	DivergenceMax            float64 `csv:"divergence_max"`
	DyeMassDrift             float64 `csv:"dye_mass_drift"`
	StepUS                   float64 `csv:"step_us"`
	Fitness                  float64 `csv:"fitness"`
}

type seedResult struct {
	stats     telemetry.FieldStats
	startMass float64
	step      time.Duration
	err       error
}

// Evaluate runs every seed in parallel; each run owns its own device.
func (e *Evaluator) Evaluate(p sim.Params) (RunResult, error) {
	results := make([]seedResult, len(e.seeds))
	var wg sync.WaitGroup
	for i, seed := range e.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = e.run(p, s)
		}(i, seed)
	}
	wg.Wait()

	l2 := make([]float64, len(results))
	var divMax, drift, step float64
	for i, r := range results {
		if r.err != nil {
			return RunResult{}, fmt.Errorf("seed %d: %w", e.seeds[i], r.err)
		}
		l2[i] = r.stats.DivergenceL2
		divMax = math.Max(divMax, r.stats.DivergenceMax)
		if r.startMass > 0 {
			drift += math.Abs(r.stats.DyeMass-r.startMass) / r.startMass
		}
		step += float64(r.step.Microseconds())
	}
	n := float64(len(results))

	out := RunResult{
		PressureIterations:       p.PressureIterations,
		DiffusionIterations:      p.DiffusionIterations,
		PressureBoundaryInterval: p.PressureBoundaryInterval,
		DivergenceL2:             stat.Mean(l2, nil),
		DivergenceMax:            divMax,
		DyeMassDrift:             drift / n,
		StepUS:                   step / n,
	}
	if len(l2) > 1 {
		out.DivergenceL2StdDev = stat.StdDev(l2, nil)
	}
	out.Fitness = e.fitness(out)
	return out, nil
}

// fitness is lower for a smaller residual and fewer iterations.
func (e *Evaluator) fitness(r RunResult) float64 {
	iterations := float64(r.PressureIterations + r.DiffusionIterations)
	return math.Log10(r.DivergenceL2+1e-12) + e.costWeight*iterations/100
}

func (e *Evaluator) run(p sim.Params, seed int64) seedResult {
	size := e.gridSize
	dev := soft.NewDevice(size, size)
	loop, err := sim.NewLoop(dev, p, gpu.Color{A: 1})
	if err != nil {
		return seedResult{err: err}
	}
	defer loop.Release()

	dye := field.DyeNoise(size, size, seed)
	startMass, _ := telemetry.DyeMass(dye)
	st, err := sim.NewState(dev, sim.Grid{SimWidth: size, SimHeight: size, DyeWidth: size, DyeHeight: size}, dye)
	if err != nil {
		return seedResult{err: err}
	}
	defer st.Release()

	perf := telemetry.NewPerfCollector(e.frames)
	loop.SetPerf(perf)

	// Each seed stirs along its own path.
	orbit := &input.Orbit{
		Radius: 0.15 + 0.05*float64(seed%4),
		Period: time.Duration(1+seed%3) * time.Second,
	}
	sched := sim.NewManualScheduler(time.Second / 60)
	drv := sim.NewDriver(&sim.Simulation{Loop: loop, State: st}, sched, orbit)
	drv.Start()
	sched.Run(e.frames)
	drv.Stop()
	if err := drv.Err(); err != nil {
		return seedResult{err: err}
	}

	now := sched.Now()
	stats, err := telemetry.NewCollector(1).Measure(int64(now.Index), now.Time, st.Velocity.Read(), st.Dye.Read())
	return seedResult{
		stats:     stats,
		startMass: startMass,
		step:      perf.Stats().AvgStep,
		err:       err,
	}
}
