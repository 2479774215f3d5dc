// Package main tunes the solver's iteration counts on the CPU device.
//
// The grid method sweeps pressure iteration counts with everything else
// fixed; the cmaes method searches all iteration counts at once with
// CMA-ES. Both write one CSV row per evaluated parameter set.
//
// Usage: go run ./cmd/sweep -method grid -iterations 10,20,40,80 -output out/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/sim"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	method := flag.String("method", "grid", "Search method: grid or cmaes")
	iterations := flag.String("iterations", "10,20,40,80", "Pressure iteration counts for the grid method")
	frames := flag.Int("frames", 60, "Frames simulated per evaluation")
	gridSize := flag.Int("grid", 64, "Simulation and dye resolution")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 60, "Maximum number of evaluations (cmaes)")
	costWeight := flag.Float64("cost-weight", 0.5, "Fitness penalty per 100 Jacobi iterations")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	base := sim.ParamsFromConfig(config.Cfg())

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewEvaluator(*gridSize, *frames, evalSeeds, *costWeight)
	params := NewParamVector(base)

	var results []RunResult
	var err error
	switch *method {
	case "grid":
		counts, perr := parseCounts(*iterations)
		if perr != nil {
			log.Fatalf("bad -iterations: %v", perr)
		}
		results, err = runGrid(evaluator, base, counts)
	case "cmaes":
		results, err = runCMAES(evaluator, params, base, *maxEvals)
	default:
		log.Fatalf("unknown method %q", *method)
	}
	if err != nil {
		log.Printf("search ended: %v", err)
	}
	if len(results) == 0 {
		log.Fatal("no evaluations completed")
	}

	resultsPath := filepath.Join(*outputDir, "sweep.csv")
	f, err := os.Create(resultsPath)
	if err != nil {
		log.Fatalf("failed to create results file: %v", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&results, f); err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	fmt.Printf("\nResults saved to: %s\n", resultsPath)

	best := results[0]
	for _, r := range results[1:] {
		if r.Fitness < best.Fitness {
			best = r
		}
	}
	fmt.Printf("Best: pressure=%d diffusion=%d boundary_interval=%d divergence_l2=%.3e step=%.0fus\n",
		best.PressureIterations, best.DiffusionIterations, best.PressureBoundaryInterval, best.DivergenceL2, best.StepUS)

	bestCfg, _ := config.Load(*configPath)
	params.ApplyToConfig(bestCfg, []float64{
		float64(best.PressureIterations),
		float64(best.DiffusionIterations),
		float64(best.PressureBoundaryInterval),
	})
	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("Best config saved to: %s\n", configOutPath)
	}
}

func parseCounts(s string) ([]int, error) {
	var counts []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("negative count %d", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func runGrid(e *Evaluator, base sim.Params, counts []int) ([]RunResult, error) {
	var results []RunResult
	start := time.Now()
	for i, n := range counts {
		p := base
		p.PressureIterations = n
		r, err := e.Evaluate(p)
		if err != nil {
			return results, err
		}
		results = append(results, r)
		fmt.Printf("Eval %d/%d: pressure=%d divergence_l2=%.3e step=%.0fus | elapsed: %s\n",
			i+1, len(counts), n, r.DivergenceL2, r.StepUS, formatDuration(time.Since(start)))
	}
	return results, nil
}

func runCMAES(e *Evaluator, params *ParamVector, base sim.Params, maxEvals int) ([]RunResult, error) {
	var results []RunResult
	var evalErr error
	start := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			p := params.Apply(base, params.Denormalize(x))
			r, err := e.Evaluate(p)
			if err != nil {
				evalErr = err
				return 1e9
			}
			results = append(results, r)

			elapsed := time.Since(start)
			remaining := time.Duration(maxEvals-len(results)) * (elapsed / time.Duration(len(results)))
			fmt.Printf("Eval %d/%d: pressure=%d diffusion=%d interval=%d fitness=%.3f | elapsed: %s, ETA: %s\n",
				len(results), maxEvals, p.PressureIterations, p.DiffusionIterations, p.PressureBoundaryInterval,
				r.Fitness, formatDuration(elapsed), formatDuration(remaining))
			return r.Fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   4 + params.Dim()*3/2,
	}

	fmt.Printf("Starting CMA-ES with %d parameters, max_evals=%d\n", params.Dim(), maxEvals)
	_, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if evalErr != nil {
		return results, evalErr
	}
	return results, err
}
