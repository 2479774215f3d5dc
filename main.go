package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/app"
	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/life"
	"github.com/pthm-cable/fluid/sand"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

func init() {
	// GL calls must come from the thread that created the context.
	runtime.LockOSThread()
}

// demo is a running simulation plus the fields telemetry reads.
type demo struct {
	stepper  sim.Stepper
	release  func()
	velocity func() *field.Field
	dye      func() *field.Field
	loop     *sim.Loop
	pile     *sand.Game
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run on the CPU device without a window")
	demoName := flag.String("demo", "fluid", "Simulation to run: fluid, life or sand")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "Dye and board seed (0 = config value)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited, headless defaults to 120)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *seed != 0 {
		cfg.Dye.Seed = *seed
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	monitor := telemetry.NewMonitor(perf, telemetry.NewCollector(cfg.Telemetry.DiagnosticsInterval), output, *logStats, cfg.Telemetry.LogInterval)

	if *headless || cfg.Device.Backend == "soft" {
		frames := *maxFrames
		if frames == 0 {
			frames = 120
		}
		if err := runHeadless(cfg, *demoName, frames, perf, monitor); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := runWindow(cfg, *demoName, uint64(*maxFrames), perf, monitor); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func runHeadless(cfg *config.Config, name string, maxFrames int, perf *telemetry.PerfCollector, monitor *telemetry.Monitor) error {
	dev := soft.NewDevice(cfg.Screen.Width, cfg.Screen.Height)
	d, err := newDemo(dev, cfg, name, perf)
	if err != nil {
		return err
	}
	defer d.release()

	interval := time.Second / time.Duration(max(cfg.Screen.TargetFPS, 1))
	sched := sim.NewManualScheduler(interval)
	driver := sim.NewDriver(d.stepper, sched, input.NewOrbit())
	driver.AfterStep(func(f sim.Frame) {
		monitor.Observe(int64(f.Index), f.Time, d.velocity(), d.dye())
	})

	slog.Info("starting headless simulation",
		"demo", name,
		"max_frames", maxFrames,
		"display", fmt.Sprintf("%dx%d", cfg.Screen.Width, cfg.Screen.Height),
	)
	start := time.Now()
	driver.Start()
	n := sched.Run(maxFrames)
	slog.Info("headless simulation finished", "frames", n, "elapsed", time.Since(start).String())
	return driver.Err()
}

func runWindow(cfg *config.Config, name string, maxFrames uint64, perf *telemetry.PerfCollector, monitor *telemetry.Monitor) error {
	win, err := app.Open(app.Options{
		Title:     cfg.Screen.Title,
		Width:     cfg.Screen.Width,
		Height:    cfg.Screen.Height,
		TargetFPS: cfg.Screen.TargetFPS,
	})
	if err != nil {
		return err
	}
	defer win.Close()

	d, err := newDemo(win.Device(), cfg, name, perf)
	if err != nil {
		return err
	}
	defer d.release()

	hud := app.NewHUD()
	_, screenH := win.Size()
	perfPanel := app.NewPerfPanel(10, 100)
	showPerf := false

	var panel *app.TuningPanel
	if d.loop != nil {
		panel = app.NewTuningPanel(float32(cfg.Screen.Width)-320, 10, sim.ParamsFromConfig(cfg))
		win.Mouse().Block(panel.Contains)
	}

	driver := sim.NewDriver(d.stepper, win.Scheduler(), win.Mouse())
	driver.AfterStep(func(f sim.Frame) {
		monitor.Observe(int64(f.Index), f.Time, d.velocity(), d.dye())
	})
	driver.Start()

	win.Run(maxFrames, func() {
		if rl.IsKeyPressed(rl.KeyP) {
			showPerf = !showPerf
		}
		if rl.IsKeyPressed(rl.KeySpace) {
			if driver.Running() {
				driver.Stop()
			} else {
				driver.Start()
			}
		}
		if d.pile != nil && rl.IsKeyPressed(rl.KeyL) {
			d.pile.Toggle()
		}
		if panel != nil && rl.IsKeyPressed(rl.KeyTab) {
			panel.Toggle()
		}

		status := ""
		if !driver.Running() {
			status = "PAUSED"
			if driver.Err() != nil {
				status = "STOPPED: " + driver.Err().Error()
			}
		} else if d.pile != nil && !d.pile.Rotating() {
			status = "LIGHT STOPPED"
		}
		hud.Draw(app.HUDData{
			Title:  cfg.Screen.Title,
			Frame:  driver.Frames(),
			FPS:    rl.GetFPS(),
			Status: status,
			Fields: monitor.Latest(),
		})
		if showPerf {
			perfPanel.Draw(monitor.Perf())
		}
		if panel != nil {
			if p, changed := panel.Draw(d.loop.Params()); changed {
				if err := d.loop.SetParams(p); err != nil {
					slog.Warn("rejected solver parameters", "error", err)
				}
			}
		}
		controls := "[Space] pause  [Tab] solver panel  [P] perf  [Esc] quit"
		if d.pile != nil {
			controls = "[Space] pause  [L] start/stop light  [P] perf  [Esc] quit"
		}
		hud.DrawControls(screenH, controls)
	})
	return driver.Err()
}

func newDemo(dev gpu.Device, cfg *config.Config, name string, perf *telemetry.PerfCollector) (*demo, error) {
	bg := cfg.Derived.Background
	background := gpu.Color{R: bg[0], G: bg[1], B: bg[2], A: bg[3]}
	none := func() *field.Field { return nil }

	switch name {
	case "fluid":
		loop, err := sim.NewLoop(dev, sim.ParamsFromConfig(cfg), background)
		if err != nil {
			return nil, err
		}
		loop.SetPerf(perf)
		dye, err := sim.InitialDye(cfg.Dye.Preset, cfg.Derived.DyeWidth, cfg.Derived.DyeHeight, cfg.Dye.Seed)
		if err != nil {
			loop.Release()
			return nil, err
		}
		st, err := sim.NewState(dev, sim.Grid{
			SimWidth:  cfg.Grid.SimWidth,
			SimHeight: cfg.Grid.SimHeight,
			DyeWidth:  cfg.Derived.DyeWidth,
			DyeHeight: cfg.Derived.DyeHeight,
		}, dye)
		if err != nil {
			loop.Release()
			return nil, err
		}
		s := &sim.Simulation{Loop: loop, State: st}
		return &demo{
			stepper:  s,
			release:  s.Release,
			velocity: func() *field.Field { return st.Velocity.Read() },
			dye:      func() *field.Field { return st.Dye.Read() },
			loop:     loop,
		}, nil

	case "life":
		w, h := cfg.Life.Width, cfg.Life.Height
		cells := life.Glider(w, h)
		if cfg.Life.Density > 0 {
			cells = life.Random(w, h, cfg.Life.Density, cfg.Dye.Seed)
		}
		g, err := life.New(dev, life.Options{
			Width:       w,
			Height:      h,
			Interval:    cfg.Derived.LifeInterval,
			StampRadius: float32(cfg.Life.StampRadius),
			Background:  background,
		}, cells)
		if err != nil {
			return nil, err
		}
		return &demo{stepper: g, release: g.Release, velocity: none, dye: none}, nil

	case "sand":
		w, h := cfg.Sand.Width, cfg.Sand.Height
		g, err := sand.New(dev, sand.Options{
			Width:             w,
			Height:            h,
			Threshold:         cfg.Sand.Threshold,
			DropAmount:        cfg.Sand.DropAmount,
			Elevation:         cfg.Sand.ElevationDeg * math.Pi / 180,
			HeightScale:       cfg.Sand.HeightScale,
			RotationPeriod:    cfg.Derived.SandRotation,
			AvalanchesPerStep: cfg.Sand.AvalanchesPerStep,
			Background:        background,
		}, sand.Pile(w, h, sand.MaxGrains/4))
		if err != nil {
			return nil, err
		}
		return &demo{stepper: g, release: g.Release, velocity: none, dye: none, pile: g}, nil
	}
	return nil, fmt.Errorf("unknown demo %q", name)
}
