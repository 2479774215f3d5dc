// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Device    DeviceConfig    `yaml:"device"`
	Grid      GridConfig      `yaml:"grid"`
	Solver    SolverConfig    `yaml:"solver"`
	Impulse   ImpulseConfig   `yaml:"impulse"`
	Dye       DyeConfig       `yaml:"dye"`
	Display   DisplayConfig   `yaml:"display"`
	Life      LifeConfig      `yaml:"life"`
	Sand      SandConfig      `yaml:"sand"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// DeviceConfig selects the graphics backend.
type DeviceConfig struct {
	Backend string `yaml:"backend"` // "opengl" or "soft"
}

// GridConfig holds field resolutions. Zero dye dimensions follow the screen.
type GridConfig struct {
	SimWidth  int `yaml:"sim_width"`
	SimHeight int `yaml:"sim_height"`
	DyeWidth  int `yaml:"dye_width"`
	DyeHeight int `yaml:"dye_height"`
}

// SolverConfig holds the numerical parameters of one simulation step.
type SolverConfig struct {
	Timestep                 float64 `yaml:"timestep"`
	Viscosity                float64 `yaml:"viscosity"`
	DiffusionIterations      int     `yaml:"diffusion_iterations"`
	PressureIterations       int     `yaml:"pressure_iterations"`
	PressureBoundaryInterval int     `yaml:"pressure_boundary_interval"` // Reapply pressure boundary every N Jacobi iterations
}

// ImpulseConfig holds pointer force parameters.
type ImpulseConfig struct {
	Radius float64 `yaml:"radius"` // Gaussian radius in normalised coordinates
	Scale  float64 `yaml:"scale"`
}

// DyeConfig selects the initial dye field.
type DyeConfig struct {
	Preset string `yaml:"preset"` // blob, noise, none
	Seed   int64  `yaml:"seed"`
}

// DisplayConfig holds compositing settings.
type DisplayConfig struct {
	Background []float64 `yaml:"background"` // RGBA clear colour
}

// LifeConfig holds the Game of Life demo parameters.
type LifeConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	IntervalMS  int     `yaml:"interval_ms"`
	StampRadius float64 `yaml:"stamp_radius"`
	Density     float64 `yaml:"density"` // Initial live fraction
}

// SandConfig holds the sand pile demo parameters.
type SandConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	Threshold         int     `yaml:"threshold"`   // Height step in grains before a grain slides
	DropAmount        int     `yaml:"drop_amount"` // Grains per click
	ElevationDeg      float64 `yaml:"elevation_deg"`
	HeightScale       float64 `yaml:"height_scale"` // Texels of height per grain
	RotationPeriodMS  int     `yaml:"rotation_period_ms"`
	AvalanchesPerStep int     `yaml:"avalanches_per_step"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow          int `yaml:"perf_window"`          // Frames averaged by the perf collector
	LogInterval         int `yaml:"log_interval"`         // Frames between perf log lines
	DiagnosticsInterval int `yaml:"diagnostics_interval"` // Frames between field diagnostics (readback)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DyeWidth     int           // Grid.DyeWidth, or Screen.Width when zero
	DyeHeight    int           // Grid.DyeHeight, or Screen.Height when zero
	Background   [4]float32    // Display.Background padded to RGBA
	LifeInterval time.Duration // Life.IntervalMS as a duration
	SandRotation time.Duration // Sand.RotationPeriodMS as a duration
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Device.Backend {
	case "opengl", "soft":
	default:
		return fmt.Errorf("device.backend: unknown backend %q", c.Device.Backend)
	}
	switch c.Dye.Preset {
	case "blob", "noise", "none":
	default:
		return fmt.Errorf("dye.preset: unknown preset %q", c.Dye.Preset)
	}
	if c.Grid.SimWidth <= 0 || c.Grid.SimHeight <= 0 {
		return fmt.Errorf("grid: simulation size %dx%d must be positive", c.Grid.SimWidth, c.Grid.SimHeight)
	}
	if c.Sand.Threshold < 3 {
		return fmt.Errorf("sand.threshold: %d, want at least 3", c.Sand.Threshold)
	}
	if c.Sand.ElevationDeg <= 0 || c.Sand.ElevationDeg >= 90 {
		return fmt.Errorf("sand.elevation_deg: %v outside (0, 90)", c.Sand.ElevationDeg)
	}
	if len(c.Display.Background) > 4 {
		return fmt.Errorf("display.background: %d components, want at most 4", len(c.Display.Background))
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// Dye resolution defaults to screen size if not specified
	c.Derived.DyeWidth = c.Grid.DyeWidth
	if c.Derived.DyeWidth == 0 {
		c.Derived.DyeWidth = c.Screen.Width
	}
	c.Derived.DyeHeight = c.Grid.DyeHeight
	if c.Derived.DyeHeight == 0 {
		c.Derived.DyeHeight = c.Screen.Height
	}

	c.Derived.Background = [4]float32{0, 0, 0, 1}
	for i, v := range c.Display.Background {
		c.Derived.Background[i] = float32(v)
	}

	c.Derived.LifeInterval = time.Duration(c.Life.IntervalMS) * time.Millisecond
	c.Derived.SandRotation = time.Duration(c.Sand.RotationPeriodMS) * time.Millisecond
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
