package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.DiffusionIterations != 30 || cfg.Solver.PressureIterations != 40 {
		t.Errorf("iterations = %d/%d, want 30/40", cfg.Solver.DiffusionIterations, cfg.Solver.PressureIterations)
	}
	if cfg.Grid.SimWidth != 256 || cfg.Grid.SimHeight != 256 {
		t.Errorf("sim grid = %dx%d", cfg.Grid.SimWidth, cfg.Grid.SimHeight)
	}
	// Dye follows the screen when unset.
	if cfg.Derived.DyeWidth != cfg.Screen.Width || cfg.Derived.DyeHeight != cfg.Screen.Height {
		t.Errorf("derived dye = %dx%d", cfg.Derived.DyeWidth, cfg.Derived.DyeHeight)
	}
	if cfg.Derived.Background != [4]float32{0, 0, 0, 1} {
		t.Errorf("background = %v", cfg.Derived.Background)
	}
	if cfg.Derived.LifeInterval != 50*time.Millisecond {
		t.Errorf("life interval = %v", cfg.Derived.LifeInterval)
	}
	if cfg.Derived.SandRotation != 20*time.Second || cfg.Sand.Threshold != 4 {
		t.Errorf("sand rotation = %v threshold = %d", cfg.Derived.SandRotation, cfg.Sand.Threshold)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	overlay := "solver:\n  pressure_iterations: 80\ngrid:\n  dye_width: 128\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Solver.PressureIterations != 80 {
		t.Errorf("pressure iterations = %d, want 80", cfg.Solver.PressureIterations)
	}
	// Keys absent from the overlay keep their defaults.
	if cfg.Solver.DiffusionIterations != 30 {
		t.Errorf("diffusion iterations = %d, want 30", cfg.Solver.DiffusionIterations)
	}
	if cfg.Derived.DyeWidth != 128 {
		t.Errorf("dye width = %d, want 128", cfg.Derived.DyeWidth)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	os.WriteFile(path, []byte("device:\n  backend: vulkan\n"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestLoadRejectsFlatSandLight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	os.WriteFile(path, []byte("sand:\n  elevation_deg: 0\n"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for a light on the horizon")
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, _ := Load("")
	cfg.Dye.Preset = "noise"
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.Dye.Preset != "noise" {
		t.Errorf("preset = %q after round trip", back.Dye.Preset)
	}
}
