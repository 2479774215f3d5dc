package app

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/sim"
)

// TuningPanel edits solver parameters while the simulation runs.
type TuningPanel struct {
	theme    Theme
	x, y     float32
	width    float32
	height   float32
	visible  bool
	defaults sim.Params
}

func NewTuningPanel(x, y float32, defaults sim.Params) *TuningPanel {
	return &TuningPanel{theme: DefaultTheme(), x: x, y: y, width: 300, height: 360, defaults: defaults}
}

// Toggle switches panel visibility.
func (p *TuningPanel) Toggle() bool {
	p.visible = !p.visible
	return p.visible
}

func (p *TuningPanel) IsVisible() bool { return p.visible }

// Contains reports whether the window pixel (x, y) is over the panel.
func (p *TuningPanel) Contains(x, y float32) bool {
	return p.visible && x >= p.x && x < p.x+p.width && y >= p.y && y < p.y+p.height
}

// Draw renders the sliders and returns the edited parameters. changed is
// true when any value moved this frame.
func (p *TuningPanel) Draw(params sim.Params) (out sim.Params, changed bool) {
	out = params
	if !p.visible {
		return out, false
	}

	t := p.theme
	t.drawPanel(int32(p.x), int32(p.y), int32(p.width), int32(p.height))

	x, y := p.x+float32(t.Padding), p.y+float32(t.Padding)
	rl.DrawText("Solver", int32(x), int32(y), t.HeaderFontSize, t.SectionHeader)
	y += 22

	slider := func(label, format string, value, lo, hi float32) float32 {
		rl.DrawText(label, int32(x), int32(y), t.FontSize, t.LabelColor)
		y += 14
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: p.width - 90, Height: 16}, "", "", value, lo, hi)
		rl.DrawText(fmt.Sprintf(format, v), int32(x+p.width-80), int32(y+2), t.FontSize, t.ValueColor)
		y += 26
		return v
	}

	out.Timestep = slider("Timestep", "%.2f", params.Timestep, 0.05, 2)
	out.Viscosity = slider("Viscosity", "%.3f", params.Viscosity, 0.001, 2)
	out.DiffusionIterations = int(slider("Diffusion iterations", "%.0f", float32(params.DiffusionIterations), 0, 80))
	out.PressureIterations = int(slider("Pressure iterations", "%.0f", float32(params.PressureIterations), 0, 120))
	out.PressureBoundaryInterval = int(slider("Pressure boundary every", "%.0f", float32(params.PressureBoundaryInterval), 1, 10))
	out.ImpulseRadius = slider("Impulse radius", "%.3f", params.ImpulseRadius, 0.005, 0.2)
	out.ImpulseScale = slider("Impulse scale", "%.1f", params.ImpulseScale, 0, 30)

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: 120, Height: 26}, "Reset") {
		out = p.defaults
	}
	if gui.Button(rl.Rectangle{X: x + 130, Y: y, Width: 120, Height: 26}, "Copy YAML") {
		if text, err := SolverYAML(out); err == nil {
			rl.SetClipboardText(text)
		}
	}

	return out, out != params
}

// SolverYAML renders params as the solver and impulse config sections.
func SolverYAML(p sim.Params) (string, error) {
	doc := struct {
		Solver  config.SolverConfig  `yaml:"solver"`
		Impulse config.ImpulseConfig `yaml:"impulse"`
	}{
		Solver: config.SolverConfig{
			Timestep:                 float64(p.Timestep),
			Viscosity:                float64(p.Viscosity),
			DiffusionIterations:      p.DiffusionIterations,
			PressureIterations:       p.PressureIterations,
			PressureBoundaryInterval: p.PressureBoundaryInterval,
		},
		Impulse: config.ImpulseConfig{
			Radius: float64(p.ImpulseRadius),
			Scale:  float64(p.ImpulseScale),
		},
	}
	b, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
