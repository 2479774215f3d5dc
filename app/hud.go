package app

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title  string
	Frame  uint64
	FPS    int32
	Status string
	// Fields is the latest diagnostics sample, if any.
	Fields *telemetry.FieldStats
}

// HUD renders the main heads-up display.
type HUD struct {
	theme Theme
}

func NewHUD() *HUD {
	return &HUD{theme: DefaultTheme()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Frame: %d | FPS: %d", data.Frame, data.FPS), 10, 35, 16, rl.LightGray)

	y := int32(55)
	if data.Fields != nil {
		f := data.Fields
		rl.DrawText(
			fmt.Sprintf("Dye: %.1f | Speed max: %.2f | Div L2: %.2e", f.DyeMass, f.SpeedMax, f.DivergenceL2),
			10, y, 16, rl.LightGray,
		)
		y += 20
	}
	if data.Status != "" {
		rl.DrawText(data.Status, 10, y, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders per-phase device timings.
type PerfPanel struct {
	theme Theme
	x, y  int32
	width int32
}

func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{theme: DefaultTheme(), x: x, y: y, width: 220}
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	t := p.theme
	height := t.LineHeight*int32(len(telemetry.Phases)+2) + t.Padding*2
	t.drawPanel(p.x, p.y, p.width, height)

	x, y := p.x+t.Padding, p.y+t.Padding
	rl.DrawText("Device Time per Step", x, y, t.HeaderFontSize, t.SectionHeader)
	y += t.LineHeight
	y = t.drawLabelValue(x, y, "Total", stats.AvgStep.Round(time.Microsecond).String(), rl.Yellow)

	for _, phase := range telemetry.Phases {
		pct := stats.PhasePct[phase]
		color := t.ValueColor
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		avg := stats.PhaseAvg[phase].Round(time.Microsecond)
		y = t.drawLabelValue(x, y, phase, fmt.Sprintf("%8s %5.1f%%", avg, pct), color)
	}
}
