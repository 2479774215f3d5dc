package app

import rl "github.com/gen2brain/raylib-go/raylib"

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.White,
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// drawPanel draws a panel background with border.
func (t Theme) drawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, t.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, t.PanelBorder)
}

// drawLabelValue draws a label and value on the same line and returns the
// next line's Y.
func (t Theme) drawLabelValue(x, y int32, label, value string, color rl.Color) int32 {
	rl.DrawText(label+":", x, y, t.FontSize, t.LabelColor)
	rl.DrawText(value, x+t.LabelWidth, y, t.FontSize, color)
	return y + t.LineHeight
}
