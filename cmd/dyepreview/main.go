// Dye preset preview tool - interactive view of the initial dye field with
// preset and seed controls.
//
// Usage: go run ./cmd/dyepreview
package main

import (
	"fmt"
	"image/color"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

const (
	windowWidth  = 900
	windowHeight = 560
	previewSize  = 512
	gridSize     = 256
	panelWidth   = windowWidth - previewSize - 30
)

var presets = []string{"blob", "noise", "none"}

func main() {
	config.MustInit("")
	cfg := config.Cfg()

	rl.InitWindow(windowWidth, windowHeight, "Dye Preset Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	preset := cfg.Dye.Preset
	seed := cfg.Dye.Seed

	img := rl.GenImageColor(gridSize, gridSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var mass, peak float64
	needsRegen := true

	for !rl.WindowShouldClose() {
		if needsRegen {
			data, err := sim.InitialDye(preset, gridSize, gridSize, seed)
			if err != nil {
				panic(err)
			}
			if data == nil {
				data = make([]float32, gridSize*gridSize*4)
			}
			mass, peak = telemetry.DyeMass(data)
			updateTexture(texture, data)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Field row 0 is the bottom of the display, so draw flipped.
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: gridSize, Height: -gridSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 20)
		rl.DrawText(fmt.Sprintf("Mass: %.1f  Peak: %.3f", mass, peak), 15, statsY, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Initial Dye", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for i, p := range presets {
			label := p
			if p == preset {
				label = "> " + p
			}
			if gui.Button(rl.Rectangle{X: panelX + float32(i)*115, Y: panelY, Width: 105, Height: 30}, label) && p != preset {
				preset = p
				needsRegen = true
			}
		}
		panelY += 50

		rl.DrawText("Seed (noise preset)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newSeed := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"0", "9999",
			float32(seed), 0, 9999,
		)
		rl.DrawText(fmt.Sprintf("%d", seed), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if int64(newSeed) != seed {
			seed = int64(newSeed)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			seed = int64(rl.GetRandomValue(0, 9999))
			needsRegen = true
		}
		panelY += 55

		yaml := fmt.Sprintf("dye:\n  preset: %s\n  seed: %d", preset, seed)
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		rl.DrawText(yaml, int32(panelX), int32(panelY), 14, rl.Gray)

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func updateTexture(texture rl.Texture2D, data []float32) {
	pixels := make([]color.RGBA, gridSize*gridSize)
	for i := range pixels {
		pixels[i] = color.RGBA{
			R: to8(data[i*4]),
			G: to8(data[i*4+1]),
			B: to8(data[i*4+2]),
			A: 255,
		}
	}
	rl.UpdateTexture(texture, pixels)
}

func to8(v float32) uint8 {
	return uint8(max(0, min(1, v)) * 255)
}
