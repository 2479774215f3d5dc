// Field dump tool - runs the simulation headless on the CPU device and
// writes the dye, velocity and composited display to PNG files.
//
// Usage: go run ./cmd/fielddump -frames 120 -out dump
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/sim"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	frames := flag.Int("frames", 60, "Frames to simulate before dumping")
	outPrefix := flag.String("out", "fielddump", "Output path prefix")
	width := flag.Int("width", 256, "Display and dye width")
	height := flag.Int("height", 256, "Display and dye height")
	gain := flag.Float64("velocity-gain", 0.25, "Velocity to colour scale")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	dev := soft.NewDevice(*width, *height)
	loop, err := sim.NewLoop(dev, sim.ParamsFromConfig(cfg), gpu.Color{A: 1})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build solver: %v\n", err)
		os.Exit(1)
	}
	defer loop.Release()

	dye, err := sim.InitialDye(cfg.Dye.Preset, *width, *height, cfg.Dye.Seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	st, err := sim.NewState(dev, sim.Grid{
		SimWidth:  cfg.Grid.SimWidth,
		SimHeight: cfg.Grid.SimHeight,
		DyeWidth:  *width,
		DyeHeight: *height,
	}, dye)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to allocate fields: %v\n", err)
		os.Exit(1)
	}
	defer st.Release()

	sched := sim.NewManualScheduler(time.Second / 60)
	driver := sim.NewDriver(&sim.Simulation{Loop: loop, State: st}, sched, input.NewOrbit())
	driver.Start()
	n := sched.Run(*frames)
	if err := driver.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Simulation failed at frame %d: %v\n", n, err)
		os.Exit(1)
	}

	display, err := dev.ReadTexture(gpu.Display)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read display: %v\n", err)
		os.Exit(1)
	}

	dumps := []dump{{name: "display", img: rgbaImage(display, *width, *height)}}
	if px, err := st.Dye.Read().Pixels(); err != nil {
		dumps = append(dumps, dump{name: "dye", err: err})
	} else {
		dumps = append(dumps, dump{name: "dye", img: rgbaImage(px, *width, *height)})
	}
	img, err := velocityImage(st.Velocity.Read(), *gain)
	dumps = append(dumps, dump{name: "velocity", img: img, err: err})

	failed := false
	for _, d := range dumps {
		path := fmt.Sprintf("%s_%s.png", *outPrefix, d.name)
		if d.err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", d.name, d.err)
			failed = true
			continue
		}
		if !export(d.img, path) {
			fmt.Fprintf(os.Stderr, "Failed to export %s\n", path)
			failed = true
			continue
		}
		b := d.img.Bounds()
		fmt.Printf("%s rendered to: %s (%dx%d) after %d frames\n", d.name, path, b.Dx(), b.Dy(), n)
	}
	if failed {
		os.Exit(1)
	}
}

type dump struct {
	name string
	img  image.Image
	err  error
}

// export writes img as PNG through raylib, flipping it so row 0 of the
// field (the bottom of the display) ends up at the bottom of the file.
func export(img image.Image, path string) bool {
	rlImg := rl.NewImageFromImage(img)
	rl.ImageFlipVertical(rlImg)
	ok := rl.ExportImage(*rlImg, path)
	rl.UnloadImage(rlImg)
	return ok
}

func rgbaImage(px []float32, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			img.SetRGBA(x, y, color.RGBA{R: to8(px[i]), G: to8(px[i+1]), B: to8(px[i+2]), A: 255})
		}
	}
	return img
}

// velocityImage maps u to red and v to green around mid grey.
func velocityImage(f *field.Field, gain float64) (*image.RGBA, error) {
	px, err := f.Pixels()
	if err != nil {
		return nil, err
	}
	w, h := f.Width(), f.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 2
			u := 0.5 + gain*float64(px[i])
			v := 0.5 + gain*float64(px[i+1])
			img.SetRGBA(x, y, color.RGBA{R: to8(float32(u)), G: to8(float32(v)), B: 128, A: 255})
		}
	}
	return img, nil
}

func to8(v float32) uint8 {
	return uint8(math.Round(float64(max(0, min(1, v))) * 255))
}
