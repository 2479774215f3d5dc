package life

import (
	"errors"
	"testing"
	"time"

	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/sim"
)

func newTestGame(t *testing.T, w, h int, cells []float32) (*soft.Device, *Game) {
	t.Helper()
	dev := soft.NewDevice(w, h)
	g, err := New(dev, Options{Width: w, Height: h, Interval: 50 * time.Millisecond, StampRadius: 0.1}, cells)
	if err != nil {
		t.Fatal(err)
	}
	return dev, g
}

func board(t *testing.T, g *Game) []float32 {
	t.Helper()
	px, err := g.Board().Pixels()
	if err != nil {
		t.Fatal(err)
	}
	return px
}

func population(cells []float32) int {
	n := 0
	for i := 0; i < len(cells); i += 4 {
		if cells[i] >= 0.5 {
			n++
		}
	}
	return n
}

func TestGliderTranslatesDiagonally(t *testing.T) {
	const w, h = 16, 16
	_, g := newTestGame(t, w, h, Glider(w, h))

	for i := 0; i < 4; i++ {
		ft := time.Duration(i) * 100 * time.Millisecond
		if err := g.Step(sim.Frame{Index: uint64(i), Time: ft}, input.Sample{}); err != nil {
			t.Fatal(err)
		}
	}
	if g.Generations() != 4 {
		t.Fatalf("generations = %d, want 4", g.Generations())
	}

	want := Glider(w, h)
	got := board(t, g)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			expect := Alive(want, w, (x-1+w)%w, (y-1+h)%h)
			if Alive(got, w, x, y) != expect {
				t.Fatalf("cell (%d,%d) alive = %v, want %v", x, y, !expect, expect)
			}
		}
	}
}

func TestGlidersWrapAroundTheBoard(t *testing.T) {
	const w, h = 8, 8
	_, g := newTestGame(t, w, h, Glider(w, h))
	for i := 0; i < 4*w; i++ {
		g.Step(sim.Frame{Index: uint64(i), Time: time.Duration(i) * time.Second}, input.Sample{})
	}
	got, want := board(t, g), Glider(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if Alive(got, w, x, y) != Alive(want, w, x, y) {
				t.Fatalf("glider did not return home at (%d,%d)", x, y)
			}
		}
	}
}

func TestIntervalGatesGenerations(t *testing.T) {
	_, g := newTestGame(t, 8, 8, Glider(8, 8))
	for _, ms := range []int{0, 10, 40, 50, 51, 80, 102} {
		g.Step(sim.Frame{Time: time.Duration(ms) * time.Millisecond}, input.Sample{})
	}
	// Generations at 0, 51 and 102.
	if g.Generations() != 3 {
		t.Errorf("generations = %d, want 3", g.Generations())
	}
}

func TestClickSeedsCells(t *testing.T) {
	const w, h = 16, 16
	_, g := newTestGame(t, w, h, Empty(w, h))

	g.Step(sim.Frame{}, input.Sample{X: 0.5, Y: 0.5, Valid: true})
	if n := population(board(t, g)); n != 0 {
		t.Fatalf("population before click = %d", n)
	}

	// The stamp lands first; the generation that follows it in the same
	// frame must leave a live pattern behind.
	g.Step(sim.Frame{Time: time.Second}, input.Sample{X: 0.5, Y: 0.5, Valid: true, Clicks: 1})
	if n := population(board(t, g)); n == 0 {
		t.Error("click did not seed any cells")
	}
	before := g.Generations()

	// Same click count: no new stamp, and the board just evolves.
	g.Step(sim.Frame{Time: time.Second + 10*time.Millisecond}, input.Sample{X: 0.1, Y: 0.1, Valid: true, Clicks: 1})
	if g.Generations() != before {
		t.Error("generation ran inside the interval")
	}
}

func TestStepPresentsToDisplay(t *testing.T) {
	dev, g := newTestGame(t, 8, 8, Glider(8, 8))
	dev.ResetStats()
	g.Step(sim.Frame{}, input.Sample{})

	s := dev.Stats()
	if s.Draws != 2 || s.Frames != 1 {
		t.Errorf("draws = %d frames = %d, want 2 and 1", s.Draws, s.Frames)
	}
	px, err := dev.ReadTexture(gpu.Display)
	if err != nil {
		t.Fatal(err)
	}
	if population(px) != 5 {
		t.Errorf("displayed population = %d, want 5", population(px))
	}
}

func TestNewRejectsBadBoard(t *testing.T) {
	dev := soft.NewDevice(4, 4)
	_, err := New(dev, Options{Width: 4, Height: 4}, make([]float32, 3))
	if !errors.Is(err, gpu.ErrSetupFailure) {
		t.Fatalf("err = %v, want ErrSetupFailure", err)
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("%d textures leaked", dev.LiveTextures())
	}
}

func TestRandomDensity(t *testing.T) {
	cells := Random(64, 64, 0.3, 7)
	n := population(cells)
	if n < 1000 || n > 1500 {
		t.Errorf("population = %d, want about 1229", n)
	}
	if population(Random(64, 64, 0, 7)) != 0 {
		t.Error("zero density produced live cells")
	}
}
