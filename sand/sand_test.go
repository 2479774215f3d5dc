package sand

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/sim"
)

func testOptions(w, h int) Options {
	return Options{
		Width:             w,
		Height:            h,
		Threshold:         4,
		DropAmount:        20,
		Elevation:         math.Pi / 6,
		HeightScale:       1,
		RotationPeriod:    4 * time.Second,
		AvalanchesPerStep: 0,
	}
}

func newTestGame(t *testing.T, opts Options, heights []float32) (*soft.Device, *Game) {
	t.Helper()
	dev := soft.NewDevice(opts.Width, opts.Height)
	g, err := New(dev, opts, heights)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Release)
	return dev, g
}

func heights(t *testing.T, g *Game) []int {
	t.Helper()
	h, err := g.Heights()
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func stable(h []int, w, threshold int) bool {
	for i, v := range h {
		x := i % w
		if x+1 < w && abs(v-h[i+1]) > threshold {
			return false
		}
		if i+w < len(h) && abs(v-h[i+w]) > threshold {
			return false
		}
	}
	return true
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestClickDropsGrains(t *testing.T) {
	const w, h = 8, 8
	_, g := newTestGame(t, testOptions(w, h), Flat(w, h))

	g.Step(sim.Frame{}, input.Sample{X: 0.3, Y: 0.6, Valid: true})
	if n := Total(heights(t, g)); n != 0 {
		t.Fatalf("grains before click = %d", n)
	}

	g.Step(sim.Frame{Index: 1}, input.Sample{X: 0.3, Y: 0.6, Valid: true, Clicks: 1})
	got := heights(t, g)
	if got[4*w+2] != 20 || Total(got) != 20 {
		t.Errorf("cell (2,4) = %d, total %d, want 20 and 20", got[4*w+2], Total(got))
	}

	// Same click count: nothing more falls.
	g.Step(sim.Frame{Index: 2}, input.Sample{X: 0.3, Y: 0.6, Valid: true, Clicks: 1})
	if n := Total(heights(t, g)); n != 20 {
		t.Errorf("grains after repeated sample = %d, want 20", n)
	}
}

func TestDropSaturatesAtMaxGrains(t *testing.T) {
	const w, h = 4, 4
	start := Flat(w, h)
	start[0] = 250
	_, g := newTestGame(t, testOptions(w, h), start)

	g.Step(sim.Frame{}, input.Sample{X: 0.1, Y: 0.1, Valid: true, Clicks: 1})
	if got := heights(t, g)[0]; got != MaxGrains {
		t.Errorf("cell (0,0) = %d, want %d", got, MaxGrains)
	}
}

func TestAvalanchesConserveGrainsUntilStable(t *testing.T) {
	const w, h = 9, 9
	opts := testOptions(w, h)
	opts.AvalanchesPerStep = 1
	start := Flat(w, h)
	start[4*w+4] = 120
	_, g := newTestGame(t, opts, start)

	var got []int
	for i := 0; i < 5000; i++ {
		g.Step(sim.Frame{Index: uint64(i)}, input.Sample{})
		got = heights(t, g)
		if n := Total(got); n != 120 {
			t.Fatalf("pass %d: %d grains, want 120", i, n)
		}
		if stable(got, w, opts.Threshold) {
			break
		}
	}
	if !stable(got, w, opts.Threshold) {
		t.Fatal("pile never settled")
	}
	if got[4*w+4] >= 120 {
		t.Errorf("peak = %d, want it to have slid", got[4*w+4])
	}
}

func TestLightRotatesUntilToggled(t *testing.T) {
	_, g := newTestGame(t, testOptions(4, 4), Flat(4, 4))
	const eps = 1e-9

	g.Step(sim.Frame{Time: 0}, input.Sample{})
	g.Step(sim.Frame{Time: time.Second}, input.Sample{})
	if a := g.LightAngle(); math.Abs(a-math.Pi/2) > eps {
		t.Fatalf("angle after a quarter period = %v, want pi/2", a)
	}
	if l := g.Light(); math.Abs(float64(l.X)) > 1e-6 || math.Abs(float64(l.Y)-1) > 1e-6 {
		t.Errorf("light = %+v, want (0,1)", l)
	}

	g.Toggle()
	if g.Rotating() {
		t.Fatal("toggle did not stop the light")
	}
	g.Step(sim.Frame{Time: 2 * time.Second}, input.Sample{})
	if a := g.LightAngle(); math.Abs(a-math.Pi/2) > eps {
		t.Errorf("stopped light moved to %v", a)
	}

	// Restarting resumes from where the light stopped.
	g.Toggle()
	g.Step(sim.Frame{Time: 3 * time.Second}, input.Sample{})
	if a := g.LightAngle(); math.Abs(a-math.Pi) > eps {
		t.Errorf("angle after restart = %v, want pi", a)
	}
	g.Step(sim.Frame{Time: 5 * time.Second}, input.Sample{})
	if a := g.LightAngle(); math.Abs(a) > eps {
		t.Errorf("angle after a full turn = %v, want 0", a)
	}
}

func TestStepPresentsShadedPile(t *testing.T) {
	const w, h = 8, 8
	opts := testOptions(w, h)
	opts.AvalanchesPerStep = 2
	opts.Threshold = MaxGrains
	start := Flat(w, h)
	start[1*w+1] = 100
	dev, g := newTestGame(t, opts, start)

	dev.ResetStats()
	g.Step(sim.Frame{}, input.Sample{})
	s := dev.Stats()
	if s.Draws != 3 || s.Frames != 1 {
		t.Errorf("draws = %d frames = %d, want 3 and 1", s.Draws, s.Frames)
	}

	px, err := dev.ReadTexture(gpu.Display)
	if err != nil {
		t.Fatal(err)
	}
	red := func(x, y int) float32 { return px[(y*w+x)*4] }

	// The light starts along +x, so the column shades the cell on its -x side.
	sand, lee, lit := red(1, 1), red(0, 1), red(2, 1)
	if sand <= lit {
		t.Errorf("sand %v not brighter than ground %v", sand, lit)
	}
	if lee >= lit*0.8 {
		t.Errorf("lee cell %v not shadowed (lit ground %v)", lee, lit)
	}
	if far := red(6, 6); math.Abs(float64(far-lit)) > 0.01 {
		t.Errorf("open ground %v differs from lit ground %v", far, lit)
	}
}

func TestNewRejectsBadSetup(t *testing.T) {
	dev := soft.NewDevice(4, 4)

	opts := testOptions(4, 4)
	opts.Threshold = 2
	if _, err := New(dev, opts, Flat(4, 4)); err == nil {
		t.Error("threshold 2 accepted")
	}
	if _, err := New(dev, testOptions(4, 4), make([]float32, 3)); err == nil {
		t.Error("short height field accepted")
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("%d textures leaked", dev.LiveTextures())
	}
}

func TestPileIsAConeAtTheCentre(t *testing.T) {
	p := Pile(9, 9, 5)
	if p[4*9+4] != 5 {
		t.Errorf("peak = %v, want 5", p[4*9+4])
	}
	if p[4*9+6] != 3 {
		t.Errorf("two texels out = %v, want 3", p[4*9+6])
	}
	if p[0] != 0 {
		t.Errorf("corner = %v, want 0", p[0])
	}
}
