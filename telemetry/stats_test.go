package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
)

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	mean, p50, p90, peak := ComputeSpeedStats(values)

	if math.Abs(mean-5.5) > 0.001 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	if p50 != 5 {
		t.Errorf("p50 = %v, want 5", p50)
	}
	if p90 != 9 {
		t.Errorf("p90 = %v, want 9", p90)
	}
	if peak != 10 {
		t.Errorf("max = %v, want 10", peak)
	}
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, p50, p90, peak := ComputeSpeedStats(nil)
	if mean != 0 || p50 != 0 || p90 != 0 || peak != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestDivergenceOfUniformFlowIsZero(t *testing.T) {
	w, h := 8, 8
	rg := make([]float32, w*h*2)
	for i := 0; i < len(rg); i += 2 {
		rg[i], rg[i+1] = 3, -2
	}
	l2, peak := ComputeDivergenceStats(Divergence(rg, w, h))
	if l2 != 0 || peak != 0 {
		t.Errorf("divergence of uniform flow = %v / %v", l2, peak)
	}
}

func TestDivergenceOfLinearSource(t *testing.T) {
	// u = x: interior divergence is (2 * 1/w) / 2 = 1/w.
	w, h := 8, 8
	rg := make([]float32, w*h*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			rg[(y*w+x)*2] = float32(x)
		}
	}
	div := Divergence(rg, w, h)
	if got := div[3*w+4]; math.Abs(got-1.0/8) > 1e-9 {
		t.Errorf("interior divergence = %v, want 0.125", got)
	}
}

func TestDyeMassIgnoresAlpha(t *testing.T) {
	mass, peak := DyeMass([]float32{0.5, 0.25, 0, 1, 0, 0, 1, 1})
	if mass != 1.75 || peak != 1 {
		t.Errorf("mass %v peak %v, want 1.75 / 1", mass, peak)
	}
}

func TestCollectorMeasure(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	vel, _ := field.New(dev, gpu.TextureDesc{Width: 4, Height: 4, Format: gpu.FormatRG32F}, nil)
	dye, _ := field.New(dev, gpu.TextureDesc{Width: 4, Height: 4, Format: gpu.FormatRGBA32F}, field.DyeBlob(4, 4))

	c := NewCollector(10)
	if !c.Due(0) || c.Due(5) || !c.Due(20) {
		t.Error("unexpected Due schedule")
	}
	s, err := c.Measure(20, 2*time.Second, vel, dye)
	if err != nil {
		t.Fatal(err)
	}
	if s.Frame != 20 || s.SimTimeSec != 2 {
		t.Errorf("frame/time = %d/%v", s.Frame, s.SimTimeSec)
	}
	if s.DyeMass <= 0 || s.SpeedMax != 0 || s.DivergenceL2 != 0 {
		t.Errorf("stats = %+v", s)
	}
}
