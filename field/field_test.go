package field

import (
	"errors"
	"math"
	"testing"

	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/gpu/soft"
)

func rg(w, h int) gpu.TextureDesc {
	return gpu.TextureDesc{Width: w, Height: h, Format: gpu.FormatRG32F}
}

func TestNewComputesTexelSize(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	f, err := New(dev, rg(64, 32), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ts := f.TexelSize(); ts.X != 1.0/64 || ts.Y != 1.0/32 {
		t.Errorf("TexelSize = %+v", ts)
	}
}

func TestNewRejectsWrongDataLength(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	_, err := New(dev, rg(4, 4), make([]float32, 16))
	if !errors.Is(err, gpu.ErrSetupFailure) {
		t.Errorf("err = %v, want ErrSetupFailure", err)
	}
}

func TestCopyFromMismatches(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	dst, _ := New(dev, rg(4, 4), nil)
	small, _ := New(dev, rg(2, 4), nil)
	rgba, _ := New(dev, gpu.TextureDesc{Width: 4, Height: 4, Format: gpu.FormatRGBA32F}, nil)

	err := dst.CopyFrom(small)
	if !errors.Is(err, ErrSizeMismatch) || !errors.Is(err, ErrArgumentMismatch) {
		t.Errorf("size: err = %v", err)
	}
	if errors.Is(err, ErrFormatMismatch) {
		t.Errorf("size mismatch also reported as format mismatch")
	}

	err = dst.CopyFrom(rgba)
	if !errors.Is(err, ErrFormatMismatch) || !errors.Is(err, ErrArgumentMismatch) {
		t.Errorf("format: err = %v", err)
	}
}

func TestCopyFromIsBitIdentical(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	data := make([]float32, 8*8*2)
	for i := range data {
		data[i] = float32(math.Sin(float64(i))) * 1e3
	}
	src, _ := New(dev, rg(8, 8), data)
	dst, _ := New(dev, rg(8, 8), nil)
	if err := dst.CopyFrom(src); err != nil {
		t.Fatal(err)
	}
	got, _ := dst.Pixels()
	for i := range data {
		if math.Float32bits(got[i]) != math.Float32bits(data[i]) {
			t.Fatalf("px[%d] = %v, want %v", i, got[i], data[i])
		}
	}
}

func TestReleasedFieldPanics(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	f, _ := New(dev, rg(2, 2), nil)
	f.Release()
	f.Release()
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures = %d after release", dev.LiveTextures())
	}
	defer func() {
		if recover() == nil {
			t.Error("expected panic attaching a released field")
		}
	}()
	f.Attach(0)
}

func TestPairSwapTwiceIsIdentity(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	p, err := NewPair(dev, rg(4, 4), nil)
	if err != nil {
		t.Fatal(err)
	}
	r, w := p.Read(), p.Write()
	if r == w {
		t.Fatal("Read and Write alias")
	}
	p.Swap()
	if p.Read() != w || p.Write() != r {
		t.Error("Swap did not exchange roles")
	}
	p.Swap()
	if p.Read() != r || p.Write() != w {
		t.Error("Swap twice is not the identity")
	}
}

func TestNewPairInitialisesReadOnly(t *testing.T) {
	dev := soft.NewDevice(1, 1)
	data := BoundaryOffsets(4, 4)
	p, _ := NewPair(dev, rg(4, 4), data)
	r, _ := p.Read().Pixels()
	w, _ := p.Write().Pixels()
	if r[0] != 1 || w[0] != 0 {
		t.Errorf("read[0] = %v, write[0] = %v", r[0], w[0])
	}
}

func TestBoundaryOffsets(t *testing.T) {
	w, h := 4, 3
	data := BoundaryOffsets(w, h)
	at := func(x, y int) (float32, float32) {
		i := (y*w + x) * 2
		return data[i], data[i+1]
	}
	cases := []struct {
		x, y int
		r, g float32
	}{
		{0, 0, 1, 1},
		{3, 0, -1, 1},
		{0, 2, 1, -1},
		{3, 2, -1, -1},
		{1, 1, 0, 0},
		{0, 1, 1, 0},
		{2, 2, 0, -1},
	}
	for _, tc := range cases {
		r, g := at(tc.x, tc.y)
		if r != tc.r || g != tc.g {
			t.Errorf("(%d,%d) = (%v,%v), want (%v,%v)", tc.x, tc.y, r, g, tc.r, tc.g)
		}
	}
}

func TestDyeBlob(t *testing.T) {
	w, h := 16, 16
	data := DyeBlob(w, h)
	centre := (8*w + 8) * 4
	if data[centre+1] != 1 || data[centre+2] != 1 {
		t.Errorf("centre = %v", data[centre:centre+4])
	}
	corner := 0
	if data[corner+1] != 0 || data[corner+2] != 0 || data[corner+3] != 1 {
		t.Errorf("corner = %v", data[corner:corner+4])
	}
}

func TestDyeNoiseInRange(t *testing.T) {
	data := DyeNoise(8, 8, 42)
	for i, v := range data {
		if v < 0 || v > 1 {
			t.Fatalf("value %d = %v out of [0,1]", i, v)
		}
	}
}
