package soft

import (
	"math"
	"testing"

	"github.com/pthm-cable/fluid/gpu"
)

// uvKernel writes the fragment's uv into RG.
var uvKernel = &gpu.Kernel{
	Shade: func(in *gpu.Invocation) gpu.Vec4 {
		return gpu.Vec4{X: in.UV.X, Y: in.UV.Y}
	},
}

// copyKernel writes u_src sampled at uv.
var copyKernel = &gpu.Kernel{
	Params: []gpu.Param{{Name: "u_src", Kind: gpu.KindSampler}, {Name: "u_gain", Kind: gpu.KindFloat}},
	Shade: func(in *gpu.Invocation) gpu.Vec4 {
		return in.Tex[0].Sample(in.UV).Scale(in.Values[1].X)
	},
}

func TestNearestSamplingClampsOutOfRange(t *testing.T) {
	tex := newTexture(gpu.TextureDesc{Width: 2, Height: 1, Format: gpu.FormatR32F})
	tex.data[0], tex.data[1] = 3, 7

	cases := []struct {
		u    float32
		want float32
	}{
		{0.25, 3},
		{0.75, 7},
		{-5, 3},
		{5, 7},
	}
	for _, tc := range cases {
		got := tex.Sample(gpu.Vec2{X: tc.u, Y: 0.5}).X
		if got != tc.want {
			t.Errorf("Sample(u=%v) = %v, want %v", tc.u, got, tc.want)
		}
	}
}

func TestRepeatWraps(t *testing.T) {
	tex := newTexture(gpu.TextureDesc{Width: 4, Height: 1, Format: gpu.FormatR32F, Wrap: gpu.WrapRepeat})
	for i := range tex.data {
		tex.data[i] = float32(i)
	}
	if got := tex.texel(-1, 0).X; got != 3 {
		t.Errorf("texel(-1) = %v, want 3", got)
	}
	if got := tex.texel(5, 0).X; got != 1 {
		t.Errorf("texel(5) = %v, want 1", got)
	}
}

func TestLinearAndBilerpAgree(t *testing.T) {
	desc := gpu.TextureDesc{Width: 4, Height: 4, Format: gpu.FormatR32F}
	nearest := newTexture(desc)
	desc.Filter = gpu.FilterLinear
	linear := newTexture(desc)
	for i := range nearest.data {
		v := float32(i * i % 7)
		nearest.data[i] = v
		linear.data[i] = v
	}

	texel := gpu.Vec2{X: 0.25, Y: 0.25}
	for _, uv := range []gpu.Vec2{{X: 0.3, Y: 0.4}, {X: 0.51, Y: 0.77}, {X: 0.125, Y: 0.125}} {
		a := linear.Sample(uv).X
		b := gpu.Bilerp(nearest, uv, texel).X
		if math.Abs(float64(a-b)) > 1e-5 {
			t.Errorf("uv %+v: linear %v, bilerp %v", uv, a, b)
		}
	}
}

func TestRGBA8Quantizes(t *testing.T) {
	dev := NewDevice(1, 1)
	id, err := dev.NewTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: gpu.FormatRGBA8}, []float32{-1, 0.5, 2, 1})
	if err != nil {
		t.Fatal(err)
	}
	px, _ := dev.ReadTexture(id)
	want := []float32{0, 128.0 / 255, 1, 1}
	for i := range want {
		if px[i] != want[i] {
			t.Errorf("channel %d = %v, want %v", i, px[i], want[i])
		}
	}
}

func TestR8HoldsOneQuantizedChannel(t *testing.T) {
	dev := NewDevice(1, 1)
	desc := gpu.TextureDesc{Width: 2, Height: 1, Format: gpu.FormatR8}
	id, err := dev.NewTexture(desc, []float32{7.0 / 255, 3})
	if err != nil {
		t.Fatal(err)
	}
	px, _ := dev.ReadTexture(id)
	if len(px) != 2 || px[0] != 7.0/255 || px[1] != 1 {
		t.Errorf("texels = %v, want [7/255 1]", px)
	}
	if got := dev.lookup(id).texel(0, 0); got.Y != 0 || got.W != 1 {
		t.Errorf("sampled %+v, want red only with opaque alpha", got)
	}
}

func TestNewTextureRejectsBadData(t *testing.T) {
	dev := NewDevice(1, 1)
	if _, err := dev.NewTexture(gpu.TextureDesc{Width: 2, Height: 2, Format: gpu.FormatRG32F}, make([]float32, 3)); err == nil {
		t.Error("expected error for short data")
	}
	if _, err := dev.NewTexture(gpu.TextureDesc{Width: 0, Height: 2}, nil); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestDrawQuadCoversViewportAtTexelCentres(t *testing.T) {
	dev := NewDevice(1, 1)
	id, _ := dev.NewTexture(gpu.TextureDesc{Width: 4, Height: 2, Format: gpu.FormatRG32F}, nil)
	prog, _ := dev.NewProgram(gpu.ProgramSource{Name: "uv", Kernel: uvKernel})

	dev.UseProgram(prog)
	dev.BindTarget(id)
	dev.Viewport(4, 2)
	dev.DrawQuad()

	px, _ := dev.ReadTexture(id)
	// texel (3, 1)
	i := (1*4 + 3) * 2
	if px[i] != 0.875 || px[i+1] != 0.75 {
		t.Errorf("texel (3,1) uv = (%v, %v), want (0.875, 0.75)", px[i], px[i+1])
	}
	if s := dev.Stats(); s.Draws != 1 || s.TexelsShaded != 8 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCopyTexture(t *testing.T) {
	dev := NewDevice(1, 1)
	desc := gpu.TextureDesc{Width: 2, Height: 2, Format: gpu.FormatRG32F}
	src, _ := dev.NewTexture(desc, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	dst, _ := dev.NewTexture(desc, nil)
	if err := dev.CopyTexture(dst, src); err != nil {
		t.Fatal(err)
	}
	px, _ := dev.ReadTexture(dst)
	for i, v := range px {
		if v != float32(i+1) {
			t.Fatalf("px[%d] = %v", i, v)
		}
	}

	other, _ := dev.NewTexture(gpu.TextureDesc{Width: 2, Height: 2, Format: gpu.FormatRGBA32F}, nil)
	if err := dev.CopyTexture(other, src); err == nil {
		t.Error("expected error copying across formats")
	}
}

func TestSetUniformKindChecked(t *testing.T) {
	dev := NewDevice(1, 1)
	prog, _ := dev.NewProgram(gpu.ProgramSource{Name: "copy", Kernel: copyKernel})
	dev.UseProgram(prog)

	loc := dev.UniformLocation(prog, "u_gain")
	if loc != 1 {
		t.Fatalf("u_gain location = %d, want 1", loc)
	}
	if dev.UniformLocation(prog, "u_missing") != gpu.NoLocation {
		t.Error("expected NoLocation for undeclared uniform")
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic uploading vec2 into float")
		}
	}()
	dev.SetUniform(loc, gpu.KindVec2, gpu.Vec4{})
}

func TestFeedbackLoopPanics(t *testing.T) {
	dev := NewDevice(1, 1)
	id, _ := dev.NewTexture(gpu.TextureDesc{Width: 2, Height: 2, Format: gpu.FormatRGBA32F}, nil)
	prog, _ := dev.NewProgram(gpu.ProgramSource{Name: "copy", Kernel: copyKernel})

	dev.UseProgram(prog)
	dev.BindTexture(0, id)
	dev.SetSampler(0, 0)
	dev.BindTarget(id)
	dev.Viewport(2, 2)

	defer func() {
		if recover() == nil {
			t.Error("expected panic sampling the render target")
		}
	}()
	dev.DrawQuad()
}

func TestDeleteTextureUnbinds(t *testing.T) {
	dev := NewDevice(1, 1)
	id, _ := dev.NewTexture(gpu.TextureDesc{Width: 1, Height: 1, Format: gpu.FormatRGBA32F}, nil)
	dev.BindTexture(3, id)
	dev.DeleteTexture(id)
	if dev.units[3] != 0 {
		t.Error("unit 3 still bound after delete")
	}
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures = %d, want 0", dev.LiveTextures())
	}
}
