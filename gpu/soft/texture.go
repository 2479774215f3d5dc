package soft

import (
	"math"

	"github.com/pthm-cable/fluid/gpu"
)

// texture is CPU storage laid out like a GL texture: row-major, row 0 at
// v = 0, Format.Channels() floats per texel.
type texture struct {
	desc     gpu.TextureDesc
	channels int
	data     []float32
}

func newTexture(desc gpu.TextureDesc) *texture {
	ch := desc.Format.Channels()
	return &texture{
		desc:     desc,
		channels: ch,
		data:     make([]float32, desc.Width*desc.Height*ch),
	}
}

func (t *texture) Size() (int, int) {
	return t.desc.Width, t.desc.Height
}

// Sample applies the texture's filter and wrap modes at uv.
func (t *texture) Sample(uv gpu.Vec2) gpu.Vec4 {
	w, h := t.desc.Width, t.desc.Height
	if t.desc.Filter == gpu.FilterNearest {
		x := floorInt(uv.X * float32(w))
		y := floorInt(uv.Y * float32(h))
		return t.texel(x, y)
	}

	sx := uv.X*float32(w) - 0.5
	sy := uv.Y*float32(h) - 0.5
	fx0 := float32(math.Floor(float64(sx)))
	fy0 := float32(math.Floor(float64(sy)))
	fx := sx - fx0
	fy := sy - fy0
	x0, y0 := int(fx0), int(fy0)

	a := t.texel(x0, y0)
	b := t.texel(x0+1, y0)
	c := t.texel(x0, y0+1)
	d := t.texel(x0+1, y0+1)
	return gpu.Mix(gpu.Mix(a, b, fx), gpu.Mix(c, d, fx), fy)
}

// texel fetches with the wrap mode applied to out-of-range coordinates.
func (t *texture) texel(x, y int) gpu.Vec4 {
	x = t.wrap(x, t.desc.Width)
	y = t.wrap(y, t.desc.Height)
	i := (y*t.desc.Width + x) * t.channels

	var v gpu.Vec4
	switch t.channels {
	case 1:
		v.X = t.data[i]
		v.W = 1
	case 2:
		v.X, v.Y = t.data[i], t.data[i+1]
		v.W = 1
	default:
		v.X, v.Y, v.Z, v.W = t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]
	}
	return v
}

func (t *texture) store(x, y int, v gpu.Vec4) {
	i := (y*t.desc.Width + x) * t.channels
	comps := [4]float32{v.X, v.Y, v.Z, v.W}
	for c := 0; c < t.channels; c++ {
		t.data[i+c] = t.quantize(comps[c])
	}
}

func (t *texture) fill(c gpu.Color) {
	comps := [4]float32{c.R, c.G, c.B, c.A}
	for i := range t.data {
		t.data[i] = t.quantize(comps[i%t.channels])
	}
}

func (t *texture) quantize(v float32) float32 {
	if !t.desc.Format.Normalized() {
		return v
	}
	if v < 0 || v != v {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return float32(math.Round(float64(v)*255)) / 255
}

func (t *texture) wrap(i, n int) int {
	if t.desc.Wrap == gpu.WrapRepeat {
		return ((i % n) + n) % n
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// floorInt floors f, mapping NaN to 0 so bad coordinates clamp instead of
// producing undefined indices.
func floorInt(f float32) int {
	if f != f {
		return 0
	}
	return int(math.Floor(float64(f)))
}

// blank stands in for an unbound unit. GL samples incomplete textures as
// zero.
type blank struct{}

func (blank) Sample(gpu.Vec2) gpu.Vec4 { return gpu.Vec4{} }
func (blank) Size() (int, int)         { return 1, 1 }
