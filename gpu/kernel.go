package gpu

import "math"

// Sampler reads a bound texture the way a fragment shader would.
type Sampler interface {
	// Sample applies the texture's filter and wrap modes at normalised uv.
	Sample(uv Vec2) Vec4
	Size() (int, int)
}

// Invocation is the per-texel input of a Kernel. Tex and Values are indexed
// by the kernel's parameter declaration order; Tex holds nil for value
// parameters and Values holds zero for samplers.
type Invocation struct {
	UV     Vec2
	Tex    []Sampler
	Values []Vec4
}

// Kernel is a CPU rendition of a fragment program. Params is what the
// software device reports as the program's active uniforms.
type Kernel struct {
	Params []Param
	Shade  func(in *Invocation) Vec4
}

// Bilerp bilinearly filters s at uv using explicit texel centres, matching
// the GLSL bilerp helper shared by the shaders.
func Bilerp(s Sampler, uv, texel Vec2) Vec4 {
	stx := uv.X/texel.X - 0.5
	sty := uv.Y/texel.Y - 0.5
	ix := float32(math.Floor(float64(stx)))
	iy := float32(math.Floor(float64(sty)))
	fx := stx - ix
	fy := sty - iy

	a := s.Sample(Vec2{X: (ix + 0.5) * texel.X, Y: (iy + 0.5) * texel.Y})
	b := s.Sample(Vec2{X: (ix + 1.5) * texel.X, Y: (iy + 0.5) * texel.Y})
	c := s.Sample(Vec2{X: (ix + 0.5) * texel.X, Y: (iy + 1.5) * texel.Y})
	d := s.Sample(Vec2{X: (ix + 1.5) * texel.X, Y: (iy + 1.5) * texel.Y})

	return Mix(Mix(a, b, fx), Mix(c, d, fx), fy)
}

// Mix is GLSL mix for Vec4.
func Mix(a, b Vec4, t float32) Vec4 {
	return Vec4{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}
}

// Add returns a+b.
func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z, W: v.W + o.W}
}

// Scale returns v*s.
func (v Vec4) Scale(s float32) Vec4 {
	return Vec4{X: v.X * s, Y: v.Y * s, Z: v.Z * s, W: v.W * s}
}
