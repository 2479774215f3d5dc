package field

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/fluid/gpu"
)

// Zeros returns a zero-filled buffer for a w×h field of format f.
func Zeros(w, h int, f gpu.Format) []float32 {
	return make([]float32, w*h*f.Channels())
}

// BoundaryOffsets builds the RG32F table that points every edge texel at
// its inner neighbour: R is +1 on column 0 and -1 on the last column, G is
// +1 on row 0 and -1 on the last row. Interior texels are zero.
func BoundaryOffsets(w, h int) []float32 {
	data := make([]float32, w*h*2)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 2
			switch x {
			case 0:
				data[i] = 1
			case w - 1:
				data[i] = -1
			}
			switch y {
			case 0:
				data[i+1] = 1
			case h - 1:
				data[i+1] = -1
			}
		}
	}
	return data
}

// DyeBlob builds an RGBA32F disc centred on the grid with radius
// min(w,h)/4. Green ramps from 1 at the centre to 0 at the rim, blue is 1
// inside, alpha is 1 everywhere.
func DyeBlob(w, h int) []float32 {
	data := make([]float32, w*h*4)
	cx, cy := float64(w)/2, float64(h)/2
	radius := float64(min(w, h)) / 4
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			data[i+3] = 1
			dist := math.Hypot(float64(x)-cx, float64(y)-cy)
			if dist >= radius {
				continue
			}
			data[i+1] = float32((radius - dist) / radius)
			data[i+2] = 1
		}
	}
	return data
}

// DyeNoise builds an RGBA32F field of smooth simplex noise, a different
// octave per colour channel.
func DyeNoise(w, h int, seed int64) []float32 {
	noise := opensimplex.NewNormalized(seed)
	data := make([]float32, w*h*4)
	scale := 4.0 / float64(min(w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			fx, fy := float64(x)*scale, float64(y)*scale
			data[i] = float32(noise.Eval2(fx, fy))
			data[i+1] = float32(noise.Eval2(fx*2+17, fy*2))
			data[i+2] = float32(noise.Eval2(fx*0.5, fy*0.5+31))
			data[i+3] = 1
		}
	}
	return data
}
