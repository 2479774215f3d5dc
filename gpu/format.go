package gpu

import "fmt"

// Format fixes both the scalar type and the channel layout of a texture.
type Format int

const (
	FormatR32F Format = iota
	FormatRG32F
	FormatRGBA32F
	FormatRGBA8
	FormatR8
)

// Channels returns the number of components per texel.
func (f Format) Channels() int {
	switch f {
	case FormatR32F, FormatR8:
		return 1
	case FormatRG32F:
		return 2
	default:
		return 4
	}
}

// Normalized reports whether stored values are clamped to [0,1] and
// quantised to 8 bits.
func (f Format) Normalized() bool {
	return f == FormatRGBA8 || f == FormatR8
}

func (f Format) String() string {
	switch f {
	case FormatR32F:
		return "R32F"
	case FormatRG32F:
		return "RG32F"
	case FormatRGBA32F:
		return "RGBA32F"
	case FormatRGBA8:
		return "RGBA8"
	case FormatR8:
		return "R8"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Filter selects texture minification/magnification.
type Filter int

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Wrap selects addressing outside [0,1].
type Wrap int

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// ParamKind is the type of a declared shader parameter.
type ParamKind int

const (
	KindSampler ParamKind = iota
	KindFloat
	KindVec2
	KindVec3
	KindVec4
)

func (k ParamKind) String() string {
	switch k {
	case KindSampler:
		return "sampler2D"
	case KindFloat:
		return "float"
	case KindVec2:
		return "vec2"
	case KindVec3:
		return "vec3"
	case KindVec4:
		return "vec4"
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// Param is one declared shader parameter.
type Param struct {
	Name string
	Kind ParamKind
}
