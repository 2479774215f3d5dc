package pass

import (
	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
)

// Schema is the ordered parameter list a shader promises to expose.
// Arguments to SetArguments follow the same order.
type Schema []gpu.Param

// Samplers returns how many texture units the schema occupies.
func (s Schema) Samplers() int {
	n := 0
	for _, p := range s {
		if p.Kind == gpu.KindSampler {
			n++
		}
	}
	return n
}

// Arg is one argument for SetArguments: a field for sampler parameters or
// a value for float and vector parameters.
type Arg struct {
	kind  gpu.ParamKind
	field *field.Field
	value gpu.Vec4
}

func Tex(f *field.Field) Arg {
	return Arg{kind: gpu.KindSampler, field: f}
}

func Float(x float32) Arg {
	return Arg{kind: gpu.KindFloat, value: gpu.Vec4{X: x}}
}

func Vec2(x, y float32) Arg {
	return Arg{kind: gpu.KindVec2, value: gpu.Vec4{X: x, Y: y}}
}

// V2 wraps an existing gpu.Vec2, typically a texel size.
func V2(v gpu.Vec2) Arg {
	return Vec2(v.X, v.Y)
}

func Vec3(x, y, z float32) Arg {
	return Arg{kind: gpu.KindVec3, value: gpu.Vec4{X: x, Y: y, Z: z}}
}

func Vec4(x, y, z, w float32) Arg {
	return Arg{kind: gpu.KindVec4, value: gpu.Vec4{X: x, Y: y, Z: z, W: w}}
}

func (a Arg) Kind() gpu.ParamKind { return a.kind }
