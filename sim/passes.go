package sim

import (
	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/pass"
	"github.com/pthm-cable/fluid/shaders"
)

// Typed wrappers over the solver programs. Each declares the parameter
// list it was written against; pass.New checks it against the program's
// reflected uniforms when the Loop is built.

type boundaryPass struct{ *pass.Pass }

var boundarySchema = pass.Schema{
	{Name: "u_target", Kind: gpu.KindSampler},
	{Name: "u_boundary_offsets", Kind: gpu.KindSampler},
	{Name: "u_scale", Kind: gpu.KindFloat},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
}

func (p boundaryPass) SetArguments(target, offsets *field.Field, scale float32) {
	p.Pass.SetArguments(pass.Tex(target), pass.Tex(offsets), pass.Float(scale), pass.V2(target.TexelSize()))
}

type advectPass struct{ *pass.Pass }

var advectSchema = pass.Schema{
	{Name: "u_target", Kind: gpu.KindSampler},
	{Name: "u_velocity", Kind: gpu.KindSampler},
	{Name: "u_timestep", Kind: gpu.KindFloat},
	{Name: "u_target_texel_size", Kind: gpu.KindVec2},
	{Name: "u_velocity_texel_size", Kind: gpu.KindVec2},
}

func (p advectPass) SetArguments(target, velocity *field.Field, timestep float32) {
	p.Pass.SetArguments(
		pass.Tex(target), pass.Tex(velocity), pass.Float(timestep),
		pass.V2(target.TexelSize()), pass.V2(velocity.TexelSize()),
	)
}

type forcePass struct{ *pass.Pass }

var forceSchema = pass.Schema{
	{Name: "u_velocity", Kind: gpu.KindSampler},
	{Name: "u_location", Kind: gpu.KindVec2},
	{Name: "u_direction", Kind: gpu.KindVec2},
	{Name: "u_radius", Kind: gpu.KindFloat},
	{Name: "u_scale", Kind: gpu.KindFloat},
}

func (p forcePass) SetArguments(velocity *field.Field, location, direction gpu.Vec2, radius, scale float32) {
	p.Pass.SetArguments(pass.Tex(velocity), pass.V2(location), pass.V2(direction), pass.Float(radius), pass.Float(scale))
}

type jacobiPass struct{ *pass.Pass }

var jacobiSchema = pass.Schema{
	{Name: "u_initial", Kind: gpu.KindSampler},
	{Name: "u_solution", Kind: gpu.KindSampler},
	{Name: "u_alpha", Kind: gpu.KindVec2},
	{Name: "u_r_beta", Kind: gpu.KindVec2},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
}

func (p jacobiPass) SetArguments(initial, solution *field.Field, alpha, rBeta gpu.Vec2) {
	p.Pass.SetArguments(pass.Tex(initial), pass.Tex(solution), pass.V2(alpha), pass.V2(rBeta), pass.V2(solution.TexelSize()))
}

type divergencePass struct{ *pass.Pass }

var divergenceSchema = pass.Schema{
	{Name: "u_velocity", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
}

func (p divergencePass) SetArguments(velocity *field.Field) {
	p.Pass.SetArguments(pass.Tex(velocity), pass.V2(velocity.TexelSize()))
}

type gradientPass struct{ *pass.Pass }

var gradientSchema = pass.Schema{
	{Name: "u_velocity", Kind: gpu.KindSampler},
	{Name: "u_pressure", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
}

func (p gradientPass) SetArguments(velocity, pressure *field.Field) {
	p.Pass.SetArguments(pass.Tex(velocity), pass.Tex(pressure), pass.V2(pressure.TexelSize()))
}

// DisplayPass presents an RGB field. It is shared with the life demo.
type DisplayPass struct{ *pass.Pass }

var displaySchema = pass.Schema{
	{Name: "u_texture", Kind: gpu.KindSampler},
}

func (p DisplayPass) SetArguments(tex *field.Field) {
	p.Pass.SetArguments(pass.Tex(tex))
}

func NewDisplayPass(dev gpu.Device) (DisplayPass, error) {
	p, err := pass.Compile(dev, shaders.Display.Source(), displaySchema)
	return DisplayPass{p}, err
}

type passes struct {
	boundary   boundaryPass
	advect     advectPass
	force      forcePass
	jacobi     jacobiPass
	divergence divergencePass
	gradient   gradientPass
	display    DisplayPass
}

func compilePasses(dev gpu.Device) (ps *passes, err error) {
	var built []*pass.Pass
	defer func() {
		if err != nil {
			for _, p := range built {
				p.Release()
			}
		}
	}()
	compile := func(prog shaders.Program, schema pass.Schema) *pass.Pass {
		if err != nil {
			return nil
		}
		var p *pass.Pass
		p, err = pass.Compile(dev, prog.Source(), schema)
		if p != nil {
			built = append(built, p)
		}
		return p
	}

	ps = &passes{
		boundary:   boundaryPass{compile(shaders.Boundary, boundarySchema)},
		advect:     advectPass{compile(shaders.Advect, advectSchema)},
		force:      forcePass{compile(shaders.Force, forceSchema)},
		jacobi:     jacobiPass{compile(shaders.Jacobi, jacobiSchema)},
		divergence: divergencePass{compile(shaders.Divergence, divergenceSchema)},
		gradient:   gradientPass{compile(shaders.Gradient, gradientSchema)},
		display:    DisplayPass{compile(shaders.Display, displaySchema)},
	}
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (ps *passes) release() {
	for _, p := range []*pass.Pass{
		ps.boundary.Pass, ps.advect.Pass, ps.force.Pass, ps.jacobi.Pass,
		ps.divergence.Pass, ps.gradient.Pass, ps.display.Pass,
	} {
		p.Release()
	}
}
