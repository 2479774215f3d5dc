// Package shaders holds the fragment programs of the fluid, life and sand
// pipelines. Each program exists as GLSL for the OpenGL device and as a
// Go kernel for the soft device; both declare the same uniforms.
package shaders

import (
	"embed"
	"fmt"

	"github.com/pthm-cable/fluid/gpu"
)

//go:embed glsl/*.fs glsl/*.vs
var sources embed.FS

// Program is one full-screen fragment program.
type Program struct {
	Name   string
	Params []gpu.Param
	shade  func(in *gpu.Invocation) gpu.Vec4
}

// Source returns the program in every form a device may consume.
func (p Program) Source() gpu.ProgramSource {
	return gpu.ProgramSource{
		Name:     p.Name,
		Vertex:   Quad(),
		Fragment: p.Fragment(),
		Kernel:   &gpu.Kernel{Params: p.Params, Shade: p.shade},
	}
}

// Fragment returns the GLSL fragment stage.
func (p Program) Fragment() string {
	return mustRead("glsl/" + p.Name + ".fs")
}

// Quad returns the shared vertex stage: a clip-space quad that hands v_uv
// in [0,1] to the fragment stage.
func Quad() string {
	return mustRead("glsl/quad.vs")
}

func mustRead(name string) string {
	b, err := sources.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("shaders: %v", err))
	}
	return string(b)
}

func sampler(name string) gpu.Param { return gpu.Param{Name: name, Kind: gpu.KindSampler} }
func float(name string) gpu.Param   { return gpu.Param{Name: name, Kind: gpu.KindFloat} }
func vec2(name string) gpu.Param    { return gpu.Param{Name: name, Kind: gpu.KindVec2} }

var (
	// Boundary copies scale * target at the inner neighbour into edge
	// texels and leaves interior texels untouched.
	Boundary = Program{
		Name:   "boundary",
		Params: []gpu.Param{sampler("u_target"), sampler("u_boundary_offsets"), float("u_scale"), vec2("u_texel_size")},
		shade:  boundary,
	}

	// Advect moves u_target along u_velocity by one semi-Lagrangian step.
	Advect = Program{
		Name: "advect",
		Params: []gpu.Param{
			sampler("u_target"), sampler("u_velocity"), float("u_timestep"),
			vec2("u_target_texel_size"), vec2("u_velocity_texel_size"),
		},
		shade: advect,
	}

	// Force adds a Gaussian splat of u_direction*u_scale at u_location.
	Force = Program{
		Name: "force",
		Params: []gpu.Param{
			sampler("u_velocity"), vec2("u_location"), vec2("u_direction"),
			float("u_radius"), float("u_scale"),
		},
		shade: force,
	}

	// Jacobi runs one relaxation sweep of x = (xL+xR+xB+xT + alpha*b)*r_beta.
	Jacobi = Program{
		Name: "jacobi",
		Params: []gpu.Param{
			sampler("u_initial"), sampler("u_solution"),
			vec2("u_alpha"), vec2("u_r_beta"), vec2("u_texel_size"),
		},
		shade: jacobi,
	}

	Divergence = Program{
		Name:   "divergence",
		Params: []gpu.Param{sampler("u_velocity"), vec2("u_texel_size")},
		shade:  divergence,
	}

	Gradient = Program{
		Name:   "gradient",
		Params: []gpu.Param{sampler("u_velocity"), sampler("u_pressure"), vec2("u_texel_size")},
		shade:  gradient,
	}

	// Display writes the RGB of u_texture with opaque alpha.
	Display = Program{
		Name:   "display",
		Params: []gpu.Param{sampler("u_texture")},
		shade:  display,
	}

	// Life advances a Conway board one generation.
	Life = Program{
		Name:   "life",
		Params: []gpu.Param{sampler("u_board"), vec2("u_texel_size")},
		shade:  life,
	}

	// Stamp sets every cell within u_radius of u_location alive.
	Stamp = Program{
		Name:   "stamp",
		Params: []gpu.Param{sampler("u_board"), vec2("u_location"), float("u_radius")},
		shade:  stamp,
	}

	// Drop adds u_amount grains to the cell under u_location. Heights are
	// stored as grains/u_scale in a normalized channel.
	Drop = Program{
		Name: "drop",
		Params: []gpu.Param{
			sampler("u_sand"), vec2("u_texel_size"), float("u_scale"),
			float("u_amount"), vec2("u_location"),
		},
		shade: drop,
	}

	// Avalanche moves one grain across every edge whose height step
	// exceeds u_threshold. Each exchange is symmetric, so grains are
	// conserved.
	Avalanche = Program{
		Name:   "avalanche",
		Params: []gpu.Param{sampler("u_sand"), vec2("u_texel_size"), float("u_scale"), float("u_threshold")},
		shade:  avalanche,
	}

	// Shadow shades the pile, darkening cells whose ray toward u_light is
	// blocked. u_slope is the ray's rise in grains per texel.
	Shadow = Program{
		Name: "shadow",
		Params: []gpu.Param{
			sampler("u_sand"), vec2("u_texel_size"), vec2("u_light"),
			float("u_slope"), float("u_scale"),
		},
		shade: shadow,
	}
)

// All lists every program, for tools that precompile or validate them.
var All = []Program{
	Boundary, Advect, Force, Jacobi, Divergence, Gradient, Display,
	Life, Stamp,
	Drop, Avalanche, Shadow,
}
