package opengl

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/fluid/gpu"
)

type program struct {
	id       uint32
	name     string
	uniforms []gpu.Param
}

// NewProgram compiles and links the vertex and fragment stages and
// records the program's active uniforms.
func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.ProgramID, error) {
	if src.Vertex == "" || src.Fragment == "" {
		return 0, fmt.Errorf("%w: program %q is missing GLSL source", gpu.ErrSetupFailure, src.Name)
	}

	vs, err := compileShader(src.Vertex, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("%w: %s vertex stage: %v", gpu.ErrSetupFailure, src.Name, err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(src.Fragment, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("%w: %s fragment stage: %v", gpu.ErrSetupFailure, src.Name, err)
	}
	defer gl.DeleteShader(fs)

	id := gl.CreateProgram()
	gl.AttachShader(id, vs)
	gl.AttachShader(id, fs)
	gl.BindAttribLocation(id, 0, gl.Str("a_position\x00"))
	gl.LinkProgram(id)

	var status int32
	gl.GetProgramiv(id, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(id, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(id, logLength, nil, gl.Str(log))
		gl.DeleteProgram(id)
		return 0, fmt.Errorf("%w: linking %s: %s", gpu.ErrSetupFailure, src.Name, strings.TrimRight(log, "\x00"))
	}

	p := &program{id: id, name: src.Name, uniforms: activeUniforms(id)}
	pid := gpu.ProgramID(id)
	d.programs[pid] = p
	return pid, nil
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func activeUniforms(id uint32) []gpu.Param {
	var count int32
	gl.GetProgramiv(id, gl.ACTIVE_UNIFORMS, &count)

	out := make([]gpu.Param, 0, count)
	buf := make([]uint8, 256)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		gl.GetActiveUniform(id, uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		kind, ok := paramKind(xtype)
		if !ok {
			continue
		}
		out = append(out, gpu.Param{Name: string(buf[:length]), Kind: kind})
	}
	return out
}

func paramKind(xtype uint32) (gpu.ParamKind, bool) {
	switch xtype {
	case gl.SAMPLER_2D:
		return gpu.KindSampler, true
	case gl.FLOAT:
		return gpu.KindFloat, true
	case gl.FLOAT_VEC2:
		return gpu.KindVec2, true
	case gl.FLOAT_VEC3:
		return gpu.KindVec3, true
	case gl.FLOAT_VEC4:
		return gpu.KindVec4, true
	}
	return 0, false
}

func (d *Device) DeleteProgram(id gpu.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	gl.DeleteProgram(p.id)
	delete(d.programs, id)
}

func (d *Device) UseProgram(id gpu.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		panic(fmt.Sprintf("opengl: unknown program %d", id))
	}
	gl.UseProgram(p.id)
}

func (d *Device) ActiveUniforms(id gpu.ProgramID) []gpu.Param {
	p, ok := d.programs[id]
	if !ok {
		return nil
	}
	out := make([]gpu.Param, len(p.uniforms))
	copy(out, p.uniforms)
	return out
}

func (d *Device) UniformLocation(id gpu.ProgramID, name string) gpu.Location {
	p, ok := d.programs[id]
	if !ok {
		return gpu.NoLocation
	}
	return gpu.Location(gl.GetUniformLocation(p.id, gl.Str(name+"\x00")))
}

func (d *Device) SetSampler(loc gpu.Location, unit int) {
	gl.Uniform1i(int32(loc), int32(unit))
}

func (d *Device) SetUniform(loc gpu.Location, kind gpu.ParamKind, v gpu.Vec4) {
	l := int32(loc)
	switch kind {
	case gpu.KindFloat:
		gl.Uniform1f(l, v.X)
	case gpu.KindVec2:
		gl.Uniform2f(l, v.X, v.Y)
	case gpu.KindVec3:
		gl.Uniform3f(l, v.X, v.Y, v.Z)
	case gpu.KindVec4:
		gl.Uniform4f(l, v.X, v.Y, v.Z, v.W)
	default:
		panic(fmt.Sprintf("opengl: cannot upload %s as a value", kind))
	}
}
