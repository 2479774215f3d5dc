// Package pass wraps compiled shader programs behind a declared parameter
// schema. Uniform locations and texture units are resolved once; value
// uploads are skipped while the argument is unchanged.
package pass

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pthm-cable/fluid/gpu"
)

// ErrContractViolation reports a schema parameter the compiled program does
// not expose, or exposes with a different type.
var ErrContractViolation = errors.New("shader contract violation")

type slot struct {
	param gpu.Param
	loc   gpu.Location
	unit  int

	// Last value uploaded to loc; valid only when cached is set.
	cached bool
	value  gpu.Vec4
}

// Pass is a program plus its resolved slot table and parameter cache.
// A Pass assumes exclusive use of its program: the cache mirrors the
// program's uniform state, which another user would silently change.
type Pass struct {
	name    string
	dev     gpu.Device
	program gpu.ProgramID
	owned   bool
	slots   []slot
	uploads int
}

// New validates schema against the program's active uniforms and binds
// every sampler parameter to its texture unit. Samplers take consecutive
// units from 0 in declaration order.
func New(dev gpu.Device, name string, program gpu.ProgramID, schema Schema) (*Pass, error) {
	active := make(map[string]gpu.ParamKind)
	for _, u := range dev.ActiveUniforms(program) {
		active[u.Name] = u.Kind
	}

	if n := schema.Samplers(); n > gpu.MaxTextureUnits {
		return nil, fmt.Errorf("%w: %s declares %d samplers, device has %d units",
			ErrContractViolation, name, n, gpu.MaxTextureUnits)
	}

	p := &Pass{name: name, dev: dev, program: program, slots: make([]slot, len(schema))}

	var problems []string
	unit := 0
	for i, param := range schema {
		kind, ok := active[param.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("%s %s not exposed", param.Kind, param.Name))
			continue
		case kind != param.Kind:
			problems = append(problems, fmt.Sprintf("%s declared %s, program has %s", param.Name, param.Kind, kind))
			continue
		}
		loc := dev.UniformLocation(program, param.Name)
		if loc == gpu.NoLocation {
			problems = append(problems, fmt.Sprintf("%s has no location", param.Name))
			continue
		}
		p.slots[i] = slot{param: param, loc: loc, unit: -1}
		if param.Kind == gpu.KindSampler {
			p.slots[i].unit = unit
			unit++
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s: %s", ErrContractViolation, name, strings.Join(problems, "; "))
	}

	dev.UseProgram(program)
	for _, s := range p.slots {
		if s.param.Kind == gpu.KindSampler {
			dev.SetSampler(s.loc, s.unit)
		}
	}
	return p, nil
}

// Compile builds src on dev and wraps it. The returned Pass owns the
// program and deletes it on Release.
func Compile(dev gpu.Device, src gpu.ProgramSource, schema Schema) (*Pass, error) {
	prog, err := dev.NewProgram(src)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", src.Name, err)
	}
	p, err := New(dev, src.Name, prog, schema)
	if err != nil {
		dev.DeleteProgram(prog)
		return nil, err
	}
	p.owned = true
	return p, nil
}

// SetArguments makes the program active and applies args in schema order.
// Fields are attached every call; values are uploaded only when they
// differ from the last upload. Wrong arity or kinds are programming errors
// and panic.
func (p *Pass) SetArguments(args ...Arg) {
	if len(args) != len(p.slots) {
		panic(fmt.Sprintf("pass %s: got %d arguments, schema has %d", p.name, len(args), len(p.slots)))
	}
	p.dev.UseProgram(p.program)
	for i := range p.slots {
		s := &p.slots[i]
		a := args[i]
		if a.kind != s.param.Kind {
			panic(fmt.Sprintf("pass %s: argument %d (%s) is %s, want %s", p.name, i, s.param.Name, a.kind, s.param.Kind))
		}
		if s.param.Kind == gpu.KindSampler {
			if a.field == nil {
				panic(fmt.Sprintf("pass %s: nil field for %s", p.name, s.param.Name))
			}
			a.field.Attach(s.unit)
			continue
		}
		if s.cached && s.value == a.value {
			continue
		}
		p.dev.SetUniform(s.loc, s.param.Kind, a.value)
		s.value = a.value
		s.cached = true
		p.uploads++
	}
}

// Name returns the program name the pass was built from.
func (p *Pass) Name() string { return p.name }

// Program returns the wrapped program.
func (p *Pass) Program() gpu.ProgramID { return p.program }

// Uploads counts value uploads actually issued.
func (p *Pass) Uploads() int { return p.uploads }

// Unit returns the texture unit assigned to the named sampler, or -1.
func (p *Pass) Unit(name string) int {
	for _, s := range p.slots {
		if s.param.Name == name {
			return s.unit
		}
	}
	return -1
}

// Release deletes the program if the pass owns it.
func (p *Pass) Release() {
	if p.owned {
		p.dev.DeleteProgram(p.program)
		p.owned = false
	}
}
