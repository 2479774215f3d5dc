// Package soft implements gpu.Device on the CPU. Programs are gpu.Kernels
// evaluated once per covered texel, which makes every pass deterministic and
// inspectable; it backs headless runs and all pipeline tests.
package soft

import (
	"fmt"
	"time"

	"github.com/pthm-cable/fluid/gpu"
)

// Stats counts commands issued to the device.
type Stats struct {
	UniformUploads int
	SamplerAssigns int
	TextureBinds   int
	Draws          int
	Clears         int
	Copies         int
	TexelsShaded   int
	Frames         int
}

type program struct {
	name   string
	kernel *gpu.Kernel
	values []gpu.Vec4
	units  []int
}

// Device is a software rasteriser for full-screen passes.
type Device struct {
	textures    map[gpu.TextureID]*texture
	programs    map[gpu.ProgramID]*program
	nextTexture gpu.TextureID
	nextProgram gpu.ProgramID

	units   [gpu.MaxTextureUnits]gpu.TextureID
	active  *program
	target  gpu.TextureID
	display *texture
	viewW   int
	viewH   int

	inv   gpu.Invocation
	stats Stats
	timer *gpu.WallTimer
}

// NewDevice creates a device whose display surface is width×height RGBA.
func NewDevice(width, height int) *Device {
	return &Device{
		textures:    make(map[gpu.TextureID]*texture),
		programs:    make(map[gpu.ProgramID]*program),
		nextTexture: 1,
		nextProgram: 1,
		display: newTexture(gpu.TextureDesc{
			Width:  width,
			Height: height,
			Format: gpu.FormatRGBA32F,
		}),
		viewW: width,
		viewH: height,
		timer: gpu.NewWallTimer(nil),
	}
}

// Timer returns a wall-clock timer; every command completes before it
// returns, so wall time is device time.
func (d *Device) Timer() gpu.Timer { return d.timer }

// SetClock replaces the timer's clock.
func (d *Device) SetClock(now func() time.Duration) { d.timer = gpu.NewWallTimer(now) }

// Stats returns command counters accumulated since creation or ResetStats.
func (d *Device) Stats() Stats {
	return d.stats
}

// ResetStats zeroes the command counters.
func (d *Device) ResetStats() {
	d.stats = Stats{}
}

// LiveTextures returns the number of allocated textures.
func (d *Device) LiveTextures() int {
	return len(d.textures)
}

func (d *Device) NewTexture(desc gpu.TextureDesc, data []float32) (gpu.TextureID, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("%w: invalid texture size %dx%d", gpu.ErrSetupFailure, desc.Width, desc.Height)
	}
	t := newTexture(desc)
	if data != nil {
		if len(data) != len(t.data) {
			return 0, fmt.Errorf("%w: initial data has %d values, want %d", gpu.ErrSetupFailure, len(data), len(t.data))
		}
		for i, v := range data {
			t.data[i] = t.quantize(v)
		}
	}
	id := d.nextTexture
	d.nextTexture++
	d.textures[id] = t
	return id, nil
}

func (d *Device) DeleteTexture(id gpu.TextureID) {
	delete(d.textures, id)
	for u, bound := range d.units {
		if bound == id {
			d.units[u] = 0
		}
	}
	if d.target == id {
		d.target = gpu.Display
	}
}

func (d *Device) CopyTexture(dst, src gpu.TextureID) error {
	dt, st := d.lookup(dst), d.lookup(src)
	if dt == nil || st == nil {
		return fmt.Errorf("copy: unknown texture (dst=%d src=%d)", dst, src)
	}
	if dt.desc.Width != st.desc.Width || dt.desc.Height != st.desc.Height || dt.desc.Format != st.desc.Format {
		return fmt.Errorf("copy: incompatible textures %dx%d %s <- %dx%d %s",
			dt.desc.Width, dt.desc.Height, dt.desc.Format,
			st.desc.Width, st.desc.Height, st.desc.Format)
	}
	copy(dt.data, st.data)
	d.stats.Copies++
	return nil
}

func (d *Device) BindTexture(unit int, id gpu.TextureID) {
	if unit < 0 || unit >= gpu.MaxTextureUnits {
		panic(fmt.Sprintf("soft: texture unit %d out of range", unit))
	}
	d.units[unit] = id
	d.stats.TextureBinds++
}

// ReadTexture returns a copy of the texture's contents. Display reads the
// drawable surface.
func (d *Device) ReadTexture(id gpu.TextureID) ([]float32, error) {
	t := d.lookup(id)
	if t == nil {
		return nil, fmt.Errorf("read: unknown texture %d", id)
	}
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out, nil
}

func (d *Device) NewProgram(src gpu.ProgramSource) (gpu.ProgramID, error) {
	if src.Kernel == nil || src.Kernel.Shade == nil {
		return 0, fmt.Errorf("%w: program %q has no kernel", gpu.ErrSetupFailure, src.Name)
	}
	p := &program{
		name:   src.Name,
		kernel: src.Kernel,
		values: make([]gpu.Vec4, len(src.Kernel.Params)),
		units:  make([]int, len(src.Kernel.Params)),
	}
	id := d.nextProgram
	d.nextProgram++
	d.programs[id] = p
	return id, nil
}

func (d *Device) DeleteProgram(id gpu.ProgramID) {
	if p, ok := d.programs[id]; ok && p == d.active {
		d.active = nil
	}
	delete(d.programs, id)
}

func (d *Device) UseProgram(id gpu.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		panic(fmt.Sprintf("soft: unknown program %d", id))
	}
	d.active = p
}

func (d *Device) ActiveUniforms(id gpu.ProgramID) []gpu.Param {
	p, ok := d.programs[id]
	if !ok {
		return nil
	}
	out := make([]gpu.Param, len(p.kernel.Params))
	copy(out, p.kernel.Params)
	return out
}

func (d *Device) UniformLocation(id gpu.ProgramID, name string) gpu.Location {
	p, ok := d.programs[id]
	if !ok {
		return gpu.NoLocation
	}
	for i, param := range p.kernel.Params {
		if param.Name == name {
			return gpu.Location(i)
		}
	}
	return gpu.NoLocation
}

func (d *Device) SetSampler(loc gpu.Location, unit int) {
	p := d.activeParam(loc, gpu.KindSampler)
	p.units[loc] = unit
	d.stats.SamplerAssigns++
}

func (d *Device) SetUniform(loc gpu.Location, kind gpu.ParamKind, v gpu.Vec4) {
	p := d.activeParam(loc, kind)
	p.values[loc] = v
	d.stats.UniformUploads++
}

func (d *Device) activeParam(loc gpu.Location, kind gpu.ParamKind) *program {
	p := d.active
	if p == nil {
		panic("soft: no active program")
	}
	if loc < 0 || int(loc) >= len(p.kernel.Params) {
		panic(fmt.Sprintf("soft: %s: location %d out of range", p.name, loc))
	}
	if declared := p.kernel.Params[loc].Kind; declared != kind {
		panic(fmt.Sprintf("soft: %s: %s is %s, set as %s", p.name, p.kernel.Params[loc].Name, declared, kind))
	}
	return p
}

func (d *Device) BindTarget(id gpu.TextureID) {
	if d.lookup(id) == nil {
		panic(fmt.Sprintf("soft: unknown render target %d", id))
	}
	d.target = id
}

func (d *Device) Viewport(width, height int) {
	d.viewW, d.viewH = width, height
}

func (d *Device) Clear(c gpu.Color) {
	d.lookup(d.target).fill(c)
	d.stats.Clears++
}

// DrawQuad shades every texel of the viewport with the active program.
// Sampling the bound render target is a feedback loop and panics.
func (d *Device) DrawQuad() {
	p := d.active
	if p == nil {
		panic("soft: draw without active program")
	}
	dst := d.lookup(d.target)

	n := len(p.kernel.Params)
	if cap(d.inv.Tex) < n {
		d.inv.Tex = make([]gpu.Sampler, n)
		d.inv.Values = make([]gpu.Vec4, n)
	}
	d.inv.Tex = d.inv.Tex[:n]
	d.inv.Values = d.inv.Values[:n]

	for i, param := range p.kernel.Params {
		d.inv.Values[i] = p.values[i]
		d.inv.Tex[i] = nil
		if param.Kind != gpu.KindSampler {
			continue
		}
		id := d.units[p.units[i]]
		if id != gpu.Display && id == d.target {
			panic(fmt.Sprintf("soft: %s samples its own render target via %s", p.name, param.Name))
		}
		if t := d.textures[id]; t != nil {
			d.inv.Tex[i] = t
		} else {
			d.inv.Tex[i] = blank{}
		}
	}

	w := min(d.viewW, dst.desc.Width)
	h := min(d.viewH, dst.desc.Height)
	fw, fh := float32(d.viewW), float32(d.viewH)
	for y := 0; y < h; y++ {
		d.inv.UV.Y = (float32(y) + 0.5) / fh
		for x := 0; x < w; x++ {
			d.inv.UV.X = (float32(x) + 0.5) / fw
			dst.store(x, y, p.kernel.Shade(&d.inv))
		}
	}
	d.stats.Draws++
	d.stats.TexelsShaded += w * h
}

func (d *Device) DisplaySize() (int, int) {
	return d.display.desc.Width, d.display.desc.Height
}

func (d *Device) EndFrame() {
	d.stats.Frames++
}

func (d *Device) lookup(id gpu.TextureID) *texture {
	if id == gpu.Display {
		return d.display
	}
	return d.textures[id]
}

var _ gpu.Device = (*Device)(nil)
