// Package opengl implements gpu.Device on an OpenGL 3.3 core context.
// The context is created by the host window (raylib); New must be called
// on the thread that owns it, after the window is open.
package opengl

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/fluid/gpu"
)

// Device drives float render targets and full-screen passes through GL.
type Device struct {
	textures map[gpu.TextureID]*texture
	programs map[gpu.ProgramID]*program

	quadVAO uint32
	quadVBO uint32

	displayW int
	displayH int

	timer queryTimer
}

type texture struct {
	id   uint32
	fbo  uint32
	desc gpu.TextureDesc
}

// New loads GL entry points for the current context and prepares the
// full-screen quad. width and height are the drawable's pixel size.
func New(width, height int) (*Device, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("%w: initializing OpenGL: %v", gpu.ErrSetupFailure, err)
	}
	slog.Info("opengl device",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"display_w", width,
		"display_h", height,
	)

	d := &Device{
		textures: make(map[gpu.TextureID]*texture),
		programs: make(map[gpu.ProgramID]*program),
		displayW: width,
		displayH: height,
	}

	// Two triangles covering clip space, counter-clockwise.
	quad := []float32{
		-1, -1, 1, -1, 1, 1,
		-1, -1, 1, 1, -1, 1,
	}
	gl.GenVertexArrays(1, &d.quadVAO)
	gl.BindVertexArray(d.quadVAO)
	gl.GenBuffers(1, &d.quadVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.quadVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, 0, 0)
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	return d, nil
}

// Close releases the quad and every texture and program still alive.
func (d *Device) Close() {
	for id := range d.textures {
		d.DeleteTexture(id)
	}
	for id := range d.programs {
		d.DeleteProgram(id)
	}
	d.timer.release()
	gl.DeleteBuffers(1, &d.quadVBO)
	gl.DeleteVertexArrays(1, &d.quadVAO)
}

func glFormat(f gpu.Format) (internal int32, format uint32) {
	switch f {
	case gpu.FormatR32F:
		return gl.R32F, gl.RED
	case gpu.FormatRG32F:
		return gl.RG32F, gl.RG
	case gpu.FormatRGBA8:
		return gl.RGBA8, gl.RGBA
	case gpu.FormatR8:
		return gl.R8, gl.RED
	default:
		return gl.RGBA32F, gl.RGBA
	}
}

func (d *Device) NewTexture(desc gpu.TextureDesc, data []float32) (gpu.TextureID, error) {
	want := desc.Width * desc.Height * desc.Format.Channels()
	if desc.Width <= 0 || desc.Height <= 0 {
		return 0, fmt.Errorf("%w: invalid texture size %dx%d", gpu.ErrSetupFailure, desc.Width, desc.Height)
	}
	if data != nil && len(data) != want {
		return 0, fmt.Errorf("%w: initial data has %d values, want %d", gpu.ErrSetupFailure, len(data), want)
	}

	t := &texture{desc: desc}
	internal, format := glFormat(desc.Format)

	var pixels unsafe.Pointer
	if data != nil {
		pixels = gl.Ptr(data)
	}

	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, internal, int32(desc.Width), int32(desc.Height), 0, format, gl.FLOAT, pixels)

	filter := int32(gl.NEAREST)
	if desc.Filter == gpu.FilterLinear {
		filter = gl.LINEAR
	}
	wrap := int32(gl.CLAMP_TO_EDGE)
	if desc.Wrap == gpu.WrapRepeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.id, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &t.fbo)
		gl.DeleteTextures(1, &t.id)
		return 0, fmt.Errorf("%w: %s render target incomplete (status 0x%x)", gpu.ErrSetupFailure, desc.Format, status)
	}
	if err := glError("new texture"); err != nil {
		return 0, err
	}

	// The GL texture name doubles as our handle; it is never 0.
	id := gpu.TextureID(t.id)
	d.textures[id] = t
	return id, nil
}

func (d *Device) DeleteTexture(id gpu.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	gl.DeleteFramebuffers(1, &t.fbo)
	gl.DeleteTextures(1, &t.id)
	delete(d.textures, id)
}

func (d *Device) CopyTexture(dst, src gpu.TextureID) error {
	dt, st := d.textures[dst], d.textures[src]
	if dt == nil || st == nil {
		return fmt.Errorf("copy: unknown texture (dst=%d src=%d)", dst, src)
	}
	if dt.desc.Width != st.desc.Width || dt.desc.Height != st.desc.Height || dt.desc.Format != st.desc.Format {
		return fmt.Errorf("copy: incompatible textures %s <- %s", dt.desc.Format, st.desc.Format)
	}
	w, h := int32(st.desc.Width), int32(st.desc.Height)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, st.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, dt.fbo)
	gl.BlitFramebuffer(0, 0, w, h, 0, 0, w, h, gl.COLOR_BUFFER_BIT, gl.NEAREST)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return glError("copy texture")
}

func (d *Device) BindTexture(unit int, id gpu.TextureID) {
	var name uint32
	if t := d.textures[id]; t != nil {
		name = t.id
	}
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, name)
}

func (d *Device) ReadTexture(id gpu.TextureID) ([]float32, error) {
	if id == gpu.Display {
		out := make([]float32, d.displayW*d.displayH*4)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
		gl.ReadPixels(0, 0, int32(d.displayW), int32(d.displayH), gl.RGBA, gl.FLOAT, gl.Ptr(out))
		return out, glError("read display")
	}
	t := d.textures[id]
	if t == nil {
		return nil, fmt.Errorf("read: unknown texture %d", id)
	}
	out := make([]float32, t.desc.Width*t.desc.Height*t.desc.Format.Channels())
	_, format := glFormat(t.desc.Format)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, t.fbo)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(t.desc.Width), int32(t.desc.Height), format, gl.FLOAT, gl.Ptr(out))
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
	return out, glError("read texture")
}

func (d *Device) BindTarget(id gpu.TextureID) {
	if id == gpu.Display {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		return
	}
	t := d.textures[id]
	if t == nil {
		panic(fmt.Sprintf("opengl: unknown render target %d", id))
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
}

func (d *Device) Viewport(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
}

func (d *Device) Clear(c gpu.Color) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// DrawQuad issues the two-triangle draw. Blending and culling set up by the
// host renderer are switched off so passes write raw values.
func (d *Device) DrawQuad() {
	gl.Disable(gl.BLEND)
	gl.Disable(gl.CULL_FACE)
	gl.Disable(gl.DEPTH_TEST)
	gl.BindVertexArray(d.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
}

func (d *Device) DisplaySize() (int, int) {
	return d.displayW, d.displayH
}

// Timer returns the device's GPU timer.
func (d *Device) Timer() gpu.Timer { return &d.timer }

// EndFrame hands the context back in the state raylib's batch renderer
// expects.
func (d *Device) EndFrame() {
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.Viewport(0, 0, int32(d.displayW), int32(d.displayH))
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.CULL_FACE)
}

func glError(op string) error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("%s: gl error 0x%x", op, code)
	}
	return nil
}

var _ gpu.Device = (*Device)(nil)
