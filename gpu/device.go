// Package gpu defines the graphics device primitives the field pipeline is
// built on. Two implementations exist: gpu/opengl drives a real GL context,
// gpu/soft evaluates the same programs on the CPU for headless runs and tests.
package gpu

import "errors"

// ErrSetupFailure marks resource allocation and program build failures.
// These abort pipeline construction before any frame is scheduled.
var ErrSetupFailure = errors.New("gpu setup failure")

// TextureID identifies device storage together with its attached render
// target. The zero value is Display.
type TextureID uint32

// Display selects the drawable surface as a render target.
const Display TextureID = 0

// ProgramID identifies a compiled and linked program.
type ProgramID uint32

// Location is a uniform location inside a program. NoLocation marks a name
// the program does not expose.
type Location int32

// NoLocation is returned for uniforms the program does not declare.
const NoLocation Location = -1

// MaxTextureUnits is the number of texture units every device supports.
const MaxTextureUnits = 16

// Vec2 is a pair of float32 values, typically a texel size or position.
type Vec2 struct {
	X, Y float32
}

// Vec4 is the widest uniform value. Narrower kinds use a prefix.
type Vec4 struct {
	X, Y, Z, W float32
}

// XY returns the first two components.
func (v Vec4) XY() Vec2 {
	return Vec2{X: v.X, Y: v.Y}
}

// Color is a clear colour in linear [0,1] components.
type Color struct {
	R, G, B, A float32
}

// TextureDesc describes storage to allocate.
type TextureDesc struct {
	Width  int
	Height int
	Format Format
	Filter Filter
	Wrap   Wrap
}

// ProgramSource carries one shader in every form a device may consume.
// OpenGL compiles Fragment against the shared quad vertex stage; the soft
// device runs Kernel.
type ProgramSource struct {
	Name     string
	Vertex   string
	Fragment string
	Kernel   *Kernel
}

// Device is the set of graphics primitives the pipeline drives.
//
// Uniform and sampler setters apply to the program made active by the most
// recent UseProgram call, mirroring GL semantics. Commands are ordered by
// submission; no explicit synchronisation is needed between passes.
type Device interface {
	NewTexture(desc TextureDesc, data []float32) (TextureID, error)
	DeleteTexture(id TextureID)
	CopyTexture(dst, src TextureID) error
	BindTexture(unit int, id TextureID)
	ReadTexture(id TextureID) ([]float32, error)

	NewProgram(src ProgramSource) (ProgramID, error)
	DeleteProgram(id ProgramID)
	UseProgram(id ProgramID)
	ActiveUniforms(id ProgramID) []Param
	UniformLocation(id ProgramID, name string) Location
	SetSampler(loc Location, unit int)
	SetUniform(loc Location, kind ParamKind, v Vec4)

	BindTarget(id TextureID)
	Viewport(width, height int)
	Clear(c Color)
	DrawQuad()
	DisplaySize() (int, int)

	// EndFrame restores any state the host renderer relies on.
	EndFrame()

	// Timer measures device execution time per phase.
	Timer() Timer
}
