// Package field provides device-resident 2D grids and the double-buffered
// pairs the solver ping-pongs between.
package field

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/fluid/gpu"
)

var (
	// ErrArgumentMismatch is matched by every incompatible-field error.
	ErrArgumentMismatch = errors.New("field argument mismatch")
	// ErrSizeMismatch reports fields with different dimensions.
	ErrSizeMismatch = errors.New("field size mismatch")
	// ErrFormatMismatch reports fields with different formats.
	ErrFormatMismatch = errors.New("field format mismatch")
)

// Field is a grid of texels in device storage together with the render
// target that writes to it. Both share one device handle, so a Field's
// target can never address another Field's storage.
type Field struct {
	dev      gpu.Device
	id       gpu.TextureID
	desc     gpu.TextureDesc
	texel    gpu.Vec2
	released bool
}

// New allocates a field. data, when non-nil, must hold exactly
// width*height*channels values in row-major order with row 0 at the bottom.
// A nil data leaves contents device-defined; clear before reading.
func New(dev gpu.Device, desc gpu.TextureDesc, data []float32) (*Field, error) {
	if want := desc.Width * desc.Height * desc.Format.Channels(); data != nil && len(data) != want {
		return nil, fmt.Errorf("%w: %dx%d %s field needs %d values, got %d",
			gpu.ErrSetupFailure, desc.Width, desc.Height, desc.Format, want, len(data))
	}
	id, err := dev.NewTexture(desc, data)
	if err != nil {
		return nil, fmt.Errorf("allocating %dx%d %s field: %w", desc.Width, desc.Height, desc.Format, err)
	}
	return &Field{
		dev:  dev,
		id:   id,
		desc: desc,
		texel: gpu.Vec2{
			X: 1 / float32(desc.Width),
			Y: 1 / float32(desc.Height),
		},
	}, nil
}

func (f *Field) Width() int         { return f.desc.Width }
func (f *Field) Height() int        { return f.desc.Height }
func (f *Field) Format() gpu.Format { return f.desc.Format }

// TexelSize returns (1/width, 1/height).
func (f *Field) TexelSize() gpu.Vec2 { return f.texel }

// Texture returns the device handle, which addresses both the storage and
// the render target.
func (f *Field) Texture() gpu.TextureID {
	f.mustLive()
	return f.id
}

// Attach binds the field's storage to texture unit unit and returns unit,
// ready to be handed to a sampler uniform.
func (f *Field) Attach(unit int) int {
	f.mustLive()
	f.dev.BindTexture(unit, f.id)
	return unit
}

// CopyFrom replaces the field's contents with src's current contents.
func (f *Field) CopyFrom(src *Field) error {
	f.mustLive()
	src.mustLive()
	if f.desc.Width != src.desc.Width || f.desc.Height != src.desc.Height {
		return fmt.Errorf("%w: %w: copy %dx%d into %dx%d", ErrArgumentMismatch, ErrSizeMismatch,
			src.desc.Width, src.desc.Height, f.desc.Width, f.desc.Height)
	}
	if f.desc.Format != src.desc.Format {
		return fmt.Errorf("%w: %w: copy %s into %s", ErrArgumentMismatch, ErrFormatMismatch,
			src.desc.Format, f.desc.Format)
	}
	if err := f.dev.CopyTexture(f.id, src.id); err != nil {
		return fmt.Errorf("copying field: %w", err)
	}
	return nil
}

// Pixels reads the field back from the device.
func (f *Field) Pixels() ([]float32, error) {
	f.mustLive()
	return f.dev.ReadTexture(f.id)
}

// Release frees the storage and render target. Any later use panics.
func (f *Field) Release() {
	if f.released {
		return
	}
	f.dev.DeleteTexture(f.id)
	f.released = true
}

func (f *Field) mustLive() {
	if f.released {
		panic(fmt.Sprintf("field: use of released %dx%d %s field", f.desc.Width, f.desc.Height, f.desc.Format))
	}
}
