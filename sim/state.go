package sim

import (
	"fmt"
	"time"

	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
)

// Grid fixes the field resolutions for the lifetime of a State.
type Grid struct {
	SimWidth, SimHeight int
	DyeWidth, DyeHeight int
}

// State is every field the solver reads or writes, plus the pointer
// memory used to gate impulses. It is owned by exactly one driver.
type State struct {
	Velocity *field.Pair
	Dye      *field.Pair
	Pressure *field.Pair

	// Offsets is built once and never written.
	Offsets *field.Field
	// Temp holds the diffusion source, then the divergence.
	Temp *field.Field
	// Zero is the copy source for clears.
	Zero *field.Field

	pointer    gpu.Vec2
	hasPointer bool
	lastFrame  time.Duration
}

// NewState allocates all fields. dye seeds the dye read field and may be
// nil for an empty canvas.
func NewState(dev gpu.Device, grid Grid, dye []float32) (st *State, err error) {
	st = &State{}
	var owned []interface{ Release() }
	defer func() {
		if err != nil {
			for _, r := range owned {
				r.Release()
			}
			st = nil
		}
	}()

	sw, sh := grid.SimWidth, grid.SimHeight
	simDesc := gpu.TextureDesc{Width: sw, Height: sh, Format: gpu.FormatRG32F}
	dyeDesc := gpu.TextureDesc{Width: grid.DyeWidth, Height: grid.DyeHeight, Format: gpu.FormatRGBA32F}
	if dye == nil {
		dye = field.Zeros(grid.DyeWidth, grid.DyeHeight, gpu.FormatRGBA32F)
	}

	pair := func(name string, desc gpu.TextureDesc, data []float32) *field.Pair {
		if err != nil {
			return nil
		}
		var p *field.Pair
		p, err = field.NewPair(dev, desc, data)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return nil
		}
		owned = append(owned, p)
		return p
	}
	single := func(name string, data []float32) *field.Field {
		if err != nil {
			return nil
		}
		var f *field.Field
		f, err = field.New(dev, simDesc, data)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)
			return nil
		}
		owned = append(owned, f)
		return f
	}

	st.Velocity = pair("velocity", simDesc, field.Zeros(sw, sh, gpu.FormatRG32F))
	st.Pressure = pair("pressure", simDesc, field.Zeros(sw, sh, gpu.FormatRG32F))
	st.Dye = pair("dye", dyeDesc, dye)
	st.Offsets = single("boundary offsets", field.BoundaryOffsets(sw, sh))
	st.Temp = single("temp", field.Zeros(sw, sh, gpu.FormatRG32F))
	st.Zero = single("zero", field.Zeros(sw, sh, gpu.FormatRG32F))
	return st, err
}

// Release frees every field.
func (st *State) Release() {
	st.Velocity.Release()
	st.Dye.Release()
	st.Pressure.Release()
	st.Offsets.Release()
	st.Temp.Release()
	st.Zero.Release()
}

// InitialDye builds the dye seed for a named preset.
func InitialDye(preset string, w, h int, seed int64) ([]float32, error) {
	switch preset {
	case "blob":
		return field.DyeBlob(w, h), nil
	case "noise":
		return field.DyeNoise(w, h, seed), nil
	case "none":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown dye preset %q", preset)
}
