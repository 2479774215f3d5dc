package pass

import (
	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
)

// Compositor draws the full-screen quad that executes the active program.
type Compositor struct {
	dev        gpu.Device
	background gpu.Color
}

func NewCompositor(dev gpu.Device, background gpu.Color) *Compositor {
	return &Compositor{dev: dev, background: background}
}

// Blit renders the active program over the whole of target, or over the
// display when target is nil. The target is cleared to the background
// colour first.
func (c *Compositor) Blit(target *field.Field) {
	if target == nil {
		w, h := c.dev.DisplaySize()
		c.dev.BindTarget(gpu.Display)
		c.dev.Viewport(w, h)
	} else {
		c.dev.BindTarget(target.Texture())
		c.dev.Viewport(target.Width(), target.Height())
	}
	c.dev.Clear(c.background)
	c.dev.DrawQuad()
}

// Run applies args to p and blits into target.
func (c *Compositor) Run(p *Pass, target *field.Field, args ...Arg) {
	p.SetArguments(args...)
	c.Blit(target)
}
