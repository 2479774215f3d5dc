// Package sand runs a falling-sand pile on the field and pass stack. Heights
// live in an R8 texture as grains/255; clicks drop grains, avalanche passes
// relax steep slopes, and the pile is drawn lit by a light that circles it.
package sand

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/pass"
	"github.com/pthm-cable/fluid/shaders"
	"github.com/pthm-cable/fluid/sim"
)

// MaxGrains is the tallest column an R8 cell can hold.
const MaxGrains = 255

type dropPass struct{ *pass.Pass }

var dropSchema = pass.Schema{
	{Name: "u_sand", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
	{Name: "u_scale", Kind: gpu.KindFloat},
	{Name: "u_amount", Kind: gpu.KindFloat},
	{Name: "u_location", Kind: gpu.KindVec2},
}

func (p dropPass) SetArguments(sand *field.Field, amount int, location gpu.Vec2) {
	p.Pass.SetArguments(pass.Tex(sand), pass.V2(sand.TexelSize()), pass.Float(MaxGrains),
		pass.Float(float32(amount)), pass.V2(location))
}

type avalanchePass struct{ *pass.Pass }

var avalancheSchema = pass.Schema{
	{Name: "u_sand", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
	{Name: "u_scale", Kind: gpu.KindFloat},
	{Name: "u_threshold", Kind: gpu.KindFloat},
}

func (p avalanchePass) SetArguments(sand *field.Field, threshold int) {
	p.Pass.SetArguments(pass.Tex(sand), pass.V2(sand.TexelSize()), pass.Float(MaxGrains), pass.Float(float32(threshold)))
}

type shadowPass struct{ *pass.Pass }

var shadowSchema = pass.Schema{
	{Name: "u_sand", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
	{Name: "u_light", Kind: gpu.KindVec2},
	{Name: "u_slope", Kind: gpu.KindFloat},
	{Name: "u_scale", Kind: gpu.KindFloat},
}

func (p shadowPass) SetArguments(sand *field.Field, light gpu.Vec2, slope float32) {
	p.Pass.SetArguments(pass.Tex(sand), pass.V2(sand.TexelSize()), pass.V2(light), pass.Float(slope), pass.Float(MaxGrains))
}

// Options configures a Game.
type Options struct {
	Width, Height int
	// Threshold is the height step, in grains, above which a grain slides
	// to the lower neighbour. Values below 3 could overflow a cell.
	Threshold int
	// DropAmount is the number of grains one click adds.
	DropAmount int
	// Elevation is the light's angle above the ground, in radians.
	Elevation float64
	// HeightScale is how many texels of height one grain stands for.
	HeightScale float64
	// RotationPeriod is the time the light takes to circle the pile once.
	RotationPeriod    time.Duration
	AvalanchesPerStep int
	Background        gpu.Color
}

func (o Options) validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return fmt.Errorf("sand: board %dx%d must be positive", o.Width, o.Height)
	case o.Threshold < 3:
		return fmt.Errorf("sand: threshold %d below 3", o.Threshold)
	case o.DropAmount < 1 || o.DropAmount > MaxGrains:
		return fmt.Errorf("sand: drop amount %d outside [1,%d]", o.DropAmount, MaxGrains)
	case o.Elevation <= 0 || o.Elevation >= math.Pi/2:
		return fmt.Errorf("sand: light elevation %v outside (0, pi/2)", o.Elevation)
	case o.HeightScale <= 0:
		return fmt.Errorf("sand: height scale %v must be positive", o.HeightScale)
	case o.RotationPeriod <= 0:
		return fmt.Errorf("sand: rotation period %v must be positive", o.RotationPeriod)
	case o.AvalanchesPerStep < 0:
		return fmt.Errorf("sand: %d avalanches per step", o.AvalanchesPerStep)
	}
	return nil
}

// Game owns the pile and the programs that shape and light it.
type Game struct {
	dev       gpu.Device
	comp      *pass.Compositor
	drop      dropPass
	avalanche avalanchePass
	shadow    shadowPass
	sand      *field.Pair
	opts      Options

	clicks   uint64
	rotating bool
	angle    float64
	lastTime time.Duration
	started  bool
}

// New builds a game on heights, one grain count per cell (see Flat and
// Pile). The light starts rotating.
func New(dev gpu.Device, opts Options, heights []float32) (_ *Game, err error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if len(heights) != opts.Width*opts.Height {
		return nil, fmt.Errorf("sand: %d heights for a %dx%d board", len(heights), opts.Width, opts.Height)
	}
	desc := gpu.TextureDesc{
		Width:  opts.Width,
		Height: opts.Height,
		Format: gpu.FormatR8,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapClamp,
	}
	g := &Game{dev: dev, comp: pass.NewCompositor(dev, opts.Background), opts: opts, rotating: true}
	defer func() {
		if err != nil {
			g.Release()
		}
	}()

	data := make([]float32, len(heights))
	for i, h := range heights {
		data[i] = min(max(h, 0), MaxGrains) / MaxGrains
	}
	if g.sand, err = field.NewPair(dev, desc, data); err != nil {
		return nil, fmt.Errorf("sand board: %w", err)
	}
	p, err := pass.Compile(dev, shaders.Drop.Source(), dropSchema)
	if err != nil {
		return nil, fmt.Errorf("drop pass: %w", err)
	}
	g.drop = dropPass{p}
	if p, err = pass.Compile(dev, shaders.Avalanche.Source(), avalancheSchema); err != nil {
		return nil, fmt.Errorf("avalanche pass: %w", err)
	}
	g.avalanche = avalanchePass{p}
	if p, err = pass.Compile(dev, shaders.Shadow.Source(), shadowSchema); err != nil {
		return nil, fmt.Errorf("shadow pass: %w", err)
	}
	g.shadow = shadowPass{p}
	return g, nil
}

// Step drops grains on a new click, relaxes the pile, advances the light
// and presents the shaded pile.
func (g *Game) Step(frame sim.Frame, in input.Sample) error {
	if in.Valid && in.Clicks != g.clicks {
		g.clicks = in.Clicks
		g.drop.SetArguments(g.sand.Read(), g.opts.DropAmount, gpu.Vec2{X: in.X, Y: in.Y})
		g.comp.Blit(g.sand.Write())
		g.sand.Swap()
	}

	for i := 0; i < g.opts.AvalanchesPerStep; i++ {
		g.avalanche.SetArguments(g.sand.Read(), g.opts.Threshold)
		g.comp.Blit(g.sand.Write())
		g.sand.Swap()
	}

	if g.started && g.rotating {
		turn := float64(frame.Time-g.lastTime) / float64(g.opts.RotationPeriod)
		g.angle = math.Mod(g.angle+2*math.Pi*turn, 2*math.Pi)
	}
	g.started = true
	g.lastTime = frame.Time

	g.shadow.SetArguments(g.sand.Read(), g.Light(), g.slope())
	g.comp.Blit(nil)
	g.dev.EndFrame()
	return nil
}

// Light returns the unit direction toward the light in texel steps.
func (g *Game) Light() gpu.Vec2 {
	return gpu.Vec2{X: float32(math.Cos(g.angle)), Y: float32(math.Sin(g.angle))}
}

func (g *Game) slope() float32 {
	return float32(math.Tan(g.opts.Elevation) / g.opts.HeightScale)
}

// Toggle starts or stops the light's rotation.
func (g *Game) Toggle() { g.rotating = !g.rotating }

// Rotating reports whether the light is moving.
func (g *Game) Rotating() bool { return g.rotating }

// LightAngle returns the light's azimuth in radians, in [0, 2pi).
func (g *Game) LightAngle() float64 { return g.angle }

// Sand returns the current height field.
func (g *Game) Sand() *field.Field { return g.sand.Read() }

// Heights reads the pile back as grain counts.
func (g *Game) Heights() ([]int, error) {
	px, err := g.sand.Read().Pixels()
	if err != nil {
		return nil, err
	}
	out := make([]int, len(px))
	for i, v := range px {
		out[i] = int(math.Round(float64(v * MaxGrains)))
	}
	return out, nil
}

// Release frees the pile and programs. Safe on a partially built game.
func (g *Game) Release() {
	if g.sand != nil {
		g.sand.Release()
	}
	for _, p := range []*pass.Pass{g.drop.Pass, g.avalanche.Pass, g.shadow.Pass} {
		if p != nil {
			p.Release()
		}
	}
}

// Flat returns an empty board.
func Flat(w, h int) []float32 {
	return make([]float32, w*h)
}

// Pile returns a board with a cone of the given peak height at the centre,
// losing one grain per texel of distance.
func Pile(w, h, peak int) []float32 {
	heights := Flat(w, h)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			heights[y*w+x] = float32(max(0, math.Floor(float64(peak)-d)))
		}
	}
	return heights
}

// Total returns the number of grains on a board.
func Total(heights []int) int {
	n := 0
	for _, h := range heights {
		n += h
	}
	return n
}
