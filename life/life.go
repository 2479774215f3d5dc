// Package life runs Conway's Game of Life on the field and pass stack: an
// RGBA8 toroidal board advanced by a fragment program at a fixed interval.
package life

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/pthm-cable/fluid/field"
	"github.com/pthm-cable/fluid/gpu"
	"github.com/pthm-cable/fluid/input"
	"github.com/pthm-cable/fluid/pass"
	"github.com/pthm-cable/fluid/shaders"
	"github.com/pthm-cable/fluid/sim"
)

type lifePass struct{ *pass.Pass }

var lifeSchema = pass.Schema{
	{Name: "u_board", Kind: gpu.KindSampler},
	{Name: "u_texel_size", Kind: gpu.KindVec2},
}

func (p lifePass) SetArguments(board *field.Field) {
	p.Pass.SetArguments(pass.Tex(board), pass.V2(board.TexelSize()))
}

type stampPass struct{ *pass.Pass }

var stampSchema = pass.Schema{
	{Name: "u_board", Kind: gpu.KindSampler},
	{Name: "u_location", Kind: gpu.KindVec2},
	{Name: "u_radius", Kind: gpu.KindFloat},
}

func (p stampPass) SetArguments(board *field.Field, location gpu.Vec2, radius float32) {
	p.Pass.SetArguments(pass.Tex(board), pass.V2(location), pass.Float(radius))
}

// Options configures a Game.
type Options struct {
	Width, Height int
	// Interval is the minimum time between generations.
	Interval time.Duration
	// StampRadius is the seeding radius in uv units.
	StampRadius float32
	Background  gpu.Color
}

// Game owns the board and the programs that advance and show it.
type Game struct {
	dev     gpu.Device
	comp    *pass.Compositor
	life    lifePass
	stamp   stampPass
	display sim.DisplayPass
	board   *field.Pair
	opts    Options

	generations uint64
	lastGen     time.Duration
	stepped     bool
	clicks      uint64
}

// New builds a game seeded with cells. cells must hold Width*Height RGBA
// values; see Glider and Random.
func New(dev gpu.Device, opts Options, cells []float32) (_ *Game, err error) {
	desc := gpu.TextureDesc{
		Width:  opts.Width,
		Height: opts.Height,
		Format: gpu.FormatRGBA8,
		Filter: gpu.FilterNearest,
		Wrap:   gpu.WrapRepeat,
	}
	g := &Game{dev: dev, comp: pass.NewCompositor(dev, opts.Background), opts: opts}
	defer func() {
		if err != nil {
			g.Release()
		}
	}()

	if g.board, err = field.NewPair(dev, desc, cells); err != nil {
		return nil, fmt.Errorf("life board: %w", err)
	}
	p, err := pass.Compile(dev, shaders.Life.Source(), lifeSchema)
	if err != nil {
		return nil, fmt.Errorf("life pass: %w", err)
	}
	g.life = lifePass{p}
	if p, err = pass.Compile(dev, shaders.Stamp.Source(), stampSchema); err != nil {
		return nil, fmt.Errorf("stamp pass: %w", err)
	}
	g.stamp = stampPass{p}
	if g.display, err = sim.NewDisplayPass(dev); err != nil {
		return nil, fmt.Errorf("display pass: %w", err)
	}
	return g, nil
}

// Step seeds cells on a new click, advances one generation when the
// interval has elapsed, and presents the board.
func (g *Game) Step(frame sim.Frame, in input.Sample) error {
	if in.Valid && in.Clicks != g.clicks {
		g.clicks = in.Clicks
		g.stamp.SetArguments(g.board.Read(), gpu.Vec2{X: in.X, Y: in.Y}, g.opts.StampRadius)
		g.comp.Blit(g.board.Write())
		g.board.Swap()
	}

	if !g.stepped || frame.Time-g.lastGen > g.opts.Interval {
		g.stepped = true
		g.lastGen = frame.Time
		g.life.SetArguments(g.board.Read())
		g.comp.Blit(g.board.Write())
		g.board.Swap()
		g.generations++
	}

	g.display.SetArguments(g.board.Read())
	g.comp.Blit(nil)
	g.dev.EndFrame()
	return nil
}

// Generations returns the number of generations computed so far.
func (g *Game) Generations() uint64 { return g.generations }

// Board returns the current generation.
func (g *Game) Board() *field.Field { return g.board.Read() }

// Release frees the board and programs. Safe on a partially built game.
func (g *Game) Release() {
	if g.board != nil {
		g.board.Release()
	}
	for _, p := range []*pass.Pass{g.life.Pass, g.stamp.Pass, g.display.Pass} {
		if p != nil {
			p.Release()
		}
	}
}

// Glider returns an empty board of opaque dead cells with one glider near
// the centre, travelling one cell along +x and +y every four generations.
func Glider(w, h int) []float32 {
	cells := Empty(w, h)
	cx, cy := w/2, h/2
	for _, c := range [][2]int{{0, -2}, {1, -1}, {-1, 0}, {0, 0}, {1, 0}} {
		set(cells, w, h, cx+c[0], cy+c[1])
	}
	return cells
}

// Random returns a board where each cell is alive with probability density.
func Random(w, h int, density float64, seed int64) []float32 {
	rng := rand.New(rand.NewSource(seed))
	cells := Empty(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Float64() < density {
				set(cells, w, h, x, y)
			}
		}
	}
	return cells
}

// Empty returns a board of dead cells with opaque alpha.
func Empty(w, h int) []float32 {
	cells := make([]float32, w*h*4)
	for i := 3; i < len(cells); i += 4 {
		cells[i] = 1
	}
	return cells
}

// Alive reports whether cell (x, y) of an RGBA board is set.
func Alive(cells []float32, w, x, y int) bool {
	return cells[(y*w+x)*4] >= 0.5
}

func set(cells []float32, w, h, x, y int) {
	x = ((x % w) + w) % w
	y = ((y % h) + h) % h
	i := (y*w + x) * 4
	cells[i], cells[i+1], cells[i+2] = 1, 1, 1
}
