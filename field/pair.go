package field

import (
	"fmt"

	"github.com/pthm-cable/fluid/gpu"
)

// Pair is a double-buffered field: passes sample Read and render into
// Write, then Swap. Read and Write never alias.
type Pair struct {
	fields [2]*Field
	parity int
}

// NewPair allocates two fields with the same description. data initialises
// the read side only.
func NewPair(dev gpu.Device, desc gpu.TextureDesc, data []float32) (*Pair, error) {
	a, err := New(dev, desc, data)
	if err != nil {
		return nil, err
	}
	b, err := New(dev, desc, nil)
	if err != nil {
		a.Release()
		return nil, err
	}
	return &Pair{fields: [2]*Field{a, b}}, nil
}

// Read is the current state.
func (p *Pair) Read() *Field { return p.fields[p.parity] }

// Write is the scratch side a pass renders into.
func (p *Pair) Write() *Field { return p.fields[1-p.parity] }

// Swap exchanges the roles of Read and Write without moving data.
func (p *Pair) Swap() { p.parity = 1 - p.parity }

func (p *Pair) TexelSize() gpu.Vec2 { return p.fields[0].TexelSize() }
func (p *Pair) Width() int          { return p.fields[0].Width() }
func (p *Pair) Height() int         { return p.fields[0].Height() }

// Release frees both fields.
func (p *Pair) Release() {
	p.fields[0].Release()
	p.fields[1].Release()
}

func (p *Pair) String() string {
	return fmt.Sprintf("Pair(%dx%d %s, parity %d)", p.Width(), p.Height(), p.fields[0].Format(), p.parity)
}
