package app

import (
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/input"
)

// Mouse reports the raylib cursor in normalised display coordinates. A
// sample is valid while the cursor is over the window and not captured by
// a UI widget, and is stamped with the poll time of its last movement.
type Mouse struct {
	clock   func() time.Duration
	tracker input.Tracker
	blocked func(x, y float32) bool
}

// NewMouse reads poll times from clock, which must share the frame clock's
// origin.
func NewMouse(clock func() time.Duration) *Mouse { return &Mouse{clock: clock} }

// Block excludes cursor positions for which fn returns true, in window
// pixels. Used to keep drags on the tuning panel out of the fluid.
func (m *Mouse) Block(fn func(x, y float32) bool) { m.blocked = fn }

// Sample polls the cursor. The frame time is unused: staleness is judged
// against when the cursor last moved.
func (m *Mouse) Sample(time.Duration) input.Sample {
	now := m.clock()
	pos := rl.GetMousePosition()
	if !rl.IsCursorOnScreen() || (m.blocked != nil && m.blocked(pos.X, pos.Y)) {
		return m.tracker.Lost(now)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		m.tracker.Click()
	}
	w, h := float32(rl.GetScreenWidth()), float32(rl.GetScreenHeight())
	return m.tracker.Observe(pos.X/w, 1-pos.Y/h, now)
}
