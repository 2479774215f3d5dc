// Package app hosts a simulation in a raylib window: it owns the GL
// context, paces frames, feeds pointer input and draws the HUD.
package app

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/gpu/opengl"
)

// Options configures the window.
type Options struct {
	Title         string
	Width, Height int
	TargetFPS     int
}

// Window is an open raylib window with an OpenGL device bound to its
// context. The window cannot be resized after it is opened.
type Window struct {
	dev    *opengl.Device
	sched  *WindowScheduler
	mouse  *Mouse
	width  int32
	height int32
}

// Open creates the window and the device. It must be called on the locked
// main thread.
func Open(opts Options) (*Window, error) {
	rl.SetConfigFlags(rl.FlagVsyncHint)
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, fmt.Errorf("opening window %dx%d failed", opts.Width, opts.Height)
	}
	rl.SetTargetFPS(int32(opts.TargetFPS))
	rl.SetExitKey(rl.KeyEscape)

	// Drawable size can differ from the requested size on HiDPI displays.
	w, h := rl.GetRenderWidth(), rl.GetRenderHeight()
	dev, err := opengl.New(w, h)
	if err != nil {
		rl.CloseWindow()
		return nil, err
	}
	slog.Info("window opened", "width", w, "height", h, "target_fps", opts.TargetFPS)

	sched := NewWindowScheduler()
	return &Window{
		dev:    dev,
		sched:  sched,
		mouse:  NewMouse(sched.Elapsed),
		width:  int32(rl.GetScreenWidth()),
		height: int32(rl.GetScreenHeight()),
	}, nil
}

func (w *Window) Device() *opengl.Device      { return w.dev }
func (w *Window) Scheduler() *WindowScheduler { return w.sched }
func (w *Window) Mouse() *Mouse               { return w.mouse }
func (w *Window) Size() (width, height int32) { return w.width, w.height }

// Run dispatches one frame per display refresh until the window is closed
// or maxFrames frames have run (0 = unlimited). overlay draws on top of
// the composited frame and may be nil.
func (w *Window) Run(maxFrames uint64, overlay func()) {
	for !rl.WindowShouldClose() {
		rl.BeginDrawing()
		w.sched.Tick()
		if overlay != nil {
			overlay()
		}
		rl.EndDrawing()

		if maxFrames > 0 && w.sched.Frames() >= maxFrames {
			slog.Info("max frames reached", "frame", w.sched.Frames())
			return
		}
	}
}

// Close releases the device and closes the window.
func (w *Window) Close() {
	w.dev.Close()
	rl.CloseWindow()
}
