package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
	"github.com/Carmen-Shannon/oxy-tiles/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the animation tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window the engine reads input from and runs the message loop of.
// Without a window the engine runs headless and Run blocks until Quit.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene attaches the map view during engine construction.
//
// Parameters:
//   - s: the Scene to drive
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithTileset records the tileset the scene's initial registry was built from. It is released
// when a reload replaces it.
//
// Parameters:
//   - ts: the tileset
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTileset(ts *tileset.Tileset) EngineBuilderOption {
	return func(e *engine) {
		e.tileset = ts
	}
}

// WithQueueSize sets the capacity of the submission queue.
//
// Parameters:
//   - n: the capacity, ignored if <= 0
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithQueueSize(n int) EngineBuilderOption {
	return func(e *engine) {
		if n > 0 {
			e.submissions = make(chan submission, n)
		}
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
