package engine

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/profiler"
	"github.com/Carmen-Shannon/oxy-tiles/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiles/engine/signal"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
	"github.com/Carmen-Shannon/oxy-tiles/engine/window"
)

var (
	// ErrStopped is returned by calls made after Quit.
	ErrStopped = errors.New("engine: stopped")
	// ErrQueueFull is returned by Submit when the render goroutine is behind.
	ErrQueueFull = errors.New("engine: submission queue full")
	// ErrNoScene is returned when an operation needs a scene and none is attached.
	ErrNoScene = errors.New("engine: no scene")
)

const (
	// DefaultQueueSize is the capacity of the submission channel.
	DefaultQueueSize = 16

	// maxTicksPerFrame caps how many pending animation ticks one frame catches up on.
	maxTicksPerFrame = 4
)

type submission struct {
	sprites common.Sprites
	z       int32
}

type reloadRequest struct {
	ts   *tileset.Tileset
	done chan error
}

// Status is a snapshot of the map view, served by the feed.
type Status struct {
	Running     bool                 `json:"running"`
	Mounted     bool                 `json:"mounted"`
	ZLevel      int32                `json:"z_level"`
	GridVisible bool                 `json:"grid_visible"`
	Tileset     string               `json:"tileset"`
	Pending     int                  `json:"pending_submissions"`
	Surfaces    []scene.SurfaceStats `json:"surfaces"`
}

// engine implements the Engine interface.
// Coordinates the animation tick, render, and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel  chan struct{}
	quitOnce     sync.Once // Ensures quitChannel is only closed once
	shutdownOnce sync.Once

	window window.Window
	scene  scene.Scene

	tileset *tileset.Tileset

	submissions chan submission
	reloads     chan reloadRequest
	resizes     chan [2]int

	gridBus   *signal.Bus[signal.GridToggle]
	zLevelBus *signal.Bus[signal.ZLevelChange]

	// pendingTicks counts animation ticks fired by the engine loop and not yet run by the
	// render loop.
	pendingTicks atomic.Int32

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine drives one map view. It runs a fixed-rate animation tick loop and a render loop in
// their own goroutines, while the window's message loop runs on the calling thread.
//
// Every mutation of the map (placements, z-level, grid, tileset) is queued and applied by the
// render goroutine at the top of the next frame, so Engine methods are safe to call from any
// goroutine.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the attached map view.
	//
	// Returns:
	//   - scene.Scene: the scene or nil
	Scene() scene.Scene

	// SetScene attaches the map view. Must be called before Run.
	//
	// Parameters:
	//   - s: the scene
	SetScene(s scene.Scene)

	// GridBus returns the bus grid toggles are published on.
	GridBus() *signal.Bus[signal.GridToggle]

	// ZLevelBus returns the bus z-level changes are published on.
	ZLevelBus() *signal.Bus[signal.ZLevelChange]

	// Tileset returns the tileset the current registry was built from.
	//
	// Returns:
	//   - *tileset.Tileset: the tileset or nil
	Tileset() *tileset.Tileset

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the animation tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers a function called on the engine goroutine every tick.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers a function called on the render goroutine after every frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Submit queues a placement batch in grid cells, drawn on level z.
	//
	// Parameters:
	//   - sprites: the placement batch
	//   - z: the z-level to display
	//
	// Returns:
	//   - error: ErrStopped after Quit, ErrQueueFull if the queue is full
	Submit(sprites common.Sprites, z int32) error

	// SetGridVisible queues a grid visibility change.
	//
	// Parameters:
	//   - visible: true to show the grid
	//
	// Returns:
	//   - bool: false if the signal was dropped
	SetGridVisible(visible bool) bool

	// ToggleGrid queues a grid visibility flip.
	//
	// Returns:
	//   - bool: false if the signal was dropped
	ToggleGrid() bool

	// SetZLevel queues a switch to level z.
	//
	// Parameters:
	//   - z: the new z-level
	//
	// Returns:
	//   - bool: false if the signal was dropped
	SetZLevel(z int32) bool

	// ShiftZLevel queues a relative z-level change.
	//
	// Parameters:
	//   - delta: levels to move, positive is up
	//
	// Returns:
	//   - bool: false if the signal was dropped
	ShiftZLevel(delta int32) bool

	// ReloadTileset replaces the registry with one built from ts and blocks until the render
	// goroutine has swapped it in. The previous tileset is released.
	//
	// Parameters:
	//   - ts: the new tileset
	//
	// Returns:
	//   - error: an error if the registry could not be built or uploaded, or the engine stopped
	ReloadTileset(ts *tileset.Tileset) error

	// Status returns a snapshot of the map view.
	//
	// Returns:
	//   - Status: the snapshot
	Status() Status

	// Run mounts the scene, starts the engine and render goroutines and runs the window's
	// message loop until the window closes or Quit is called. Blocks.
	//
	// Returns:
	//   - error: an error if no scene is attached or the scene could not be mounted
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()

	// Done returns a channel closed by Quit.
	Done() <-chan struct{}
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, tileset, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		submissions:     make(chan submission, DefaultQueueSize),
		reloads:         make(chan reloadRequest),
		resizes:         make(chan [2]int, 1),
		gridBus:         signal.NewBus[signal.GridToggle]("grid", signal.DefaultQueueSize),
		zLevelBus:       signal.NewBus[signal.ZLevelChange]("zlevel", signal.DefaultQueueSize),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	e.profiler = profiler.NewProfiler(profiler.WithStatsSource(e.statsLine))

	if e.window != nil {
		e.bindInput(e.window)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

func (e *engine) SetScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene = s
}

func (e *engine) GridBus() *signal.Bus[signal.GridToggle] {
	return e.gridBus
}

func (e *engine) ZLevelBus() *signal.Bus[signal.ZLevelChange] {
	return e.zLevelBus
}

func (e *engine) Tileset() *tileset.Tileset {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tileset
}

func (e *engine) Done() <-chan struct{} {
	return e.quitChannel
}

func (e *engine) Run() error {
	s := e.Scene()
	if s == nil {
		return ErrNoScene
	}

	w, h := 1, 1
	if e.window != nil {
		w, h = e.window.Width(), e.window.Height()
	}
	if err := s.Mount(w, h); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	e.running.Store(true)
	e.handle()

	if e.window != nil {
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.wg.Wait()
				e.shutdown()
			default:
			}
		})
		e.window.ProcessMessages()
	} else {
		<-e.quitChannel
	}

	e.signalQuit()
	e.wg.Wait()
	e.shutdown()
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// shutdown unmounts the scene and closes the window once the render goroutine has exited.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		if s := e.Scene(); s != nil {
			s.Unmount()
		}
		if e.window != nil {
			if err := e.window.Close(); err != nil {
				log.Printf("[Engine] close window: %v", err)
			}
		}
		log.Printf("[Engine] stopped")
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop. Each tick queues one animation step for the
// render goroutine and fires the tick callback.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.pendingTicks.Load() < maxTicksPerFrame {
				e.pendingTicks.Add(1)
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop. Recovers from panics, logs them and quits.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.frame(); err != nil {
				log.Printf("[Engine] frame: %v", err)
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled && e.profiler != nil {
				e.profiler.Tick()
			}

			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// frame runs one iteration of the render loop: inbound work, animation, then the draw.
func (e *engine) frame() error {
	s := e.Scene()
	if s == nil {
		return nil
	}

	e.drainInbound(s)

	for n := e.pendingTicks.Swap(0); n > 0; n-- {
		s.Tick()
	}

	return s.Render()
}

// drainInbound applies every queued resize, tileset reload, bus signal and submission.
func (e *engine) drainInbound(s scene.Scene) {
	select {
	case size := <-e.resizes:
		s.Resize(size[0], size[1])
	default:
	}

	select {
	case req := <-e.reloads:
		req.done <- e.applyTileset(s, req.ts)
	default:
	}

	e.gridBus.Drain()
	e.zLevelBus.Drain()

	for {
		select {
		case sub := <-e.submissions:
			s.Submit(sub.sprites, sub.z)
		default:
			return
		}
	}
}

func (e *engine) applyTileset(s scene.Scene, ts *tileset.Tileset) error {
	reg, err := ts.NewRegistry()
	if err != nil {
		return fmt.Errorf("engine: reload tileset %q: %w", ts.Name, err)
	}
	// The scene disposes the previous registry even when the upload fails, so the tileset is
	// swapped either way.
	setErr := s.SetRegistry(reg)

	e.mu.Lock()
	prev := e.tileset
	e.tileset = ts
	e.mu.Unlock()
	if prev != nil && prev != ts {
		prev.Release()
	}
	if setErr != nil {
		return fmt.Errorf("engine: reload tileset %q: %w", ts.Name, setErr)
	}
	log.Printf("[Engine] tileset %s loaded", ts.Name)
	return nil
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) Submit(sprites common.Sprites, z int32) error {
	select {
	case <-e.quitChannel:
		return ErrStopped
	default:
	}
	select {
	case e.submissions <- submission{sprites: sprites, z: z}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *engine) SetGridVisible(visible bool) bool {
	return e.gridBus.Publish(signal.GridToggle{Visible: visible})
}

func (e *engine) ToggleGrid() bool {
	return e.gridBus.Publish(signal.GridToggle{Flip: true})
}

func (e *engine) SetZLevel(z int32) bool {
	return e.zLevelBus.Publish(signal.ZLevelChange{Z: z})
}

func (e *engine) ShiftZLevel(delta int32) bool {
	return e.zLevelBus.Publish(signal.ZLevelChange{Delta: delta, Relative: true})
}

func (e *engine) ReloadTileset(ts *tileset.Tileset) error {
	if ts == nil {
		return errors.New("engine: nil tileset")
	}
	s := e.Scene()
	if s == nil {
		return ErrNoScene
	}

	// Before Run there is no render goroutine; swap in place.
	if !e.running.Load() {
		select {
		case <-e.quitChannel:
			return ErrStopped
		default:
		}
		return e.applyTileset(s, ts)
	}

	req := reloadRequest{ts: ts, done: make(chan error, 1)}
	select {
	case e.reloads <- req:
	case <-e.quitChannel:
		return ErrStopped
	}
	select {
	case err := <-req.done:
		return err
	case <-e.quitChannel:
		return ErrStopped
	}
}

func (e *engine) Status() Status {
	st := Status{
		Running: e.running.Load(),
		Pending: len(e.submissions),
	}
	if ts := e.Tileset(); ts != nil {
		st.Tileset = ts.Name
	}
	s := e.Scene()
	if s == nil {
		return st
	}
	st.Mounted = s.Mounted()
	st.ZLevel = s.ZLevel()
	if g := s.Grid(); g != nil {
		st.GridVisible = g.Visible()
	}
	st.Surfaces = s.Stats()
	return st
}

// statsLine is the profiler's stats source: the z-level and the visible count of every
// non-empty surface.
func (e *engine) statsLine() string {
	s := e.Scene()
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Z: %d", s.ZLevel())
	for _, st := range s.Stats() {
		if st.Visible == 0 {
			continue
		}
		fmt.Fprintf(&b, " | %s: %d", st.Name, st.Visible)
	}
	return b.String()
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the animation tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Replace any pending update.
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
