package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies a mouse button in button callbacks.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Action is a map view command produced from key input.
type Action int

const (
	ActionToggleGrid Action = iota
	ActionLevelUp
	ActionLevelDown
	ActionResetView
	ActionZoomIn
	ActionZoomOut
	ActionPanUp
	ActionPanDown
	ActionPanLeft
	ActionPanRight
)

func (a Action) String() string {
	switch a {
	case ActionToggleGrid:
		return "toggle-grid"
	case ActionLevelUp:
		return "level-up"
	case ActionLevelDown:
		return "level-down"
	case ActionResetView:
		return "reset-view"
	case ActionZoomIn:
		return "zoom-in"
	case ActionZoomOut:
		return "zoom-out"
	case ActionPanUp:
		return "pan-up"
	case ActionPanDown:
		return "pan-down"
	case ActionPanLeft:
		return "pan-left"
	case ActionPanRight:
		return "pan-right"
	default:
		return "unknown"
	}
}

// Window is a native window that owns the GPU surface and forwards input to callbacks.
// Callbacks run on the thread that calls ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function called once per message-loop iteration.
	//
	// Parameters:
	//   - callback: the per-frame function
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size.
	//
	// Parameters:
	//   - callback: receives the width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function called with the vertical scroll offset.
	//
	// Parameters:
	//   - callback: receives the scroll delta, positive away from the user
	SetScrollCallback(callback func(delta float32))

	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseDownCallback sets the function called when a mouse button is pressed.
	//
	// Parameters:
	//   - callback: receives the button and the cursor position
	SetMouseDownCallback(callback func(button MouseButton, x, y int32))

	// SetMouseUpCallback sets the function called when a mouse button is released.
	//
	// Parameters:
	//   - callback: receives the button and the cursor position
	SetMouseUpCallback(callback func(button MouseButton, x, y int32))

	SetMouseMoveCallback(callback func(x, y int32))

	// SetActionCallback sets the function called with the map view action bound to a pressed key.
	// Pan and zoom actions repeat while the key is held; the others fire once per press.
	//
	// Parameters:
	//   - callback: the function to call
	SetActionCallback(callback func(action Action))

	// SetDragCallback sets the function called with the cursor movement in pixels while the left
	// mouse button is held.
	//
	// Parameters:
	//   - callback: the function to call
	SetDragCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns the descriptor used to create the WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, nil if the window failed to open
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	IsRunning() bool

	// Close destroys the native window.
	//
	// Returns:
	//   - error: an error if the window was never opened
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling the update callback
	// once per iteration. Blocks.
	ProcessMessages()

	Width() int
	Height() int
}

type engineWindow struct {
	title string

	minWidth  int
	minHeight int
	width     int
	height    int

	internalWindow any

	onUpdate    func()
	onResize    func(width, height int)
	onScroll    func(delta float32)
	onKeyDown   func(keyCode uint32)
	onKeyUp     func(keyCode uint32)
	onMouseDown func(button MouseButton, x, y int32)
	onMouseUp   func(button MouseButton, x, y int32)
	onMouseMove func(x, y int32)
	onAction    func(action Action)
	onDrag      func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow opens a native window.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Window: the window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-tiles",
		minWidth:  320,
		minHeight: 240,
		width:     1280,
		height:    720,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseDownCallback(callback func(button MouseButton, x, y int32)) {
	w.onMouseDown = callback
}

func (w *engineWindow) SetMouseUpCallback(callback func(button MouseButton, x, y int32)) {
	w.onMouseUp = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) SetActionCallback(callback func(action Action)) {
	w.onAction = callback
}

func (w *engineWindow) SetDragCallback(callback func(dx, dy float32)) {
	w.onDrag = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
