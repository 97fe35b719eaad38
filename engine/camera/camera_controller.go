package camera

// CameraController owns the planar state of a top-down map camera: the world point at the
// centre of the view and the zoom factor (screen pixels per world unit).
type CameraController interface {
	// Position returns the world-space point at the centre of the view.
	//
	// Returns:
	//   - x, y: world-space centre
	Position() (x, y float32)

	// SetPosition moves the view centre.
	//
	// Parameters:
	//   - x, y: world-space centre
	SetPosition(x, y float32)

	// Pan moves the view by a screen-space distance. Dragging right moves the map right, so the
	// centre moves left.
	//
	// Parameters:
	//   - dx, dy: the drag distance in screen pixels (y grows downward)
	Pan(dx, dy float32)

	// Zoom scales the zoom factor by (1 + delta*ZoomSpeed), clamped to the zoom bounds.
	// Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom steps, typically the scroll wheel offset
	Zoom(delta float32)

	// ZoomFactor returns the number of screen pixels per world unit.
	//
	// Returns:
	//   - float32: the zoom factor
	ZoomFactor() float32

	// SetZoomFactor sets the zoom factor directly, clamped to the zoom bounds.
	//
	// Parameters:
	//   - zoom: screen pixels per world unit
	SetZoomFactor(zoom float32)

	// ZoomBounds returns the minimum and maximum zoom factor.
	//
	// Returns:
	//   - min, max: the zoom bounds
	ZoomBounds() (min, max float32)

	// PanSpeed returns the keyboard pan step in screen pixels.
	//
	// Returns:
	//   - float32: pixels per key press
	PanSpeed() float32
}
