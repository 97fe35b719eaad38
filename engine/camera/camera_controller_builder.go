package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial view centre.
//
// Parameters:
//   - x, y: world-space centre
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(x, y float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = [2]float32{x, y}
	}
}

// WithZoom sets the initial zoom factor (screen pixels per world unit).
//
// Parameters:
//   - zoom: the zoom factor
//
// Returns:
//   - CameraControllerOption: functional option to set the zoom
func WithZoom(zoom float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoom = zoom
	}
}

// WithZoomBounds sets the minimum and maximum zoom factor.
//
// Parameters:
//   - min: the smallest zoom factor (zoomed out)
//   - max: the largest zoom factor (zoomed in)
//
// Returns:
//   - CameraControllerOption: functional option to set zoom bounds
func WithZoomBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minZoom = min
		cc.maxZoom = max
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
//
// Parameters:
//   - speed: the relative zoom change per step
//
// Returns:
//   - CameraControllerOption: functional option to set zoom speed
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithPanSpeed sets the keyboard pan step.
//
// Parameters:
//   - speed: screen pixels per key press
//
// Returns:
//   - CameraControllerOption: functional option to set pan speed
func WithPanSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.panSpeed = speed
	}
}
