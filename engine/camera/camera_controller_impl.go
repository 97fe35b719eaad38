package camera

import (
	"sync"
)

// cameraControllerImpl is the implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position [2]float32
	zoom     float32

	minZoom   float32
	maxZoom   float32
	zoomSpeed float32
	panSpeed  float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a new planar camera controller.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:        &sync.Mutex{},
		zoom:      1.0,
		minZoom:   0.05,
		maxZoom:   16.0,
		zoomSpeed: 0.1,
		panSpeed:  32.0,
	}
	for _, option := range options {
		option(cc)
	}
	cc.zoom = cc.clampZoom(cc.zoom)
	return cc
}

func (cc *cameraControllerImpl) Position() (x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position[0], cc.position[1]
}

func (cc *cameraControllerImpl) SetPosition(x, y float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = [2]float32{x, y}
}

func (cc *cameraControllerImpl) Pan(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	// Screen y grows downward, world y grows upward.
	cc.position[0] -= dx / cc.zoom
	cc.position[1] += dy / cc.zoom
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	factor := 1 + delta*cc.zoomSpeed
	if factor <= 0 {
		return
	}
	cc.zoom = cc.clampZoom(cc.zoom * factor)
}

func (cc *cameraControllerImpl) ZoomFactor() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoom
}

func (cc *cameraControllerImpl) SetZoomFactor(zoom float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.zoom = cc.clampZoom(zoom)
}

func (cc *cameraControllerImpl) ZoomBounds() (min, max float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.minZoom, cc.maxZoom
}

func (cc *cameraControllerImpl) PanSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.panSpeed
}

// clampZoom keeps zoom within bounds. Caller must hold the mutex.
func (cc *cameraControllerImpl) clampZoom(zoom float32) float32 {
	if zoom < cc.minZoom {
		return cc.minZoom
	}
	if zoom > cc.maxZoom {
		return cc.maxZoom
	}
	return zoom
}
