package engine

import (
	"log"

	"github.com/Carmen-Shannon/oxy-tiles/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiles/engine/window"
)

// bindInput wires the window callbacks. Camera movement goes straight to the controller, which
// is locked; everything touching the map is queued for the render goroutine.
func (e *engine) bindInput(w window.Window) {
	w.SetResizeCallback(func(width, height int) {
		e.queueResize(width, height)
	})

	w.SetScrollCallback(func(delta float32) {
		if ctrl := e.controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})

	w.SetDragCallback(func(dx, dy float32) {
		if ctrl := e.controller(); ctrl != nil {
			ctrl.Pan(dx, dy)
		}
	})

	w.SetActionCallback(e.onAction)
}

// queueResize replaces any resize the render goroutine has not applied yet.
func (e *engine) queueResize(width, height int) {
	size := [2]int{width, height}
	select {
	case e.resizes <- size:
	default:
		select {
		case <-e.resizes:
		default:
		}
		select {
		case e.resizes <- size:
		default:
		}
	}
}

func (e *engine) onAction(a window.Action) {
	switch a {
	case window.ActionToggleGrid:
		if !e.ToggleGrid() {
			log.Printf("[Engine] dropped %s, signal queue full", a)
		}
		return
	case window.ActionLevelUp, window.ActionLevelDown:
		delta := int32(1)
		if a == window.ActionLevelDown {
			delta = -1
		}
		if !e.ShiftZLevel(delta) {
			log.Printf("[Engine] dropped %s, signal queue full", a)
		}
		return
	}

	ctrl := e.controller()
	if ctrl == nil {
		return
	}
	step := ctrl.PanSpeed()
	switch a {
	case window.ActionResetView:
		ctrl.SetPosition(0, 0)
		ctrl.SetZoomFactor(1)
	case window.ActionZoomIn:
		ctrl.Zoom(1)
	case window.ActionZoomOut:
		ctrl.Zoom(-1)
	// Pan takes a drag delta, so moving the view up drags the map down.
	case window.ActionPanUp:
		ctrl.Pan(0, step)
	case window.ActionPanDown:
		ctrl.Pan(0, -step)
	case window.ActionPanLeft:
		ctrl.Pan(step, 0)
	case window.ActionPanRight:
		ctrl.Pan(-step, 0)
	}
}

func (e *engine) controller() camera.CameraController {
	s := e.Scene()
	if s == nil {
		return nil
	}
	cam := s.Camera()
	if cam == nil {
		return nil
	}
	return cam.Controller()
}
