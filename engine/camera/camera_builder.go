package camera

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/bind_group_provider"
)

type CameraBuilderOption func(*cameraImpl)

// WithViewport sets the initial framebuffer size.
//
// Parameters:
//   - width, height: the viewport size in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the viewport
func WithViewport(width, height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width > 0 && height > 0 {
			c.viewport = [2]float32{width, height}
		}
	}
}

// WithDepthRange sets the eye height and the near and far plane distances. The far plane must
// reach below the smallest sprite depth key.
//
// Parameters:
//   - eyeZ: the world Z the camera looks down from
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the depth range
func WithDepthRange(eyeZ, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.eyeZ = eyeZ
		c.near = near
		c.far = far
	}
}

// WithController attaches a controller to the camera.
// After all options are applied, the camera recomputes its matrices from the controller's state.
//
// Parameters:
//   - ctrl: the controller to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the controller
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}

// WithBindGroupProvider attaches a bind group provider to the camera.
// The provider describes the GPU binding requirements for camera uniforms.
//
// Parameters:
//   - provider: the bind group provider to attach
//
// Returns:
//   - CameraBuilderOption: functional option to set the bind group provider
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.bindGroupProvider = provider
	}
}
