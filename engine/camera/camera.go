package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// Default depth setup. Sprite depth keys grow with the map row (1000 per row), so the eye sits
// far above the map and the far plane reaches past z = 0.
const (
	DefaultEyeZ float32 = 4_000_000
	DefaultNear float32 = 1
	DefaultFar  float32 = 4_000_001
)

type cameraImpl struct {
	mu *sync.Mutex

	// viewport is the framebuffer size in pixels.
	viewport [2]float32

	eyeZ float32
	near float32
	far  float32

	bounds [4]float32 // left, right, bottom, top in world units

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera is an orthographic top-down camera looking down -Z at the tile map.
// The controller supplies the view centre and zoom; the camera turns them plus the viewport
// size into view and projection matrices via Update().
type Camera interface {
	// Viewport returns the framebuffer size the projection is built for.
	//
	// Returns:
	//   - width, height: the viewport size in pixels
	Viewport() (width, height float32)

	// SetViewport sets the framebuffer size and recomputes matrices.
	//
	// Parameters:
	//   - width, height: the viewport size in pixels
	SetViewport(width, height float32)

	// Bounds returns the visible world rectangle.
	//
	// Returns:
	//   - left, right, bottom, top: world-space bounds
	Bounds() (left, right, bottom, top float32)

	// EyeZ returns the world Z the camera looks down from.
	//
	// Returns:
	//   - float32: the eye height
	EyeZ() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Uniform returns the GPU camera uniform for the current matrices.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform ready to marshal
	Uniform() GPUCameraUniform

	// ScreenToWorld converts a framebuffer pixel position into world space.
	//
	// Parameters:
	//   - sx, sy: the pixel position, origin top-left
	//
	// Returns:
	//   - x, y: the world-space position
	ScreenToWorld(sx, sy float32) (x, y float32)

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// BindGroupProvider returns the camera's bind group provider for GPU resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider or nil
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Update reads the centre and zoom from the controller and recomputes matrices.
	// Should be called once per frame. Does nothing without a controller.
	Update()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new orthographic Camera.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		viewport: [2]float32{1, 1},
		eyeZ:     DefaultEyeZ,
		near:     DefaultNear,
		far:      DefaultFar,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Load(), 10),
		),
	}
	common.Identity(c.viewMatrix[:])
	common.Identity(c.projectionMatrix[:])
	common.Identity(c.viewProjectionMatrix[:])
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	cameraCount.Add(1)
	return c
}

func (c *cameraImpl) Viewport() (width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport[0], c.viewport[1]
}

func (c *cameraImpl) SetViewport(width, height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		return
	}
	c.viewport = [2]float32{width, height}
	c.updateMatrices()
}

func (c *cameraImpl) Bounds() (left, right, bottom, top float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bounds[0], c.bounds[1], c.bounds[2], c.bounds[3]
}

func (c *cameraImpl) EyeZ() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eyeZ
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	u := GPUCameraUniform{ViewProj: c.viewProjectionMatrix, Zoom: 1, EyeZ: c.eyeZ}
	if c.controller != nil {
		u.Center[0], u.Center[1] = c.controller.Position()
		u.Zoom = c.controller.ZoomFactor()
	}
	return u
}

func (c *cameraImpl) ScreenToWorld(sx, sy float32) (x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, r, b, t := c.bounds[0], c.bounds[1], c.bounds[2], c.bounds[3]
	x = l + (sx/c.viewport[0])*(r-l)
	y = t - (sy/c.viewport[1])*(t-b)
	return x, y
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bindGroupProvider
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

// updateMatrices recalculates the bounds and matrices from the controller and viewport.
// Without a controller the view is centred on the origin at zoom 1.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	var cx, cy float32
	zoom := float32(1)
	if c.controller != nil {
		cx, cy = c.controller.Position()
		zoom = c.controller.ZoomFactor()
	}

	halfW := c.viewport[0] / (2 * zoom)
	halfH := c.viewport[1] / (2 * zoom)
	c.bounds = [4]float32{cx - halfW, cx + halfW, cy - halfH, cy + halfH}

	common.Translation(c.viewMatrix[:], -cx, -cy, -c.eyeZ)
	common.Orthographic(c.projectionMatrix[:], -halfW, halfW, -halfH, halfH, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// BindGroupLayoutDescriptor returns the layout of the camera bind group (group 0 of every
// pipeline).
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: a single vertex-visible uniform at binding 0
func BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Camera Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&GPUCameraUniform{}).Size()),
				},
			},
		},
	}
}
