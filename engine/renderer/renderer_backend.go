package renderer

// RendererBackendType selects the GPU API used by a Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU renders through WebGPU (wgpu-native).
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank (FIFO).
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the multisample count of the main render pass.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// RendererBackend is the set of operations a GPU backend provides to the Renderer.
type RendererBackend interface {
	wgpuRendererBackend
}
