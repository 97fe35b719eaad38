package scene

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiles/engine/grid"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-tiles/engine/signal"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_registry"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_surface"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceStats is the per-surface draw summary reported by Stats.
type SurfaceStats struct {
	Name     string `json:"name"`
	Fallback bool   `json:"fallback"`
	Visible  uint32 `json:"visible"`
}

// Scene is the map view: one tile registry drawn through one camera, plus the grid overlay.
//
// The view only renders while mounted. Mount builds the grid and subscribes to the grid and
// z-level buses; Unmount undoes both and clears every surface. Bus values are delivered on
// whichever goroutine drains the bus, which must be the render goroutine.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Mount prepares the view for a framebuffer of the given size: sets the camera bounds, registers
	// the pipelines, uploads the atlases, builds the grid overlay and subscribes to the buses.
	// Mounting a mounted scene is a no-op.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	//
	// Returns:
	//   - error: an error if a GPU resource could not be created
	Mount(width, height int) error

	// Unmount stops rendering, releases the grid, unsubscribes both buses and clears every
	// surface. Idempotent.
	Unmount()

	// Mounted reports whether the scene renders.
	Mounted() bool

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Grid returns the grid overlay, or nil while unmounted.
	Grid() grid.Grid

	// Registry returns the tile registry.
	Registry() tile_registry.TileRegistry

	// SetRegistry disposes the current registry and replaces it with reg, keeping the active
	// z-level. While mounted the new atlases are uploaded immediately.
	//
	// Parameters:
	//   - reg: the new registry
	//
	// Returns:
	//   - error: an error if an atlas could not be uploaded
	SetRegistry(reg tile_registry.TileRegistry) error

	// Submit replaces the map contents with a placement batch and draws level z. Grid positions
	// are converted to map pixels with the registry's tile size.
	//
	// Parameters:
	//   - sprites: the placement batch
	//   - z: the z-level to display
	Submit(sprites common.Sprites, z int32)

	// ZLevel returns the active z-level.
	ZLevel() int32

	// SetZLevel switches the displayed z-level.
	//
	// Parameters:
	//   - z: the new z-level
	SetZLevel(z int32)

	// Resize updates the camera and the surface for a new framebuffer size.
	//
	// Parameters:
	//   - width, height: the framebuffer size in pixels
	Resize(width, height int)

	// Tick advances every animated sprite by one frame. No-op while unmounted.
	Tick()

	// Render updates the camera and grid, uploads pending buffer writes and draws one frame.
	// No-op while unmounted.
	//
	// Returns:
	//   - error: an error if the frame could not be started or a draw failed
	Render() error

	// Stats returns the visible instance count of every surface, fallback last.
	//
	// Returns:
	//   - []SurfaceStats: one entry per surface
	Stats() []SurfaceStats
}

type scene struct {
	mu *sync.Mutex

	name    string
	mounted bool

	cam      camera.Camera
	r        renderer.Renderer
	registry tile_registry.TileRegistry

	grid        grid.Grid
	gridColor   [4]float32
	gridVisible bool
	gridLines   uint32

	gridBus   *signal.Bus[signal.GridToggle]
	zLevelBus *signal.Bus[signal.ZLevelChange]
	unsubs    []func()

	pipelinesReady bool
	quadMesh       bind_group_provider.BindGroupProvider

	// uploaded holds the surfaces of the current registry whose atlas and buffers are on the GPU.
	uploaded map[tile_surface.TileSurface]struct{}

	animatedHandles []tile_registry.AnimationHandle

	// Pre-allocated slices reused each frame to avoid per-frame allocations.
	writePool          []bind_group_provider.BufferWrite
	drawBindGroupsPool []bind_group_provider.BindGroupProvider
}

var _ Scene = &scene{}

// NewScene creates an unmounted map view. The camera, renderer and registry are required and
// NewScene panics if any of them is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to draw through
//   - r: the renderer to draw with
//   - reg: the tile registry to draw
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, r renderer.Renderer, reg tile_registry.TileRegistry, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	if r == nil {
		panic("scene: NewScene requires a non-nil Renderer")
	}
	if reg == nil {
		panic("scene: NewScene requires a non-nil TileRegistry")
	}

	s := &scene{
		mu:                 &sync.Mutex{},
		name:               name,
		cam:                cam,
		r:                  r,
		registry:           reg,
		gridColor:          grid.DefaultColor,
		gridLines:          grid.DefaultMaxLines,
		quadMesh:           bind_group_provider.NewBindGroupProvider(name + "_quad"),
		uploaded:           make(map[tile_surface.TileSurface]struct{}),
		drawBindGroupsPool: make([]bind_group_provider.BindGroupProvider, 0, 2),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Mount(width, height int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mounted {
		return nil
	}

	s.cam.SetViewport(float32(width), float32(height))

	if err := s.initPipelines(); err != nil {
		return err
	}
	if err := s.initRegistry(s.registry); err != nil {
		return err
	}

	tw, th := s.registry.TileSize()
	if err := s.rebuildGrid(tw, th, s.gridVisible); err != nil {
		return err
	}

	if s.gridBus != nil {
		s.unsubs = append(s.unsubs, s.gridBus.Subscribe(s.onGridToggle))
	}
	if s.zLevelBus != nil {
		s.unsubs = append(s.unsubs, s.zLevelBus.Subscribe(s.onZLevelChange))
	}

	s.mounted = true
	log.Printf("[Scene] %s mounted at %dx%d", s.name, width, height)
	return nil
}

func (s *scene) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return
	}
	s.mounted = false

	if s.grid != nil {
		s.gridVisible = s.grid.Visible()
		s.grid.Release()
		s.grid = nil
	}
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil

	if s.registry.State() != tile_registry.StateDisposed {
		s.registry.ClearAll()
	}
	s.animatedHandles = nil
	log.Printf("[Scene] %s unmounted", s.name)
}

func (s *scene) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Grid() grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid
}

func (s *scene) Registry() tile_registry.TileRegistry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry
}

func (s *scene) SetRegistry(reg tile_registry.TileRegistry) error {
	if reg == nil {
		panic("scene: SetRegistry requires a non-nil TileRegistry")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// The old atlases are released before the new ones are uploaded. A failed upload leaves reg
	// in place with its uninitialized surfaces skipped by Render.
	z := s.registry.ActiveZLevel()
	s.registry.Dispose()
	s.registry = reg
	s.animatedHandles = nil
	clear(s.uploaded)
	reg.SwitchZLevel(z)

	if s.mounted {
		if err := s.initRegistry(reg); err != nil {
			return err
		}
	}

	if s.grid != nil {
		tw, th := reg.TileSize()
		if gw, gh := s.grid.CellSize(); gw != tw || gh != th {
			visible := s.grid.Visible()
			s.grid.Release()
			s.grid = nil
			if err := s.rebuildGrid(tw, th, visible); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *scene) Submit(sprites common.Sprites, z int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tw, th := s.registry.TileSize()
	px := tile_registry.ToPixelSpace(sprites, uint32(tw), uint32(th))

	// The draw calls move the active level on their own, so it is captured first. An empty
	// category would otherwise keep drawing the previous level.
	prev := s.registry.ActiveZLevel()

	if len(px.AnimatedSprites) > 0 {
		s.registry.RemoveAnimatedBatch(s.animatedHandles)
		s.animatedHandles = s.registry.DrawAnimatedSpritesBatched(px.AnimatedSprites)
	}
	s.registry.DrawStaticSpritesBatched(px.StaticSprites, z)
	s.registry.DrawFallbackSpritesBatched(px.FallbackSprites, z)
	if prev != z {
		s.registry.SwitchZLevel(z)
	}
}

func (s *scene) ZLevel() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.ActiveZLevel()
}

func (s *scene) SetZLevel(z int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry.SwitchZLevel(z)
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.cam.SetViewport(float32(width), float32(height))
	s.r.Resize(width, height)
}

func (s *scene) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return
	}
	s.registry.UpdateAnimatedSprites(s.registry.ActiveZLevel())
}

func (s *scene) Render() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.mounted {
		return nil
	}

	s.cam.Update()
	if s.grid != nil {
		s.grid.Update(s.cam.Bounds())
	}

	surfaces := s.drawOrder()

	u := s.cam.Uniform()
	s.writePool = append(s.writePool[:0], bind_group_provider.BufferWrite{
		Provider: s.cam.BindGroupProvider(),
		Binding:  0,
		Data:     u.Marshal(),
	})
	for _, surf := range surfaces {
		mat := surf.Material()
		mat.Flush()
		s.writePool = append(s.writePool, mat.StagedWriteData()...)
	}
	if s.grid != nil {
		s.writePool = append(s.writePool, s.grid.StagedWriteData()...)
	}
	s.r.WriteBuffers(s.writePool)

	if err := s.r.BeginFrame(); err != nil {
		return fmt.Errorf("scene %q: begin frame: %w", s.name, err)
	}

	var drawErr error
	for _, surf := range surfaces {
		count := surf.VisibleCount()
		if _, ok := s.uploaded[surf]; !ok || count == 0 {
			continue
		}
		mat := surf.Material()
		s.drawBindGroupsPool = append(s.drawBindGroupsPool[:0], s.cam.BindGroupProvider(), mat.BindGroupProvider())
		if err := s.r.DrawCall(mat.PipelineKey(), s.quadMesh, count, s.drawBindGroupsPool); err != nil {
			drawErr = fmt.Errorf("scene %q: draw %s: %w", s.name, surf.Name(), err)
			break
		}
	}
	if drawErr == nil && s.grid != nil {
		if lines := s.grid.LineCount(); lines > 0 {
			s.drawBindGroupsPool = append(s.drawBindGroupsPool[:0], s.cam.BindGroupProvider(), s.grid.BindGroupProvider())
			if err := s.r.DrawCall(grid.PipelineKey, s.grid.MeshProvider(), lines, s.drawBindGroupsPool); err != nil {
				drawErr = fmt.Errorf("scene %q: draw grid: %w", s.name, err)
			}
		}
	}

	s.r.EndFrame()
	s.r.Present()
	return drawErr
}

func (s *scene) Stats() []SurfaceStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.State() == tile_registry.StateDisposed {
		return nil
	}
	surfaces := s.drawOrder()
	stats := make([]SurfaceStats, 0, len(surfaces))
	for _, surf := range surfaces {
		stats = append(stats, SurfaceStats{
			Name:     surf.Name(),
			Fallback: surf.IsFallback(),
			Visible:  surf.VisibleCount(),
		})
	}
	return stats
}

// drawOrder returns the range surfaces followed by the fallback surface.
// Caller must hold the mutex.
func (s *scene) drawOrder() []tile_surface.TileSurface {
	surfaces := s.registry.Surfaces()
	fb := s.registry.FallbackSurface()
	if fb == nil {
		return surfaces
	}
	out := make([]tile_surface.TileSurface, 0, len(surfaces)+1)
	out = append(out, surfaces...)
	return append(out, fb)
}

func (s *scene) onGridToggle(t signal.GridToggle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grid == nil {
		return
	}
	s.grid.SetVisible(t.Resolve(s.grid.Visible()))
}

func (s *scene) onZLevelChange(c signal.ZLevelChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	z := c.Resolve(s.registry.ActiveZLevel())
	if z == s.registry.ActiveZLevel() {
		return
	}
	s.registry.SwitchZLevel(z)
	log.Printf("[Scene] %s z-level %d", s.name, z)
}

// initPipelines registers the tile sprite and grid pipelines, the camera bind group and the
// shared quad mesh. Runs once per scene.
// Caller must hold the mutex.
func (s *scene) initPipelines() error {
	if s.pipelinesReady {
		return nil
	}

	if err := s.r.RegisterPipelines(TileSpritePipeline(), GridPipeline()); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	if err := s.r.InitBindGroup(s.cam.BindGroupProvider(), camera.BindGroupLayoutDescriptor(), nil, nil); err != nil {
		return fmt.Errorf("scene %q: camera bind group: %w", s.name, err)
	}
	vertices, indices, count := material.QuadMesh()
	if err := s.r.InitMeshBuffers(s.quadMesh, vertices, indices, count); err != nil {
		return fmt.Errorf("scene %q: quad mesh: %w", s.name, err)
	}

	s.pipelinesReady = true
	return nil
}

// initRegistry uploads the atlas, sampler and buffers of every surface of reg that has no bind
// group yet.
func (s *scene) initRegistry(reg tile_registry.TileRegistry) error {
	surfaces := reg.Surfaces()
	if fb := reg.FallbackSurface(); fb != nil {
		surfaces = append(append([]tile_surface.TileSurface(nil), surfaces...), fb)
	}
	for _, surf := range surfaces {
		if err := s.initSurface(surf); err != nil {
			return err
		}
	}
	return nil
}

func (s *scene) initSurface(surf tile_surface.TileSurface) error {
	if _, ok := s.uploaded[surf]; ok {
		return nil
	}
	mat := surf.Material()
	bgp := mat.BindGroupProvider()
	if err := s.r.InitTextureView(bgp, material.BindingTexture, mat.Texture()); err != nil {
		return fmt.Errorf("scene %q: surface %s: %w", s.name, surf.Name(), err)
	}
	if err := s.r.InitSampler(bgp, material.BindingSampler, mat.Sampler()); err != nil {
		return fmt.Errorf("scene %q: surface %s: %w", s.name, surf.Name(), err)
	}
	if err := s.r.InitBindGroup(bgp, material.BindGroupLayoutDescriptor(), nil, mat.BufferSizes()); err != nil {
		return fmt.Errorf("scene %q: surface %s: %w", s.name, surf.Name(), err)
	}
	mat.Invalidate()
	s.uploaded[surf] = struct{}{}
	return nil
}

// rebuildGrid builds the grid overlay for a cell size and uploads its mesh and params.
// Caller must hold the mutex.
func (s *scene) rebuildGrid(tw, th float32, visible bool) error {
	g := grid.NewGrid(s.name+"_grid",
		grid.WithCellSize(tw, th),
		grid.WithColor(s.gridColor),
		grid.WithVisible(visible),
		grid.WithMaxLines(s.gridLines),
	)
	if err := s.r.InitMeshBuffers(g.MeshProvider(), grid.LineMesh(), nil, 2); err != nil {
		return fmt.Errorf("scene %q: grid mesh: %w", s.name, err)
	}
	if err := s.r.InitBindGroup(g.BindGroupProvider(), grid.BindGroupLayoutDescriptor(), nil, nil); err != nil {
		return fmt.Errorf("scene %q: grid bind group: %w", s.name, err)
	}
	s.grid = g
	return nil
}

// TileSpritePipeline returns the instanced atlas quad pipeline: camera in group 0, atlas
// material in group 1. Transparent texels are discarded so depth writes stay on.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func TileSpritePipeline() pipeline.Pipeline {
	src := material.TileSpriteShaderSource(camera.GPUCameraUniformSource)
	layouts := []shader.ShaderBuilderOption{
		shader.WithBindGroupLayout(0, camera.BindGroupLayoutDescriptor()),
		shader.WithBindGroupLayout(1, material.BindGroupLayoutDescriptor()),
	}
	vs := shader.NewShader(material.DefaultPipelineKey+"_vs", shader.ShaderTypeVertex, src,
		append(layouts, shader.WithVertexLayouts(material.QuadVertexLayout()))...)
	fs := shader.NewShader(material.DefaultPipelineKey+"_fs", shader.ShaderTypeFragment, src, layouts...)
	return pipeline.NewPipeline(material.DefaultPipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBlendEnabled(true),
	)
}

// GridPipeline returns the grid line pipeline. It ignores and never writes depth so the grid
// always sits above the map.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func GridPipeline() pipeline.Pipeline {
	src := grid.ShaderSource(camera.GPUCameraUniformSource)
	layouts := []shader.ShaderBuilderOption{
		shader.WithBindGroupLayout(0, camera.BindGroupLayoutDescriptor()),
		shader.WithBindGroupLayout(1, grid.BindGroupLayoutDescriptor()),
	}
	vs := shader.NewShader(grid.PipelineKey+"_vs", shader.ShaderTypeVertex, src,
		append(layouts, shader.WithVertexLayouts(grid.VertexLayout()))...)
	fs := shader.NewShader(grid.PipelineKey+"_fs", shader.ShaderTypeFragment, src, layouts...)
	return pipeline.NewPipeline(grid.PipelineKey,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithDepthCompare(wgpu.CompareFunctionAlways),
		pipeline.WithDepthWriteEnabled(false),
		pipeline.WithBlendEnabled(true),
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
	)
}
