package grid

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// PipelineKey is the renderer pipeline the grid is drawn with.
	PipelineKey = "grid"

	// DefaultMaxLines hides the grid when zoomed out past this many lines.
	DefaultMaxLines uint32 = 2048

	// BindingParams is the GridParams uniform in group 1.
	BindingParams = 0
)

// DefaultColor is a faint white.
var DefaultColor = [4]float32{1, 1, 1, 0.15}

type grid struct {
	mu *sync.Mutex

	visible  bool
	cellSize [2]float32
	color    [4]float32
	maxLines uint32

	params GPUGridParams
	dirty  bool

	bindGroupProvider bind_group_provider.BindGroupProvider
	meshProvider      bind_group_provider.BindGroupProvider
}

// Grid is the cell-outline overlay drawn above the map. Lines are generated in the vertex shader
// from GridParams, one instance per line, so the only CPU work on pan or zoom is recomputing the
// params from the visible bounds.
type Grid interface {
	// Visible reports whether the grid is drawn.
	Visible() bool

	// SetVisible shows or hides the grid.
	//
	// Parameters:
	//   - visible: true to show
	SetVisible(visible bool)

	// Toggle flips visibility.
	//
	// Returns:
	//   - bool: the new visibility
	Toggle() bool

	// CellSize returns the cell size in world units.
	CellSize() (width, height float32)

	// Color returns the RGBA line colour.
	Color() [4]float32

	// SetColor sets the RGBA line colour.
	//
	// Parameters:
	//   - c: the colour
	SetColor(c [4]float32)

	// Update snaps the line layout to cover the given world bounds.
	//
	// Parameters:
	//   - left, right, bottom, top: the visible world rectangle
	Update(left, right, bottom, top float32)

	// LineCount returns the instance count to draw: 0 while hidden or past the line cap.
	//
	// Returns:
	//   - uint32: the line count
	LineCount() uint32

	// Params returns the current uniform values.
	Params() GPUGridParams

	// StagedWriteData returns the params upload when it changed since the last call.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: zero or one write
	StagedWriteData() []bind_group_provider.BufferWrite

	// BindGroupProvider holds the params uniform (group 1).
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// MeshProvider holds the two-vertex line template.
	MeshProvider() bind_group_provider.BindGroupProvider

	// Release frees the GPU resources.
	Release()
}

var _ Grid = &grid{}

// NewGrid creates a hidden grid with 32x32 cells.
//
// Parameters:
//   - name: label prefix for the GPU resources
//   - options: functional options
//
// Returns:
//   - Grid: the grid
func NewGrid(name string, options ...GridBuilderOption) Grid {
	g := &grid{
		mu:                &sync.Mutex{},
		cellSize:          [2]float32{32, 32},
		color:             DefaultColor,
		maxLines:          DefaultMaxLines,
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(name + "_params"),
		meshProvider:      bind_group_provider.NewBindGroupProvider(name+"_mesh", bind_group_provider.WithIndexCount(2)),
	}
	for _, opt := range options {
		opt(g)
	}
	g.params.CellSize = g.cellSize
	g.params.Color = g.color
	g.dirty = true
	return g
}

func (g *grid) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

func (g *grid) SetVisible(visible bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = visible
}

func (g *grid) Toggle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = !g.visible
	return g.visible
}

func (g *grid) CellSize() (width, height float32) {
	return g.cellSize[0], g.cellSize[1]
}

func (g *grid) Color() [4]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.color
}

func (g *grid) SetColor(c [4]float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.color == c {
		return
	}
	g.color = c
	g.params.Color = c
	g.dirty = true
}

func (g *grid) Update(left, right, bottom, top float32) {
	g.mu.Lock()
	defer g.mu.Unlock()

	originX, columns := snap(left, right, g.cellSize[0])
	originY, rows := snap(bottom, top, g.cellSize[1])

	next := g.params
	next.Origin = [2]float32{originX, originY}
	next.Columns = columns
	next.Rows = rows
	next.Extent = [2]float32{float32(columns) * g.cellSize[0], float32(rows) * g.cellSize[1]}
	if next != g.params {
		g.params = next
		g.dirty = true
	}
}

func (g *grid) LineCount() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.visible {
		return 0
	}
	n := g.params.Columns + 1 + g.params.Rows + 1
	if g.params.Columns == 0 || g.params.Rows == 0 || n > g.maxLines {
		return 0
	}
	return n
}

func (g *grid) Params() GPUGridParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

func (g *grid) StagedWriteData() []bind_group_provider.BufferWrite {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.dirty {
		return nil
	}
	g.dirty = false
	return []bind_group_provider.BufferWrite{{
		Provider: g.bindGroupProvider,
		Binding:  BindingParams,
		Data:     g.params.Marshal(),
	}}
}

func (g *grid) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return g.bindGroupProvider
}

func (g *grid) MeshProvider() bind_group_provider.BindGroupProvider {
	return g.meshProvider
}

func (g *grid) Release() {
	g.bindGroupProvider.Release()
	g.meshProvider.Release()
}

// snap returns the first line at or below lo on a multiple of cell, and the cell count needed to
// reach hi.
func snap(lo, hi, cell float32) (origin float32, cells uint32) {
	if hi <= lo || cell <= 0 {
		return 0, 0
	}
	first := float32(math.Floor(float64(lo/cell))) * cell
	last := float32(math.Ceil(float64(hi/cell))) * cell
	return first, uint32(math.Round(float64((last - first) / cell)))
}

// LineMesh returns the vertex data of the line template: t = 0 and t = 1.
//
// Returns:
//   - []byte: the vertex bytes
func LineMesh() []byte {
	return common.SliceToBytes([]float32{0, 1})
}

// VertexLayout returns the vertex layout of LineMesh.
//
// Returns:
//   - wgpu.VertexBufferLayout: one float per vertex at location 0
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 4,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32, Offset: 0, ShaderLocation: 0},
		},
	}
}

// BindGroupLayoutDescriptor returns the layout of the grid params group.
//
// Returns:
//   - wgpu.BindGroupLayoutDescriptor: a single uniform at binding 0
func BindGroupLayoutDescriptor() wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: "Grid Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    BindingParams,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64((&GPUGridParams{}).Size()),
				},
			},
		},
	}
}
