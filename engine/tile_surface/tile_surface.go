package tile_surface

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/material"
)

// tileSurface is the implementation of the TileSurface interface.
type tileSurface struct {
	name     string
	fallback bool

	rangeStart uint32
	rangeEnd   uint32
	hasRange   bool

	tileWidth     uint32
	tileHeight    uint32
	spritesPerRow uint32

	// materialOptions are applied when the surface builds its atlas material.
	materialOptions []material.AtlasMaterialBuilderOption
	material        material.AtlasMaterial

	// base is the replacement batch occupying instances [0, len(base)).
	base []common.DrawCommand
	// animated is the overlay batch occupying instances after base.
	animated []common.DrawCommand

	onDispose func()
	disposed  bool
}

// TileSurface binds one atlas material to one global sprite-index range and converts
// surface-local sprite indices into atlas pixel offsets.
//
// The instance buffer is split in two segments: a base segment written by
// DrawSpriteLocalIndexBatched and an animated segment written by AppendSpriteLocalIndexBatched.
// Replacing either segment never erases the other, so animation ticks overlay the cached
// static batch of the active z-level.
//
// A TileSurface is driven from the render goroutine only and is not safe for concurrent use.
type TileSurface interface {
	// Name returns the surface name, normally the atlas file name.
	//
	// Returns:
	//   - string: the surface name
	Name() string

	// Range returns the half-open global sprite-index range owned by the surface.
	//
	// Returns:
	//   - uint32: the first owned index
	//   - uint32: one past the last owned index
	//   - bool: false for the fallback surface, which has no range
	Range() (uint32, uint32, bool)

	// IsFallback reports whether this is the fallback (ASCII) surface.
	//
	// Returns:
	//   - bool: true for the fallback surface
	IsFallback() bool

	// IsWithinRange reports whether the surface owns the global sprite index.
	// Always false for the fallback surface; callers route to it explicitly.
	//
	// Parameters:
	//   - index: the global sprite index
	//
	// Returns:
	//   - bool: true if start <= index < end
	IsWithinRange(index uint32) bool

	// LocalIndex converts a global sprite index into this surface's local index space.
	//
	// Parameters:
	//   - global: the global sprite index
	//
	// Returns:
	//   - uint32: the index relative to the range start (unchanged for the fallback surface)
	LocalIndex(global uint32) uint32

	// SpriteOffset returns the atlas pixel offset of a local sprite index using the
	// fixed-width-per-row sheet layout.
	//
	// Parameters:
	//   - local: the surface-local sprite index
	//
	// Returns:
	//   - [2]float32: the (x, y) pixel offset of the sprite cell
	SpriteOffset(local uint32) [2]float32

	// SpritesPerRow returns the number of sprite cells in one atlas row.
	//
	// Returns:
	//   - uint32: sprites per row
	SpritesPerRow() uint32

	// DrawSpriteLocalIndexBatched replaces the base segment with commands. The stored animated
	// segment is rewritten after the new base.
	//
	// Parameters:
	//   - commands: the full replacement batch
	DrawSpriteLocalIndexBatched(commands []common.DrawCommand)

	// AppendSpriteLocalIndexBatched replaces the animated segment with commands, appended after
	// the base segment. Passing no commands truncates the surface back to its base.
	//
	// Parameters:
	//   - commands: the animated overlay batch
	AppendSpriteLocalIndexBatched(commands []common.DrawCommand)

	// Clear hides every instance and forgets both segments. GPU resources are kept.
	Clear()

	// BaseCount returns the number of instances in the base segment.
	//
	// Returns:
	//   - int: the base instance count
	BaseCount() int

	// VisibleCount returns the number of instances the next draw renders.
	//
	// Returns:
	//   - uint32: the visible instance count
	VisibleCount() uint32

	// Commands returns a copy of the currently visible draw commands, base segment first.
	//
	// Returns:
	//   - []common.DrawCommand: the visible commands
	Commands() []common.DrawCommand

	// Material returns the atlas material backing the surface.
	//
	// Returns:
	//   - material.AtlasMaterial: the material
	Material() material.AtlasMaterial

	// Dispose releases the atlas material and the tileset image handle. Irreversible.
	Dispose()

	// Disposed reports whether Dispose has been called.
	//
	// Returns:
	//   - bool: true after Dispose
	Disposed() bool
}

var _ TileSurface = &tileSurface{}

// NewTileSurface creates a TileSurface and its atlas material.
//
// Parameters:
//   - name: the surface name, normally the atlas file name
//   - options: variadic list of TileSurfaceBuilderOption functions to configure the surface
//
// Returns:
//   - TileSurface: the new surface
func NewTileSurface(name string, options ...TileSurfaceBuilderOption) TileSurface {
	s := &tileSurface{
		name:       name,
		tileWidth:  32,
		tileHeight: 32,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.tileWidth == 0 || s.tileHeight == 0 {
		panic(fmt.Sprintf("tile_surface: %q has a zero tile size", name))
	}

	mat := material.NewAtlasMaterial(name, append([]material.AtlasMaterialBuilderOption{
		material.WithTileSize(s.tileWidth, s.tileHeight),
	}, s.materialOptions...)...)
	s.material = mat

	if s.spritesPerRow == 0 {
		if w := uint32(mat.Texture().Width); w >= s.tileWidth {
			s.spritesPerRow = w / s.tileWidth
		} else {
			s.spritesPerRow = 1
		}
	}
	return s
}

func (s *tileSurface) Name() string {
	return s.name
}

func (s *tileSurface) Range() (uint32, uint32, bool) {
	return s.rangeStart, s.rangeEnd, s.hasRange
}

func (s *tileSurface) IsFallback() bool {
	return s.fallback
}

func (s *tileSurface) IsWithinRange(index uint32) bool {
	if s.fallback || !s.hasRange {
		return false
	}
	return index >= s.rangeStart && index < s.rangeEnd
}

func (s *tileSurface) LocalIndex(global uint32) uint32 {
	if s.fallback || !s.hasRange {
		return global
	}
	return global - s.rangeStart
}

func (s *tileSurface) SpriteOffset(local uint32) [2]float32 {
	row := local / s.spritesPerRow
	col := local % s.spritesPerRow
	return [2]float32{float32(col * s.tileWidth), float32(row * s.tileHeight)}
}

func (s *tileSurface) SpritesPerRow() uint32 {
	return s.spritesPerRow
}

func (s *tileSurface) DrawSpriteLocalIndexBatched(commands []common.DrawCommand) {
	s.mustUsable("draw")
	s.base = append(s.base[:0], commands...)
	s.material.ResetInstances()
	written := s.writeInstances(0, s.base)
	if written < len(s.base) {
		s.base = s.base[:written]
		s.animated = s.animated[:0]
		s.material.SetVisibleCount(s.material.NextFreeInstance())
		return
	}
	written = s.writeInstances(uint32(len(s.base)), s.animated)
	s.animated = s.animated[:written]
	s.material.SetVisibleCount(s.material.NextFreeInstance())
}

func (s *tileSurface) AppendSpriteLocalIndexBatched(commands []common.DrawCommand) {
	s.mustUsable("append")
	s.animated = append(s.animated[:0], commands...)
	s.material.ResetInstances()
	if n := len(s.base); n > 0 {
		s.material.ReserveInstance(uint32(n - 1))
	}
	written := s.writeInstances(uint32(len(s.base)), s.animated)
	s.animated = s.animated[:written]
	s.material.SetVisibleCount(s.material.NextFreeInstance())
}

// writeInstances writes commands into consecutive instance slots starting at first and
// returns how many fit in the material's capacity.
func (s *tileSurface) writeInstances(first uint32, commands []common.DrawCommand) int {
	for i, cmd := range commands {
		id := first + uint32(i)
		if !s.material.ReserveInstance(id) {
			log.Printf("[TileSurface] %s: instance capacity %d exceeded, dropping %d sprites", s.name, s.material.MaxInstances(), len(commands)-i)
			return i
		}
		s.material.SetUVAt(id, s.SpriteOffset(cmd.LocalIndex))
		s.material.SetInstanceTransform(id, cmd.Position, cmd.RotateDeg)
	}
	return len(commands)
}

func (s *tileSurface) Clear() {
	s.mustUsable("clear")
	s.base = s.base[:0]
	s.animated = s.animated[:0]
	s.material.ResetInstances()
}

func (s *tileSurface) BaseCount() int {
	return len(s.base)
}

func (s *tileSurface) VisibleCount() uint32 {
	if s.disposed {
		return 0
	}
	return s.material.VisibleCount()
}

func (s *tileSurface) Commands() []common.DrawCommand {
	out := make([]common.DrawCommand, 0, len(s.base)+len(s.animated))
	out = append(out, s.base...)
	return append(out, s.animated...)
}

func (s *tileSurface) Material() material.AtlasMaterial {
	return s.material
}

func (s *tileSurface) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.base = nil
	s.animated = nil
	s.material.Release()
	if s.onDispose != nil {
		s.onDispose()
		s.onDispose = nil
	}
}

func (s *tileSurface) Disposed() bool {
	return s.disposed
}

func (s *tileSurface) mustUsable(op string) {
	if s.disposed {
		panic(fmt.Sprintf("tile_surface: %s on disposed surface %q", op, s.name))
	}
}
