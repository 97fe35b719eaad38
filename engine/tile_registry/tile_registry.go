package tile_registry

import (
	"fmt"
	"log"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_surface"
)

// tileRegistry is the implementation of the TileRegistry interface.
type tileRegistry struct {
	state State

	tileWidth  float32
	tileHeight float32

	// surfaces in insertion order; the first surface whose range holds an index owns it.
	surfaces []tile_surface.TileSurface
	fallback tile_surface.TileSurface

	activeZ int32

	// staticCache maps z-level -> surface name -> commands.
	staticCache   map[int32]map[string][]common.DrawCommand
	fallbackCache map[int32][]common.DrawCommand

	animated   []*animatedEntry
	nextHandle AnimationHandle
}

// TileRegistry is the entry point for tile placements. It routes every sprite index to the
// surface owning it, caches the resulting draw commands per z-level, and advances animated
// sprites on a fixed tick.
//
// Positions handed to the registry are map pixel positions (see ToPixelSpace).
//
// A TileRegistry is driven from the render goroutine only and is not safe for concurrent use.
// Every method panics once the registry is disposed.
type TileRegistry interface {
	// DrawStaticSpritesBatched replaces the static cache of every z-level with sprites and draws
	// the activeZ level. Surfaces with nothing on activeZ lose their static instances.
	// An empty batch is a no-op. Indices owned by no surface are dropped.
	//
	// Parameters:
	//   - sprites: the full static placement batch
	//   - activeZ: the z-level to draw
	DrawStaticSpritesBatched(sprites []common.StaticSprite, activeZ int32)

	// DrawFallbackSpritesBatched replaces the fallback cache and draws the activeZ level on the
	// fallback surface. An empty batch is a no-op.
	//
	// Parameters:
	//   - sprites: the full fallback placement batch
	//   - activeZ: the z-level to draw
	DrawFallbackSpritesBatched(sprites []common.FallbackSprite, activeZ int32)

	// DrawAnimatedSpritesBatched adds sprites to the animated collection. Each new entry starts on
	// frame 0 and is drawn on the next tick.
	//
	// Parameters:
	//   - sprites: the animated placements to add
	//
	// Returns:
	//   - []AnimationHandle: one handle per sprite, in order
	DrawAnimatedSpritesBatched(sprites []common.AnimatedSprite) []AnimationHandle

	// RemoveAnimated removes one animated sprite.
	//
	// Parameters:
	//   - h: the handle returned by DrawAnimatedSpritesBatched
	//
	// Returns:
	//   - bool: false if the handle is unknown
	RemoveAnimated(h AnimationHandle) bool

	// RemoveAnimatedBatch removes every listed animated sprite in one pass and re-uploads the
	// animated segments at most once. Unknown handles are ignored.
	//
	// Parameters:
	//   - hs: handles returned by DrawAnimatedSpritesBatched
	//
	// Returns:
	//   - int: the number of entries removed
	RemoveAnimatedBatch(hs []AnimationHandle) int

	// SwitchZLevel clears every surface, rewinds every animation, replays the cached static and
	// fallback batches of z, then runs one animation tick.
	//
	// Parameters:
	//   - z: the new active z-level
	SwitchZLevel(z int32)

	// UpdateAnimatedSprites runs one animation tick. Every entry advances; only entries on
	// activeZ are drawn.
	//
	// Parameters:
	//   - activeZ: the z-level being displayed
	UpdateAnimatedSprites(activeZ int32)

	// ClearAll clears every surface, drops both caches and empties the animated collection.
	ClearAll()

	// Dispose disposes every surface and the fallback surface. Irreversible.
	Dispose()

	// Surfaces returns the range surfaces in routing order.
	//
	// Returns:
	//   - []tile_surface.TileSurface: the surfaces
	Surfaces() []tile_surface.TileSurface

	// FallbackSurface returns the fallback surface, or nil if none is attached.
	//
	// Returns:
	//   - tile_surface.TileSurface: the fallback surface
	FallbackSurface() tile_surface.TileSurface

	// ActiveZLevel returns the z-level last drawn, switched to or ticked.
	//
	// Returns:
	//   - int32: the active z-level
	ActiveZLevel() int32

	// AnimatedCount returns the number of animated entries on every z-level.
	//
	// Returns:
	//   - int: the animated entry count
	AnimatedCount() int

	// State returns the lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// TileSize returns the tile size the depth key is computed with.
	//
	// Returns:
	//   - float32: the tile width in pixels
	//   - float32: the tile height in pixels
	TileSize() (float32, float32)
}

var _ TileRegistry = &tileRegistry{}

// NewTileRegistry creates a TileRegistry in the Ready state.
//
// Parameters:
//   - options: variadic list of TileRegistryBuilderOption functions to configure the registry
//
// Returns:
//   - TileRegistry: the new registry
func NewTileRegistry(options ...TileRegistryBuilderOption) TileRegistry {
	r := &tileRegistry{
		tileWidth:     32,
		tileHeight:    32,
		staticCache:   make(map[int32]map[string][]common.DrawCommand),
		fallbackCache: make(map[int32][]common.DrawCommand),
	}
	for _, opt := range options {
		opt(r)
	}

	seen := make(map[string]struct{}, len(r.surfaces))
	for _, s := range r.surfaces {
		if s.IsFallback() {
			panic(fmt.Sprintf("tile_registry: fallback surface %q passed as a range surface", s.Name()))
		}
		if _, dup := seen[s.Name()]; dup {
			panic(fmt.Sprintf("tile_registry: duplicate surface name %q", s.Name()))
		}
		seen[s.Name()] = struct{}{}
	}

	r.state = StateReady
	return r
}

func (r *tileRegistry) DrawStaticSpritesBatched(sprites []common.StaticSprite, activeZ int32) {
	r.mustReady("DrawStaticSpritesBatched")
	if len(sprites) == 0 {
		return
	}

	cache := make(map[int32]map[string][]common.DrawCommand)
	dropped := 0
	for _, s := range sprites {
		surface := r.surfaceFor(s.Index)
		if surface == nil {
			dropped++
			continue
		}
		level, ok := cache[s.Z]
		if !ok {
			level = make(map[string][]common.DrawCommand)
			cache[s.Z] = level
		}
		level[surface.Name()] = append(level[surface.Name()],
			r.drawCommand(surface.LocalIndex(s.Index), s.Position, s.Layer, s.RotateDeg))
	}
	if dropped > 0 {
		log.Printf("[TileRegistry] dropped %d static sprites with no owning surface", dropped)
	}

	r.staticCache = cache
	r.activeZ = activeZ
	level := cache[activeZ]
	for _, s := range r.surfaces {
		s.DrawSpriteLocalIndexBatched(level[s.Name()])
	}
}

func (r *tileRegistry) DrawFallbackSpritesBatched(sprites []common.FallbackSprite, activeZ int32) {
	r.mustReady("DrawFallbackSpritesBatched")
	if len(sprites) == 0 {
		return
	}
	if r.fallback == nil {
		log.Printf("[TileRegistry] no fallback surface, dropping %d fallback sprites", len(sprites))
		return
	}

	cache := make(map[int32][]common.DrawCommand)
	for _, s := range sprites {
		cache[s.Z] = append(cache[s.Z], r.drawCommand(r.fallback.LocalIndex(s.Index), s.Position, 0, 0))
	}

	r.fallbackCache = cache
	r.activeZ = activeZ
	r.fallback.DrawSpriteLocalIndexBatched(cache[activeZ])
}

func (r *tileRegistry) SwitchZLevel(z int32) {
	r.mustReady("SwitchZLevel")

	r.clearSurfaces()
	for _, e := range r.animated {
		e.reset()
	}

	r.activeZ = z
	if level, ok := r.staticCache[z]; ok {
		for _, s := range r.surfaces {
			s.DrawSpriteLocalIndexBatched(level[s.Name()])
		}
	}
	if cmds, ok := r.fallbackCache[z]; ok && r.fallback != nil {
		r.fallback.DrawSpriteLocalIndexBatched(cmds)
	}

	r.UpdateAnimatedSprites(z)
}

func (r *tileRegistry) ClearAll() {
	r.mustReady("ClearAll")
	r.clearSurfaces()
	r.staticCache = make(map[int32]map[string][]common.DrawCommand)
	r.fallbackCache = make(map[int32][]common.DrawCommand)
	r.animated = nil
}

func (r *tileRegistry) Dispose() {
	if r.state == StateDisposed {
		return
	}
	for _, s := range r.surfaces {
		s.Dispose()
	}
	if r.fallback != nil {
		r.fallback.Dispose()
	}
	r.staticCache = nil
	r.fallbackCache = nil
	r.animated = nil
	r.state = StateDisposed
}

func (r *tileRegistry) Surfaces() []tile_surface.TileSurface {
	return r.surfaces
}

func (r *tileRegistry) FallbackSurface() tile_surface.TileSurface {
	return r.fallback
}

func (r *tileRegistry) ActiveZLevel() int32 {
	return r.activeZ
}

func (r *tileRegistry) AnimatedCount() int {
	return len(r.animated)
}

func (r *tileRegistry) State() State {
	return r.state
}

func (r *tileRegistry) TileSize() (float32, float32) {
	return r.tileWidth, r.tileHeight
}

// surfaceFor returns the first surface whose range holds index, or nil.
func (r *tileRegistry) surfaceFor(index uint32) tile_surface.TileSurface {
	for _, s := range r.surfaces {
		if s.IsWithinRange(index) {
			return s
		}
	}
	return nil
}

func (r *tileRegistry) drawCommand(local uint32, pos common.GridPosition, layer uint32, rotateDeg int32) common.DrawCommand {
	return common.DrawCommand{
		LocalIndex: local,
		Layer:      layer,
		Position:   ComputeDrawPosition(float32(pos.X), float32(pos.Y), r.tileWidth, r.tileHeight, layer),
		RotateDeg:  rotateDeg,
	}
}

func (r *tileRegistry) clearSurfaces() {
	for _, s := range r.surfaces {
		s.Clear()
	}
	if r.fallback != nil {
		r.fallback.Clear()
	}
}

func (r *tileRegistry) mustReady(op string) {
	if r.state != StateReady {
		panic(fmt.Sprintf("tile_registry: %s called on a %s registry", op, r.state))
	}
}
