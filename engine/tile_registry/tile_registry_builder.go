package tile_registry

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_surface"
)

// TileRegistryBuilderOption is a function that configures a tile registry during construction.
type TileRegistryBuilderOption func(*tileRegistry)

// WithTileSize sets the tile pixel size used by the depth key. Defaults to 32x32.
//
// Parameters:
//   - width: tile width in pixels
//   - height: tile height in pixels
//
// Returns:
//   - TileRegistryBuilderOption: a function that applies the tile size option
func WithTileSize(width, height uint32) TileRegistryBuilderOption {
	return func(r *tileRegistry) {
		r.tileWidth = float32(width)
		r.tileHeight = float32(height)
	}
}

// WithSurfaces appends range surfaces. Routing tries them in the order given.
//
// Parameters:
//   - surfaces: the range surfaces
//
// Returns:
//   - TileRegistryBuilderOption: a function that applies the surfaces option
func WithSurfaces(surfaces ...tile_surface.TileSurface) TileRegistryBuilderOption {
	return func(r *tileRegistry) {
		r.surfaces = append(r.surfaces, surfaces...)
	}
}

// WithFallbackSurface sets the fallback surface.
//
// Parameters:
//   - s: the fallback surface
//
// Returns:
//   - TileRegistryBuilderOption: a function that applies the fallback option
func WithFallbackSurface(s tile_surface.TileSurface) TileRegistryBuilderOption {
	return func(r *tileRegistry) {
		r.fallback = s
	}
}
