package tile_surface

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/material"
)

// TileSurfaceBuilderOption is a function that configures a tile surface during construction.
type TileSurfaceBuilderOption func(*tileSurface)

// WithRange sets the half-open global sprite-index range [start, end) owned by the surface.
//
// Parameters:
//   - start: the first owned index
//   - end: one past the last owned index
//
// Returns:
//   - TileSurfaceBuilderOption: a function that applies the range option
func WithRange(start, end uint32) TileSurfaceBuilderOption {
	return func(s *tileSurface) {
		s.rangeStart = start
		s.rangeEnd = end
		s.hasRange = true
	}
}

// WithTileSize sets the size of one sprite cell in atlas pixels. Defaults to 32x32.
//
// Parameters:
//   - width: cell width in pixels
//   - height: cell height in pixels
//
// Returns:
//   - TileSurfaceBuilderOption: a function that applies the tile size option
func WithTileSize(width, height uint32) TileSurfaceBuilderOption {
	return func(s *tileSurface) {
		s.tileWidth = width
		s.tileHeight = height
	}
}

// WithSpritesPerRow overrides the sheet row width. By default it is derived from the atlas
// texture width divided by the tile width.
//
// Parameters:
//   - n: sprite cells per atlas row
//
// Returns:
//   - TileSurfaceBuilderOption: a function that applies the row width option
func WithSpritesPerRow(n uint32) TileSurfaceBuilderOption {
	return func(s *tileSurface) {
		s.spritesPerRow = n
	}
}

// WithMaterialOptions forwards options to the atlas material the surface creates.
//
// Parameters:
//   - opts: atlas material options (texture, quad size, sprite offset, capacity)
//
// Returns:
//   - TileSurfaceBuilderOption: a function that applies the material options
func WithMaterialOptions(opts ...material.AtlasMaterialBuilderOption) TileSurfaceBuilderOption {
	return func(s *tileSurface) {
		s.materialOptions = append(s.materialOptions, opts...)
	}
}

// WithOnDispose registers a release hook for the scoped tileset image handle backing the
// surface. It runs once, on Dispose.
//
// Parameters:
//   - fn: the release hook
//
// Returns:
//   - TileSurfaceBuilderOption: a function that applies the hook
func WithOnDispose(fn func()) TileSurfaceBuilderOption {
	return func(s *tileSurface) {
		s.onDispose = fn
	}
}
