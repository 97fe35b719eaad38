package tile_surface

// FallbackSpritesPerRow is the fixed row width of the fallback ASCII sheet.
const FallbackSpritesPerRow = 16

// NewFallbackSurface creates the fallback surface: no index range, a 16-per-row sheet, and
// local indices equal to global indices. It is only reached when a caller routes to it
// explicitly.
//
// Parameters:
//   - name: the surface name, normally the fallback atlas file name
//   - options: variadic list of TileSurfaceBuilderOption functions; WithRange is ignored
//
// Returns:
//   - TileSurface: the fallback surface
func NewFallbackSurface(name string, options ...TileSurfaceBuilderOption) TileSurface {
	opts := append([]TileSurfaceBuilderOption{WithSpritesPerRow(FallbackSpritesPerRow)}, options...)
	opts = append(opts, func(s *tileSurface) {
		s.fallback = true
		s.hasRange = false
		s.spritesPerRow = FallbackSpritesPerRow
	})
	return NewTileSurface(name, opts...)
}
