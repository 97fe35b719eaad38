package grid

// GridBuilderOption configures a Grid in NewGrid.
type GridBuilderOption func(*grid)

// WithCellSize sets the cell size in world units. Normally the tile size.
//
// Parameters:
//   - width, height: the cell size
//
// Returns:
//   - GridBuilderOption: a function that sets the cell size
func WithCellSize(width, height float32) GridBuilderOption {
	return func(g *grid) {
		if width > 0 && height > 0 {
			g.cellSize = [2]float32{width, height}
		}
	}
}

// WithColor sets the RGBA line colour.
//
// Parameters:
//   - c: the colour, components in [0, 1]
//
// Returns:
//   - GridBuilderOption: a function that sets the colour
func WithColor(c [4]float32) GridBuilderOption {
	return func(g *grid) {
		g.color = c
	}
}

// WithVisible sets the initial visibility. Grids start hidden.
//
// Parameters:
//   - visible: true to show the grid
//
// Returns:
//   - GridBuilderOption: a function that sets visibility
func WithVisible(visible bool) GridBuilderOption {
	return func(g *grid) {
		g.visible = visible
	}
}

// WithMaxLines caps the number of lines drawn. Past the cap, the grid is not drawn.
//
// Parameters:
//   - n: the line cap
//
// Returns:
//   - GridBuilderOption: a function that sets the cap
func WithMaxLines(n uint32) GridBuilderOption {
	return func(g *grid) {
		if n > 0 {
			g.maxLines = n
		}
	}
}
