package signal

// GridToggle asks the map view to show or hide the grid overlay.
type GridToggle struct {
	// Visible is the requested visibility. Ignored when Flip is set.
	Visible bool
	// Flip inverts the current visibility instead of setting it.
	Flip bool
}

// ZLevelChange asks the map view to display another z-level.
type ZLevelChange struct {
	// Z is the absolute z-level. Ignored when Relative is set.
	Z int32
	// Delta is added to the current z-level when Relative is set.
	Delta    int32
	Relative bool
}

// Resolve returns the z-level the change leads to from current.
//
// Parameters:
//   - current: the z-level being displayed
//
// Returns:
//   - int32: the target z-level
func (c ZLevelChange) Resolve(current int32) int32 {
	if c.Relative {
		return current + c.Delta
	}
	return c.Z
}

// Resolve returns the visibility the toggle leads to from current.
//
// Parameters:
//   - current: whether the grid is currently shown
//
// Returns:
//   - bool: the target visibility
func (g GridToggle) Resolve(current bool) bool {
	if g.Flip {
		return !current
	}
	return g.Visible
}
