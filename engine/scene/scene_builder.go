package scene

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/signal"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithGridBus sets the bus the scene listens on for grid toggles while mounted.
//
// Parameters:
//   - bus: the grid toggle bus
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithGridBus(bus *signal.Bus[signal.GridToggle]) SceneBuilderOption {
	return func(s *scene) {
		s.gridBus = bus
	}
}

// WithZLevelBus sets the bus the scene listens on for z-level changes while mounted.
//
// Parameters:
//   - bus: the z-level change bus
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithZLevelBus(bus *signal.Bus[signal.ZLevelChange]) SceneBuilderOption {
	return func(s *scene) {
		s.zLevelBus = bus
	}
}

// WithGridColor sets the RGBA colour of the grid lines.
func WithGridColor(c [4]float32) SceneBuilderOption {
	return func(s *scene) {
		s.gridColor = c
	}
}

// WithGridVisible sets whether the grid is shown when the scene is first mounted.
func WithGridVisible(visible bool) SceneBuilderOption {
	return func(s *scene) {
		s.gridVisible = visible
	}
}

// WithMaxGridLines sets the line count past which the grid is hidden.
//
// Parameters:
//   - n: the line cap, ignored if 0
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxGridLines(n uint32) SceneBuilderOption {
	return func(s *scene) {
		if n > 0 {
			s.gridLines = n
		}
	}
}
