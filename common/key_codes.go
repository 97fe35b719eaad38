package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87  // W key (ASCII)
	KeyA     = 65  // A key (ASCII)
	KeyS     = 83  // S key (ASCII)
	KeyD     = 68  // D key (ASCII)
	KeyG     = 71  // G key (ASCII), toggles the grid overlay
	KeyR     = 82  // R key (ASCII), resets the camera
	KeyMinus = 45  // - key (ASCII)
	KeyEqual = 61  // = key (ASCII)
	KeyEsc   = 256 // Escape key (GLFW)

	KeyPageUp   = 266 // Page Up (GLFW), moves one z-level up
	KeyPageDown = 267 // Page Down (GLFW), moves one z-level down
)
