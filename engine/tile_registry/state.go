package tile_registry

// State is the lifecycle state of a TileRegistry.
type State int

const (
	// StateUninitialized is the zero value, before surfaces are attached.
	StateUninitialized State = iota
	// StateReady accepts draw, tick and switch calls.
	StateReady
	// StateDisposed is terminal; every draw, tick or switch call panics.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
