package feed

// ServerBuilderOption is a functional option applied to a Server during construction via NewServer.
type ServerBuilderOption func(*Server)

// WithTilesetLoader replaces tileset.Load as the loader used by POST /api/tileset.
//
// Parameters:
//   - load: the loader
//
// Returns:
//   - ServerBuilderOption: a function that sets the loader
func WithTilesetLoader(load TilesetLoader) ServerBuilderOption {
	return func(s *Server) {
		if load != nil {
			s.loadTileset = load
		}
	}
}

// WithMaxBodyBytes caps request bodies.
//
// Parameters:
//   - n: the limit in bytes, ignored if <= 0
//
// Returns:
//   - ServerBuilderOption: a function that sets the limit
func WithMaxBodyBytes(n int64) ServerBuilderOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}
