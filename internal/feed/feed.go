package feed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
)

// DefaultMaxBodyBytes caps the size of a placement batch request.
const DefaultMaxBodyBytes = 64 << 20

// MapView is the part of the engine the feed drives. Every method must be safe to call from
// HTTP handler goroutines.
type MapView interface {
	Submit(sprites common.Sprites, z int32) error
	SetGridVisible(visible bool) bool
	ToggleGrid() bool
	SetZLevel(z int32) bool
	ShiftZLevel(delta int32) bool
	ReloadTileset(ts *tileset.Tileset) error
	Tileset() *tileset.Tileset
	Status() engine.Status
}

var _ MapView = (engine.Engine)(nil)

// TilesetLoader loads the tileset in dir for a reload request.
type TilesetLoader func(ctx context.Context, dir string) (*tileset.Tileset, error)

// Server is the inbound HTTP feed of a map view.
type Server struct {
	view         MapView
	loadTileset  TilesetLoader
	maxBodyBytes int64
	router       chi.Router
}

// NewServer creates the feed and its routes.
//
// Parameters:
//   - view: the map view placements and signals are forwarded to
//   - options: functional options
//
// Returns:
//   - *Server: the feed
func NewServer(view MapView, options ...ServerBuilderOption) *Server {
	if view == nil {
		panic("feed: nil map view")
	}
	s := &Server{
		view:         view,
		maxBodyBytes: DefaultMaxBodyBytes,
		loadTileset: func(ctx context.Context, dir string) (*tileset.Tileset, error) {
			return tileset.Load(ctx, dir)
		},
	}
	for _, opt := range options {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the feed's router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sprites", s.SubmitSprites)
		r.Post("/zlevel", s.SetZLevel)
		r.Post("/grid", s.SetGrid)

		r.Get("/status", s.GetStatus)
		r.Get("/tileset", s.GetTileset)
		r.Post("/tileset", s.ReloadTileset)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

// ListenAndServe serves the feed on addr until ctx is cancelled, then shuts down gracefully.
//
// Parameters:
//   - ctx: cancels the server
//   - addr: the listen address
//
// Returns:
//   - error: the listen error, or nil after a clean shutdown
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[Feed] listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("feed: shutdown: %w", err)
		}
		log.Printf("[Feed] stopped")
		return nil
	}
}

// requestLogger logs one line per request with the status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Printf("[Feed] %s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
