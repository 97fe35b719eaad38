package feed

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
)

type submitResponse struct {
	Z        int32 `json:"z"`
	Static   int   `json:"static"`
	Animated int   `json:"animated"`
	Fallback int   `json:"fallback"`
}

type zLevelRequest struct {
	Z     *int32 `json:"z"`
	Delta *int32 `json:"delta"`
}

type gridRequest struct {
	Visible *bool `json:"visible"`
}

type reloadRequest struct {
	Dir string `json:"dir"`
}

// SubmitSprites handles POST /api/sprites?z=N - queues a placement batch for level N.
// Without z the batch is drawn on the level currently displayed.
func (s *Server) SubmitSprites(w http.ResponseWriter, r *http.Request) {
	z := s.view.Status().ZLevel
	if zStr := r.URL.Query().Get("z"); zStr != "" {
		v, err := strconv.ParseInt(zStr, 10, 32)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid z-level")
			return
		}
		z = int32(v)
	}

	var sprites common.Sprites
	if err := s.decode(w, r, &sprites); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.view.Submit(sprites, z); err != nil {
		respondEngineError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, submitResponse{
		Z:        z,
		Static:   len(sprites.StaticSprites),
		Animated: len(sprites.AnimatedSprites),
		Fallback: len(sprites.FallbackSprites),
	})
}

// SetZLevel handles POST /api/zlevel - {"z": n} switches to level n, {"delta": d} moves d levels.
func (s *Server) SetZLevel(w http.ResponseWriter, r *http.Request) {
	var req zLevelRequest
	if err := s.decode(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ok bool
	switch {
	case req.Z != nil && req.Delta != nil:
		respondError(w, http.StatusBadRequest, "Set either z or delta")
		return
	case req.Z != nil:
		ok = s.view.SetZLevel(*req.Z)
	case req.Delta != nil:
		ok = s.view.ShiftZLevel(*req.Delta)
	default:
		respondError(w, http.StatusBadRequest, "Missing z or delta")
		return
	}
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "Signal queue full")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// SetGrid handles POST /api/grid - {"visible": b} sets the overlay, an empty body toggles it.
func (s *Server) SetGrid(w http.ResponseWriter, r *http.Request) {
	var req gridRequest
	if err := s.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ok bool
	if req.Visible != nil {
		ok = s.view.SetGridVisible(*req.Visible)
	} else {
		ok = s.view.ToggleGrid()
	}
	if !ok {
		respondError(w, http.StatusServiceUnavailable, "Signal queue full")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// GetStatus handles GET /api/status - returns the map view snapshot
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.view.Status())
}

// GetTileset handles GET /api/tileset - returns the active tileset's metadata
func (s *Server) GetTileset(w http.ResponseWriter, r *http.Request) {
	ts := s.view.Tileset()
	if ts == nil {
		respondError(w, http.StatusNotFound, "No tileset loaded")
		return
	}
	respondJSON(w, http.StatusOK, ts.Metadata())
}

// ReloadTileset handles POST /api/tileset - {"dir": path} loads and swaps in another tileset.
// An empty dir selects the built-in tileset.
func (s *Server) ReloadTileset(w http.ResponseWriter, r *http.Request) {
	var req reloadRequest
	if err := s.decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var ts *tileset.Tileset
	if req.Dir == "" {
		ts = tileset.Default()
	} else {
		loaded, err := s.loadTileset(r.Context(), req.Dir)
		if err != nil {
			log.Printf("[Feed] load tileset %s: %v", req.Dir, err)
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		ts = loaded
	}

	if err := s.view.ReloadTileset(ts); err != nil {
		if s.view.Tileset() != ts {
			ts.Release()
		}
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ts.Metadata())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func respondEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrQueueFull), errors.Is(err, engine.ErrStopped):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Feed] encode response: %v", err)
	}
}

// respondError writes an error JSON response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
