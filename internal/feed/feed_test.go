package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
)

// fakeView records the calls the feed forwards.
type fakeView struct {
	mu         sync.Mutex
	submitted  []common.Sprites
	submitZ    []int32
	submitErr  error
	grid       []string
	zlevels    []string
	signalFull bool
	z          int32
	ts         *tileset.Tileset
	reloadErr  error
}

var _ MapView = &fakeView{}

func (f *fakeView) Submit(sprites common.Sprites, z int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, sprites)
	f.submitZ = append(f.submitZ, z)
	return nil
}

func (f *fakeView) SetGridVisible(visible bool) bool {
	if visible {
		f.grid = append(f.grid, "show")
	} else {
		f.grid = append(f.grid, "hide")
	}
	return !f.signalFull
}

func (f *fakeView) ToggleGrid() bool {
	f.grid = append(f.grid, "toggle")
	return !f.signalFull
}

func (f *fakeView) SetZLevel(z int32) bool {
	f.zlevels = append(f.zlevels, "set")
	f.z = z
	return !f.signalFull
}

func (f *fakeView) ShiftZLevel(delta int32) bool {
	f.zlevels = append(f.zlevels, "shift")
	f.z += delta
	return !f.signalFull
}

func (f *fakeView) ReloadTileset(ts *tileset.Tileset) error {
	if f.reloadErr != nil {
		return f.reloadErr
	}
	f.ts = ts
	return nil
}

func (f *fakeView) Tileset() *tileset.Tileset { return f.ts }

func (f *fakeView) Status() engine.Status {
	return engine.Status{Running: true, Mounted: true, ZLevel: f.z, Tileset: "test"}
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewServerPanicsOnNilView(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewServer(nil) did not panic")
		}
	}()
	NewServer(nil)
}

func TestHealth(t *testing.T) {
	rec := do(t, NewServer(&fakeView{}), http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("GET /api/health = %d %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestSubmitSprites(t *testing.T) {
	body := `{
		"static_sprites": [
			{"position": "2,3", "index": 5, "layer": 1, "z": 0, "rotate_deg": 90}
		],
		"animated_sprites": [
			{"position": "0,0", "indices": [7, 8, 9], "layer": 0, "z": 0, "rotate_deg": 0}
		],
		"fallback_sprites": []
	}`

	tests := []struct {
		name      string
		target    string
		body      string
		submitErr error
		wantCode  int
		wantZ     int32
	}{
		{name: "explicit z", target: "/api/sprites?z=-3", body: body, wantCode: http.StatusAccepted, wantZ: -3},
		{name: "current z", target: "/api/sprites", body: body, wantCode: http.StatusAccepted, wantZ: 4},
		{name: "bad z", target: "/api/sprites?z=up", body: body, wantCode: http.StatusBadRequest},
		{name: "bad position", target: "/api/sprites", body: `{"static_sprites":[{"position":"2"}]}`, wantCode: http.StatusBadRequest},
		{name: "unknown field", target: "/api/sprites", body: `{"tiles":[]}`, wantCode: http.StatusBadRequest},
		{name: "queue full", target: "/api/sprites", body: body, submitErr: engine.ErrQueueFull, wantCode: http.StatusServiceUnavailable},
		{name: "stopped", target: "/api/sprites", body: body, submitErr: engine.ErrStopped, wantCode: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{z: 4, submitErr: tt.submitErr}
			rec := do(t, NewServer(view), http.MethodPost, tt.target, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantCode != http.StatusAccepted {
				if len(view.submitted) != 0 {
					t.Error("rejected batch was submitted")
				}
				return
			}

			if len(view.submitted) != 1 || view.submitZ[0] != tt.wantZ {
				t.Fatalf("submitted %d batches at %v", len(view.submitted), view.submitZ)
			}
			got := view.submitted[0]
			if len(got.StaticSprites) != 1 || got.StaticSprites[0].Position != (common.GridPosition{X: 2, Y: 3}) || got.StaticSprites[0].RotateDeg != 90 {
				t.Errorf("static sprites = %+v", got.StaticSprites)
			}
			if len(got.AnimatedSprites) != 1 || len(got.AnimatedSprites[0].Indices) != 3 {
				t.Errorf("animated sprites = %+v", got.AnimatedSprites)
			}

			var resp submitResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp != (submitResponse{Z: tt.wantZ, Static: 1, Animated: 1}) {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestSubmitSpritesBodyLimit(t *testing.T) {
	view := &fakeView{}
	s := NewServer(view, WithMaxBodyBytes(16))
	rec := do(t, s, http.MethodPost, "/api/sprites", `{"static_sprites": [], "animated_sprites": []}`)
	if rec.Code != http.StatusBadRequest || len(view.submitted) != 0 {
		t.Errorf("oversized body = %d, submitted %d", rec.Code, len(view.submitted))
	}
}

func TestSetZLevel(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		full     bool
		wantCode int
		wantCall string
		wantZ    int32
	}{
		{name: "absolute", body: `{"z": 2}`, wantCode: http.StatusAccepted, wantCall: "set", wantZ: 2},
		{name: "relative", body: `{"delta": -1}`, wantCode: http.StatusAccepted, wantCall: "shift", wantZ: 9},
		{name: "both", body: `{"z": 1, "delta": 1}`, wantCode: http.StatusBadRequest},
		{name: "neither", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "bad json", body: `{"z":`, wantCode: http.StatusBadRequest},
		{name: "queue full", body: `{"z": 2}`, full: true, wantCode: http.StatusServiceUnavailable, wantCall: "set", wantZ: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{z: 10, signalFull: tt.full}
			rec := do(t, NewServer(view), http.MethodPost, "/api/zlevel", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if tt.wantCall == "" {
				if len(view.zlevels) != 0 {
					t.Errorf("calls = %v, want none", view.zlevels)
				}
				return
			}
			if len(view.zlevels) != 1 || view.zlevels[0] != tt.wantCall || view.z != tt.wantZ {
				t.Errorf("calls = %v, z = %d", view.zlevels, view.z)
			}
		})
	}
}

func TestSetGrid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		want     []string
	}{
		{name: "show", body: `{"visible": true}`, wantCode: http.StatusAccepted, want: []string{"show"}},
		{name: "hide", body: `{"visible": false}`, wantCode: http.StatusAccepted, want: []string{"hide"}},
		{name: "empty body toggles", body: "", wantCode: http.StatusAccepted, want: []string{"toggle"}},
		{name: "empty object toggles", body: `{}`, wantCode: http.StatusAccepted, want: []string{"toggle"}},
		{name: "bad json", body: `{"visible": "yes"}`, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{}
			rec := do(t, NewServer(view), http.MethodPost, "/api/grid", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if strings.Join(view.grid, ",") != strings.Join(tt.want, ",") {
				t.Errorf("calls = %v, want %v", view.grid, tt.want)
			}
		})
	}
}

func TestGetStatus(t *testing.T) {
	rec := do(t, NewServer(&fakeView{z: 7}), http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var st engine.Status
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if !st.Running || st.ZLevel != 7 || st.Tileset != "test" {
		t.Errorf("status = %+v", st)
	}
}

func TestGetTileset(t *testing.T) {
	view := &fakeView{}
	s := NewServer(view)

	if rec := do(t, s, http.MethodGet, "/api/tileset", ""); rec.Code != http.StatusNotFound {
		t.Errorf("no tileset: code = %d", rec.Code)
	}

	view.ts = tileset.Default()
	rec := do(t, s, http.MethodGet, "/api/tileset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var md tileset.Metadata
	if err := json.NewDecoder(rec.Body).Decode(&md); err != nil {
		t.Fatal(err)
	}
	if md.Name != tileset.DefaultName || md.Fallback == nil || md.FallbackGlyphs == 0 {
		t.Errorf("metadata = %+v", md)
	}
}

func TestReloadTileset(t *testing.T) {
	errLoad := errors.New("no tile_config.json")
	loader := func(ctx context.Context, dir string) (*tileset.Tileset, error) {
		if dir == "missing" {
			return nil, errLoad
		}
		return tileset.Default(), nil
	}

	tests := []struct {
		name      string
		body      string
		reloadErr error
		wantCode  int
	}{
		{name: "built in", body: ``, wantCode: http.StatusOK},
		{name: "from dir", body: `{"dir": "gfx/test"}`, wantCode: http.StatusOK},
		{name: "load error", body: `{"dir": "missing"}`, wantCode: http.StatusUnprocessableEntity},
		{name: "engine stopped", body: `{}`, reloadErr: engine.ErrStopped, wantCode: http.StatusServiceUnavailable},
		{name: "upload error", body: `{}`, reloadErr: errors.New("bind group"), wantCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &fakeView{reloadErr: tt.reloadErr}
			rec := do(t, NewServer(view, WithTilesetLoader(loader)), http.MethodPost, "/api/tileset", tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tt.wantCode, rec.Body)
			}
			if (tt.wantCode == http.StatusOK) != (view.ts != nil) {
				t.Errorf("tileset swapped = %v", view.ts != nil)
			}
		})
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewServer(&fakeView{}).ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-errc; err != nil {
		t.Errorf("ListenAndServe() = %v", err)
	}
}
