package tileset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0x80, 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

const testConfig = `{
  "tile_info": [{"width": 32, "height": 32, "pixelscale": 2}],
  "tiles-new": [
    {"file": "normal.png", "//": "range 1 to 16"},
    {"file": "tall.png", "sprite_width": 32, "sprite_height": 64, "sprite_offset_y": -32, "//": "range 16 to 20"},
    {"file": "fallback.png", "ascii": [
      {"offset": 0, "bold": false, "color": "WHITE"},
      {"offset": 256, "bold": true, "color": "RED"}
    ]}
  ]
}`

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		ConfigFileName: {Data: []byte(testConfig)},
		"normal.png":   {Data: pngBytes(t, 128, 128)},
		"tall.png":     {Data: pngBytes(t, 64, 128)},
	}
}

func TestParseRangeComment(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantStart uint32
		wantEnd   uint32
		wantErr   bool
	}{
		{name: "first sheet starts at zero", in: "range 1 to 1024", wantStart: 0, wantEnd: 1024},
		{name: "later sheet", in: "range 1024 to 2048", wantStart: 1024, wantEnd: 2048},
		{name: "extra spaces", in: "range  5 to  9", wantStart: 5, wantEnd: 9},
		{name: "missing to", in: "range 5 9", wantErr: true},
		{name: "missing prefix", in: "5 to 9", wantErr: true},
		{name: "not a number", in: "range a to 9", wantErr: true},
		{name: "end before start", in: "range 9 to 5", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseRangeComment(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("got %d..%d, want %d..%d", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "invalid json", in: `{`},
		{name: "no tile_info", in: `{"tile_info": [], "tiles-new": []}`},
		{name: "zero tile size", in: `{"tile_info": [{"width": 0, "height": 32}]}`},
		{name: "bad range", in: `{"tile_info": [{"width": 32, "height": 32}], "tiles-new": [{"file": "a.png", "//": "all of them"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConfig([]byte(tt.in)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestLoadFS(t *testing.T) {
	ts, err := LoadFS(context.Background(), "test", testFS(t), WithWorkers(2))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	if ts.TileWidth != 64 || ts.TileHeight != 64 {
		t.Errorf("tile size = %dx%d, want 64x64", ts.TileWidth, ts.TileHeight)
	}
	if len(ts.Sheets) != 2 {
		t.Fatalf("sheets = %d, want 2", len(ts.Sheets))
	}

	normal := ts.Sheets[0]
	if normal.Name != "normal.png" || normal.RangeStart != 0 || normal.RangeEnd != 16 {
		t.Errorf("normal sheet = %+v", normal)
	}
	if normal.SpriteWidth != 64 || normal.SpriteHeight != 64 {
		t.Errorf("normal sprite = %dx%d, want 64x64", normal.SpriteWidth, normal.SpriteHeight)
	}
	if normal.Image.Width != 256 || normal.Image.Height != 256 {
		t.Errorf("normal image = %dx%d, want 256x256", normal.Image.Width, normal.Image.Height)
	}
	if got := len(normal.Image.Pixels); got != 256*256*4 {
		t.Errorf("normal pixels = %d bytes", got)
	}

	tall := ts.Sheets[1]
	if tall.RangeStart != 16 || tall.RangeEnd != 20 {
		t.Errorf("tall range = %d..%d", tall.RangeStart, tall.RangeEnd)
	}
	if tall.SpriteWidth != 64 || tall.SpriteHeight != 128 || tall.OffsetY != -64 {
		t.Errorf("tall sheet = %+v", tall)
	}

	if ts.Fallback == nil {
		t.Fatal("expected a fallback sheet")
	}
	if ts.Fallback.SpriteWidth != GlyphCellSize || ts.Fallback.Image.Width != FallbackSpritesPerRow*GlyphCellSize {
		t.Errorf("generated fallback = %dpx cells, %dpx wide", ts.Fallback.SpriteWidth, ts.Fallback.Image.Width)
	}
}

func TestLoadFSFallbackImage(t *testing.T) {
	fsys := testFS(t)
	fsys["fallback.png"] = &fstest.MapFile{Data: pngBytes(t, 512, 32)}

	ts, err := LoadFS(context.Background(), "test", fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if ts.Fallback.Image.Width != 1024 || ts.Fallback.Image.Height != 64 {
		t.Errorf("fallback image = %dx%d, want 1024x64", ts.Fallback.Image.Width, ts.Fallback.Image.Height)
	}
	if ts.Fallback.SpriteWidth != 64 {
		t.Errorf("fallback cell = %d, want the tile width", ts.Fallback.SpriteWidth)
	}
}

func TestLoadFSErrors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		if _, err := LoadFS(context.Background(), "empty", fstest.MapFS{}); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("missing sheet", func(t *testing.T) {
		fsys := testFS(t)
		delete(fsys, "tall.png")
		if _, err := LoadFS(context.Background(), "test", fsys); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("undecodable sheet", func(t *testing.T) {
		fsys := testFS(t)
		fsys["tall.png"] = &fstest.MapFile{Data: []byte("not an image")}
		if _, err := LoadFS(context.Background(), "test", fsys); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("no fallback sheet", func(t *testing.T) {
		fsys := fstest.MapFS{
			ConfigFileName: {Data: []byte(`{"tile_info": [{"width": 32, "height": 32}], "tiles-new": []}`)},
		}
		_, err := LoadFS(context.Background(), "test", fsys)
		if !errors.Is(err, ErrNoFallbackSheet) {
			t.Errorf("err = %v, want ErrNoFallbackSheet", err)
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := LoadFS(ctx, "test", testFS(t)); !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestFallbackIndex(t *testing.T) {
	ts, err := LoadFS(context.Background(), "test", testFS(t))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	tests := []struct {
		char, color string
		want        uint32
		ok          bool
	}{
		{"@", "WHITE", 63, true},
		{"@", "RED", 256 + 63, true},
		{"|", "RED", 256 + 178, true},
		{"@", "BLUE", 0, false},
		{"é", "WHITE", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.char+"_"+tt.color, func(t *testing.T) {
			got, ok := ts.FallbackIndex(tt.char, tt.color)
			if ok != tt.ok || got != tt.want {
				t.Errorf("FallbackIndex = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestQuadOffset(t *testing.T) {
	tests := []struct {
		name         string
		sheet        Sheet
		tileHeight   uint32
		wantX, wantY int32
	}{
		{name: "tile sized", sheet: Sheet{SpriteWidth: 32, SpriteHeight: 32}, tileHeight: 32},
		{name: "tall drawn upward", sheet: Sheet{SpriteWidth: 32, SpriteHeight: 64, OffsetY: -32}, tileHeight: 32},
		{name: "wide shifted left", sheet: Sheet{SpriteWidth: 64, SpriteHeight: 64, OffsetX: -16, OffsetY: -32}, tileHeight: 32, wantX: -16},
		{name: "small centred", sheet: Sheet{SpriteWidth: 16, SpriteHeight: 16, OffsetX: 8, OffsetY: 8}, tileHeight: 32, wantX: 8, wantY: 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := QuadOffset(tt.sheet, tt.tileHeight)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("QuadOffset = (%d, %d), want (%d, %d)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	ts := Default()
	if ts.Name != DefaultName {
		t.Errorf("name = %q", ts.Name)
	}
	if len(ts.Sheets) != 0 {
		t.Errorf("sheets = %d, want 0", len(ts.Sheets))
	}
	if ts.TileWidth != 16 || ts.TileHeight != 16 {
		t.Errorf("tile size = %dx%d, want 16x16", ts.TileWidth, ts.TileHeight)
	}
	if got, ok := ts.FallbackIndex("@", "LIGHT_GRAY"); !ok || got != 7*FallbackGroupSize+63 {
		t.Errorf("FallbackIndex(@, LIGHT_GRAY) = (%d, %v)", got, ok)
	}
	wantH := uint32(16*FallbackGroupSize/FallbackSpritesPerRow) * GlyphCellSize
	if ts.Fallback.Image.Height != wantH {
		t.Errorf("atlas height = %d, want %d", ts.Fallback.Image.Height, wantH)
	}
}

func TestNewRegistry(t *testing.T) {
	ts, err := LoadFS(context.Background(), "test", testFS(t), WithMaxInstances(64))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	reg, err := ts.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := len(reg.Surfaces()); got != 2 {
		t.Errorf("surfaces = %d, want 2", got)
	}
	if reg.FallbackSurface() == nil || !reg.FallbackSurface().IsFallback() {
		t.Error("expected a fallback surface")
	}
	if w, h := reg.TileSize(); w != 64 || h != 64 {
		t.Errorf("registry tile size = %vx%v, want 64x64", w, h)
	}
	if got := reg.Surfaces()[0].SpritesPerRow(); got != 4 {
		t.Errorf("normal sprites per row = %d, want 4", got)
	}
	reg.Dispose()

	ts.Release()
	if !ts.Released() {
		t.Error("expected Released")
	}
	if _, err := ts.NewRegistry(); !errors.Is(err, ErrReleased) {
		t.Errorf("err = %v, want ErrReleased", err)
	}
}

func TestSheetRangeEndIsExclusive(t *testing.T) {
	ts, err := LoadFS(context.Background(), "test", testFS(t), WithMaxInstances(64))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	defer ts.Release()
	reg, err := ts.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	defer reg.Dispose()

	normal, tall := reg.Surfaces()[0], reg.Surfaces()[1]
	tests := []struct {
		index    uint32
		inNormal bool
		inTall   bool
	}{
		{index: 0, inNormal: true},
		{index: 15, inNormal: true},
		{index: 16, inTall: true},
		{index: 19, inTall: true},
		{index: 20},
	}
	for _, tt := range tests {
		if got := normal.IsWithinRange(tt.index); got != tt.inNormal {
			t.Errorf("normal.IsWithinRange(%d) = %v, want %v", tt.index, got, tt.inNormal)
		}
		if got := tall.IsWithinRange(tt.index); got != tt.inTall {
			t.Errorf("tall.IsWithinRange(%d) = %v, want %v", tt.index, got, tt.inTall)
		}
	}
}

func TestMetadata(t *testing.T) {
	ts, err := LoadFS(context.Background(), "test", testFS(t))
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	m := ts.Metadata()
	if m.Name != "test" || m.PixelScale != 2 || m.TileWidth != 64 {
		t.Errorf("metadata = %+v", m)
	}
	if len(m.Sheets) != 2 || m.Sheets[1].Name != "tall.png" {
		t.Errorf("sheets = %+v", m.Sheets)
	}
	if m.Fallback == nil || m.FallbackGlyphs != 2*len(FallbackTileMapping) {
		t.Errorf("fallback = %+v, glyphs = %d", m.Fallback, m.FallbackGlyphs)
	}
}
