package tileset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_registry"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile_surface"
)

// ErrNoFallbackSheet is returned when a tile config has no ascii fallback sheet.
var ErrNoFallbackSheet = errors.New("tileset: config has no fallback sheet")

// ErrReleased is returned when a released tileset is used to build a registry.
var ErrReleased = errors.New("tileset: released")

// DefaultName is the name of the built-in fallback-only tileset.
const DefaultName = "default"

// Sheet is one decoded atlas.
type Sheet struct {
	// Name is the sheet's file name; surfaces are named after it.
	Name string
	// RangeStart and RangeEnd are the global index range [RangeStart, RangeEnd). Unused by the
	// fallback sheet.
	RangeStart uint32
	RangeEnd   uint32
	Fallback   bool

	// SpriteWidth and SpriteHeight are the atlas cell size after pixelscale.
	SpriteWidth  uint32
	SpriteHeight uint32
	// OffsetX and OffsetY are the sheet's sprite_offset after pixelscale, in screen orientation.
	OffsetX int32
	OffsetY int32

	Image common.TextureStagingData
}

// Tileset is a loaded tile_config.json with every atlas decoded. Acquired with Load, LoadFS or
// Default and released with Release.
type Tileset struct {
	mu *sync.Mutex

	Name string
	Info TileInfo

	// TileWidth and TileHeight are the map cell size after pixelscale.
	TileWidth  uint32
	TileHeight uint32

	Sheets      []Sheet
	Fallback    *Sheet
	FallbackMap map[string]uint32

	maxInstances uint32
	released     bool
}

type decodeJob struct {
	sheet    int
	file     string
	fallback bool
}

type decodeResult struct {
	img *common.TextureStagingData
	err error
}

// Load reads dir/tile_config.json and decodes every atlas it names.
//
// Parameters:
//   - ctx: cancels the decode
//   - dir: the tileset directory
//   - options: functional options
//
// Returns:
//   - *Tileset: the tileset
//   - error: an error if the config or an atlas cannot be read
func Load(ctx context.Context, dir string, options ...LoaderOption) (*Tileset, error) {
	return LoadFS(ctx, filepath.Base(dir), os.DirFS(dir), options...)
}

// LoadFS is Load over an fs.FS rooted at the tileset directory.
//
// Parameters:
//   - ctx: cancels the decode
//   - name: the tileset name
//   - fsys: the tileset directory
//   - options: functional options
//
// Returns:
//   - *Tileset: the tileset
//   - error: an error if the config or an atlas cannot be read
func LoadFS(ctx context.Context, name string, fsys fs.FS, options ...LoaderOption) (*Tileset, error) {
	l := newLoader(options...)

	data, err := fs.ReadFile(fsys, ConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", name, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", name, err)
	}
	return l.build(ctx, name, cfg, fsys)
}

// Default returns the built-in tileset: the embedded fallback config with a generated glyph atlas.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Tileset: the tileset
func Default(options ...LoaderOption) *Tileset {
	l := newLoader(options...)
	ts, err := l.build(context.Background(), DefaultName, DefaultFallbackConfig(), nil)
	if err != nil {
		panic("tileset: default tileset: " + err.Error())
	}
	return ts
}

func (l *loader) build(ctx context.Context, name string, cfg *Config, fsys fs.FS) (*Tileset, error) {
	info, err := cfg.Info()
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", name, err)
	}
	fb := cfg.Fallback()
	if fb == nil {
		return nil, fmt.Errorf("tileset %q: %w", name, ErrNoFallbackSheet)
	}

	scale := info.Scale()
	ts := &Tileset{
		mu:           &sync.Mutex{},
		Name:         name,
		Info:         info,
		TileWidth:    info.Width * scale,
		TileHeight:   info.Height * scale,
		FallbackMap:  BuildFallbackMap(fb.Ascii),
		maxInstances: l.maxInstances,
	}

	var jobs []decodeJob
	for _, sc := range cfg.Sheets {
		if sc.IsFallback() {
			continue
		}
		w := info.Width
		if sc.SpriteWidth != nil {
			w = *sc.SpriteWidth
		}
		h := info.Height
		if sc.SpriteHeight != nil {
			h = *sc.SpriteHeight
		}
		var ox, oy int32
		if sc.SpriteOffsetX != nil {
			ox = *sc.SpriteOffsetX
		}
		if sc.SpriteOffsetY != nil {
			oy = *sc.SpriteOffsetY
		}
		ts.Sheets = append(ts.Sheets, Sheet{
			Name:         sc.File,
			RangeStart:   sc.RangeStart,
			RangeEnd:     sc.RangeEnd,
			SpriteWidth:  w * scale,
			SpriteHeight: h * scale,
			OffsetX:      ox * int32(scale),
			OffsetY:      oy * int32(scale),
		})
		jobs = append(jobs, decodeJob{sheet: len(ts.Sheets) - 1, file: sc.File})
	}

	ts.Fallback = &Sheet{
		Name:         fb.File,
		Fallback:     true,
		SpriteWidth:  ts.TileWidth,
		SpriteHeight: ts.TileHeight,
	}
	if fsys != nil {
		if _, statErr := fs.Stat(fsys, fb.File); statErr == nil {
			jobs = append(jobs, decodeJob{file: fb.File, fallback: true})
		}
	}

	results, err := l.decodeAll(ctx, fsys, jobs, scale)
	if err != nil {
		return nil, fmt.Errorf("tileset %q: %w", name, err)
	}
	for i, job := range jobs {
		if job.fallback {
			ts.Fallback.Image = *results[i].img
			continue
		}
		ts.Sheets[job.sheet].Image = *results[i].img
	}

	if ts.Fallback.Image.Width == 0 {
		log.Printf("[Tileset] %s: no %s image, generating glyph atlas", name, fb.File)
		ts.Fallback.Image = StagingData(GenerateFallbackAtlas(fb.Ascii))
		ts.Fallback.SpriteWidth = GlyphCellSize
		ts.Fallback.SpriteHeight = GlyphCellSize
	}

	log.Printf("[Tileset] loaded %s: %d sheets, tile %dx%d", name, len(ts.Sheets), ts.TileWidth, ts.TileHeight)
	return ts, nil
}

// decodeAll decodes every job on a worker pool and returns the results in job order.
func (l *loader) decodeAll(ctx context.Context, fsys fs.FS, jobs []decodeJob, scale uint32) ([]decodeResult, error) {
	results := make([]decodeResult, len(jobs))
	if len(jobs) == 0 {
		return results, nil
	}

	pool := worker.NewDynamicWorkerPool(l.workers, len(jobs), time.Second)
	var wg sync.WaitGroup
	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				img, err := decodeFile(fsys, job.file, scale)
				results[i] = decodeResult{img: img, err: err}
				return nil, err
			},
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
	}

	var errs []error
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return results, nil
}

func decodeFile(fsys fs.FS, file string, scale uint32) (*common.TextureStagingData, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", file, err)
	}
	img, err := DecodeImage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", file, err)
	}
	staged := StagingData(ToRGBA(img, scale))
	return &staged, nil
}

// FallbackIndex returns the fallback sprite index of a coloured character.
//
// Parameters:
//   - char: the printable character
//   - color: the ascii colour name, e.g. "LIGHT_GRAY"
//
// Returns:
//   - uint32: the sprite index
//   - bool: false if the pair is not mapped
func (t *Tileset) FallbackIndex(char, color string) (uint32, bool) {
	idx, ok := t.FallbackMap[FallbackKey(char, color)]
	return idx, ok
}

// NewRegistry builds one surface per sheet plus the fallback surface and wraps them in a tile
// registry using the tileset's cell size.
//
// Returns:
//   - tile_registry.TileRegistry: the registry
//   - error: ErrReleased if the tileset was released
func (t *Tileset) NewRegistry() (tile_registry.TileRegistry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil, ErrReleased
	}

	surfaces := make([]tile_surface.TileSurface, 0, len(t.Sheets))
	for _, sh := range t.Sheets {
		surfaces = append(surfaces, tile_surface.NewTileSurface(sh.Name,
			tile_surface.WithRange(sh.RangeStart, sh.RangeEnd),
			tile_surface.WithTileSize(sh.SpriteWidth, sh.SpriteHeight),
			tile_surface.WithMaterialOptions(
				material.WithTexture(sh.Image),
				material.WithSampler(common.PixelArtSampler()),
				material.WithQuadSize(float32(sh.SpriteWidth), float32(sh.SpriteHeight)),
				material.WithSpriteOffset(QuadOffset(sh, t.TileHeight)),
				material.WithMaxInstances(t.maxInstances),
			),
		))
	}

	fb := tile_surface.NewFallbackSurface(t.Fallback.Name,
		tile_surface.WithTileSize(t.Fallback.SpriteWidth, t.Fallback.SpriteHeight),
		tile_surface.WithMaterialOptions(
			material.WithTexture(t.Fallback.Image),
			material.WithSampler(common.PixelArtSampler()),
			material.WithQuadSize(float32(t.TileWidth), float32(t.TileHeight)),
			material.WithMaxInstances(t.maxInstances),
		),
	)

	return tile_registry.NewTileRegistry(
		tile_registry.WithTileSize(t.TileWidth, t.TileHeight),
		tile_registry.WithSurfaces(surfaces...),
		tile_registry.WithFallbackSurface(fb),
	), nil
}

// QuadOffset converts a sheet's screen-space sprite_offset into the world offset of the quad's
// bottom-left corner from its cell's bottom-left corner.
//
// Parameters:
//   - sh: the sheet
//   - tileHeight: the map cell height
//
// Returns:
//   - int32: x offset
//   - int32: y offset
func QuadOffset(sh Sheet, tileHeight uint32) (int32, int32) {
	return sh.OffsetX, int32(tileHeight) - sh.OffsetY - int32(sh.SpriteHeight)
}

// Released reports whether Release was called.
func (t *Tileset) Released() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.released
}

// Release drops the decoded pixels. Registries already built keep their own references.
func (t *Tileset) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	for i := range t.Sheets {
		t.Sheets[i].Image = common.TextureStagingData{}
	}
	if t.Fallback != nil {
		t.Fallback.Image = common.TextureStagingData{}
	}
	t.released = true
}

// SheetMetadata describes one atlas.
type SheetMetadata struct {
	Name         string `json:"name"`
	RangeStart   uint32 `json:"range_start"`
	RangeEnd     uint32 `json:"range_end"`
	SpriteWidth  uint32 `json:"sprite_width"`
	SpriteHeight uint32 `json:"sprite_height"`
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
}

// Metadata is the JSON description of a loaded tileset.
type Metadata struct {
	Name           string          `json:"name"`
	TileWidth      uint32          `json:"tile_width"`
	TileHeight     uint32          `json:"tile_height"`
	PixelScale     uint32          `json:"pixelscale"`
	ZLevelHeight   uint32          `json:"zlevel_height"`
	Iso            bool            `json:"iso"`
	Sheets         []SheetMetadata `json:"sheets"`
	Fallback       *SheetMetadata  `json:"fallback,omitempty"`
	FallbackGlyphs int             `json:"fallback_glyphs"`
}

// Metadata returns the tileset description served by the feed.
//
// Returns:
//   - Metadata: the description
func (t *Tileset) Metadata() Metadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	m := Metadata{
		Name:           t.Name,
		TileWidth:      t.TileWidth,
		TileHeight:     t.TileHeight,
		PixelScale:     t.Info.Scale(),
		Sheets:         make([]SheetMetadata, 0, len(t.Sheets)),
		FallbackGlyphs: len(t.FallbackMap),
	}
	if t.Info.ZLevelHeight != nil {
		m.ZLevelHeight = *t.Info.ZLevelHeight
	}
	if t.Info.Iso != nil {
		m.Iso = *t.Info.Iso
	}
	for _, sh := range t.Sheets {
		m.Sheets = append(m.Sheets, sheetMetadata(sh))
	}
	if t.Fallback != nil {
		fb := sheetMetadata(*t.Fallback)
		m.Fallback = &fb
	}
	return m
}

func sheetMetadata(sh Sheet) SheetMetadata {
	return SheetMetadata{
		Name:         sh.Name,
		RangeStart:   sh.RangeStart,
		RangeEnd:     sh.RangeEnd,
		SpriteWidth:  sh.SpriteWidth,
		SpriteHeight: sh.SpriteHeight,
		Width:        sh.Image.Width,
		Height:       sh.Image.Height,
	}
}

// loader holds the options of one Load call.
type loader struct {
	workers      int
	maxInstances uint32
}

func newLoader(options ...LoaderOption) *loader {
	l := &loader{
		workers:      runtime.NumCPU(),
		maxInstances: material.DefaultMaxInstances,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}
