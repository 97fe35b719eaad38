package main

import (
	"context"
	"flag"
	"log"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-tiles/engine"
	"github.com/Carmen-Shannon/oxy-tiles/engine/camera"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tiles/engine/scene"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileset"
	"github.com/Carmen-Shannon/oxy-tiles/engine/window"
	"github.com/Carmen-Shannon/oxy-tiles/internal/config"
	"github.com/Carmen-Shannon/oxy-tiles/internal/feed"
)

func main() {
	log.SetFlags(log.Ltime | log.Lshortfile)

	var (
		configPath string
		tilesetDir string
		addr       string
		profiling  bool
	)
	flag.StringVar(&configPath, "config", config.DefaultPath, "path to the JSON config file")
	flag.StringVar(&tilesetDir, "tileset", "", "tileset directory holding tile_config.json (overrides config)")
	flag.StringVar(&addr, "addr", "", "feed listen address (overrides config)")
	flag.BoolVar(&profiling, "profile", false, "log FPS, memory and visible sprite counts")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if tilesetDir != "" {
		cfg.TilesetDir = tilesetDir
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}
	cfg.Profiling = cfg.Profiling || profiling

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ts := loadTileset(ctx, cfg)

	// ── Window + Renderer ───────────────────────────────────────────────
	w, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
	)
	if err != nil {
		log.Fatalf("Window error: %v", err)
	}

	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, w, rendererOptions(cfg)...)
	if err != nil {
		log.Fatalf("Renderer error: %v", err)
	}

	// ── Camera ──────────────────────────────────────────────────────────
	cam := camera.NewCamera(
		camera.WithViewport(float32(w.Width()), float32(w.Height())),
		camera.WithController(camera.NewCameraController(
			camera.WithZoom(cfg.View.Zoom),
			camera.WithPanSpeed(cfg.View.PanSpeed),
		)),
	)

	// ── Engine + Scene ──────────────────────────────────────────────────
	eng := engine.NewEngine(
		engine.WithWindow(w),
		engine.WithTileset(ts),
		engine.WithProfiling(cfg.Profiling),
		engine.WithTickRate(cfg.TickRate),
		engine.WithRenderFrameLimit(cfg.FrameLimit),
	)

	reg, err := ts.NewRegistry()
	if err != nil {
		log.Fatalf("Tileset error: %v", err)
	}
	sc := scene.NewScene(ts.Name, cam, r, reg,
		scene.WithGridBus(eng.GridBus()),
		scene.WithZLevelBus(eng.ZLevelBus()),
		scene.WithGridColor(cfg.View.GridColor),
		scene.WithGridVisible(cfg.View.GridVisible),
	)
	sc.SetZLevel(cfg.View.ZLevel)
	eng.SetScene(sc)

	// ── Feed ────────────────────────────────────────────────────────────
	if cfg.ServerAddr != "" {
		srv := feed.NewServer(eng, feed.WithTilesetLoader(func(ctx context.Context, dir string) (*tileset.Tileset, error) {
			return tileset.Load(ctx, dir, tilesetOptions(cfg)...)
		}))
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ServerAddr); err != nil {
				log.Printf("Feed error: %v", err)
			}
		}()
	}

	go func() {
		select {
		case <-ctx.Done():
			eng.Quit()
		case <-eng.Done():
			stop()
		}
	}()

	if err := eng.Run(); err != nil {
		log.Fatalf("Engine error: %v", err)
	}
}

// loadTileset loads the configured tileset, falling back to the built-in one.
func loadTileset(ctx context.Context, cfg *config.Config) *tileset.Tileset {
	if cfg.TilesetDir == "" {
		return tileset.Default(tilesetOptions(cfg)...)
	}
	ts, err := tileset.Load(ctx, cfg.TilesetDir, tilesetOptions(cfg)...)
	if err != nil {
		log.Printf("Could not load tileset from %s: %v, using the built-in tileset", cfg.TilesetDir, err)
		return tileset.Default(tilesetOptions(cfg)...)
	}
	log.Printf("Tileset loaded: %s (%dx%d, %d sheets)", ts.Name, ts.TileWidth, ts.TileHeight, len(ts.Sheets))
	return ts
}

func tilesetOptions(cfg *config.Config) []tileset.LoaderOption {
	return []tileset.LoaderOption{
		tileset.WithWorkers(cfg.Workers),
		tileset.WithMaxInstances(cfg.MaxInstances),
	}
}

func rendererOptions(cfg *config.Config) []renderer.RendererBuilderOption {
	present := renderer.PresentModeVSync
	if !cfg.Renderer.VSync {
		present = renderer.PresentModeUncapped
	}
	msaa := renderer.MSAAOff
	if cfg.Renderer.MSAA {
		msaa = renderer.MSAA4x
	}
	c := cfg.Renderer.ClearColor
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(present),
		renderer.WithMSAA(msaa),
		renderer.WithClearColor(wgpu.Color{R: c[0], G: c[1], B: c[2], A: c[3]}),
		renderer.WithForceSoftwareRenderer(cfg.Renderer.SoftwareRender),
	}
}
