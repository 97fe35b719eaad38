package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
)

// Environment variables that override the config file.
const (
	EnvAddr    = "OXY_TILES_ADDR"
	EnvTileset = "OXY_TILES_TILESET"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.json"

// Config holds all application configuration
type Config struct {
	// ServerAddr is the listen address of the HTTP feed. Empty disables the feed.
	ServerAddr string `json:"server_addr"`
	// TilesetDir is the directory holding tile_config.json. Empty selects the built-in tileset.
	TilesetDir string `json:"tileset_dir"`

	Window   WindowConfig   `json:"window"`
	Renderer RendererConfig `json:"renderer"`
	View     ViewConfig     `json:"view"`

	// Workers is the number of parallel atlas decoders.
	Workers int `json:"workers"`
	// MaxInstances is the per-surface instance buffer capacity.
	MaxInstances uint32 `json:"max_instances"`
	// TickRate is the animation rate in ticks per second.
	TickRate float64 `json:"tick_rate"`
	// FrameLimit caps the render loop in frames per second. 0 is uncapped.
	FrameLimit float64 `json:"frame_limit"`
	Profiling  bool    `json:"profiling"`
}

// WindowConfig holds window settings
type WindowConfig struct {
	Title  string `json:"title"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// RendererConfig holds GPU settings
type RendererConfig struct {
	VSync          bool       `json:"vsync"`
	MSAA           bool       `json:"msaa"`
	SoftwareRender bool       `json:"software_render"`
	ClearColor     [4]float64 `json:"clear_color"`
}

// ViewConfig holds the initial map view state
type ViewConfig struct {
	GridVisible bool       `json:"grid_visible"`
	GridColor   [4]float32 `json:"grid_color"`
	ZLevel      int32      `json:"z_level"`
	Zoom        float32    `json:"zoom"`
	PanSpeed    float32    `json:"pan_speed"`
}

// Default returns the configuration used when no config file exists.
//
// Returns:
//   - *Config: the defaults
func Default() *Config {
	return &Config{
		ServerAddr: ":8080",
		Window: WindowConfig{
			Title:  "oxy-tiles",
			Width:  1280,
			Height: 720,
		},
		Renderer: RendererConfig{
			VSync:      true,
			MSAA:       true,
			ClearColor: [4]float64{0.05, 0.05, 0.07, 1},
		},
		View: ViewConfig{
			GridColor: [4]float32{1, 1, 1, 0.15},
			Zoom:      1,
			PanSpeed:  32,
		},
		Workers:      runtime.NumCPU(),
		MaxInstances: 65536,
		TickRate:     60,
	}
}

// Load reads the config file at path over the defaults, then applies environment overrides.
// A missing file is not an error.
//
// Parameters:
//   - path: the config file, DefaultPath when empty
//
// Returns:
//   - *Config: the loaded configuration
//   - error: an error if the file exists but cannot be read, parsed, or validated
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if addr, ok := os.LookupEnv(EnvAddr); ok {
		c.ServerAddr = addr
	}
	if dir := os.Getenv(EnvTileset); dir != "" {
		c.TilesetDir = dir
	}
}

// Validate reports the first invalid setting.
//
// Returns:
//   - error: nil if the configuration is usable
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers %d must not be negative", c.Workers)
	}
	if c.TickRate < 0 || c.FrameLimit < 0 {
		return errors.New("config: tick_rate and frame_limit must not be negative")
	}
	if c.View.Zoom <= 0 {
		return fmt.Errorf("config: zoom %v must be positive", c.View.Zoom)
	}
	return nil
}
