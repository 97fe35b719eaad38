package tileset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ConfigFileName is the tileset descriptor read from a tileset directory.
const ConfigFileName = "tile_config.json"

// TileInfo is one entry of the "tile_info" array.
type TileInfo struct {
	Width          uint32   `json:"width"`
	Height         uint32   `json:"height"`
	PixelScale     *uint32  `json:"pixelscale,omitempty"`
	ZLevelHeight   *uint32  `json:"zlevel_height,omitempty"`
	Iso            *bool    `json:"iso,omitempty"`
	RetractDistMin *float32 `json:"retract_dist_min,omitempty"`
	RetractDistMax *float32 `json:"retract_dist_max,omitempty"`
}

// Scale returns the pixelscale, 1 when unset or zero.
func (t TileInfo) Scale() uint32 {
	if t.PixelScale == nil || *t.PixelScale == 0 {
		return 1
	}
	return *t.PixelScale
}

// AsciiGroup is one colour band of the fallback sheet: 256 glyphs starting at Offset.
type AsciiGroup struct {
	Offset int32  `json:"offset"`
	Bold   bool   `json:"bold"`
	Color  string `json:"color"`
}

// SheetConfig is one entry of "tiles-new". A sheet carrying "ascii" groups is the fallback sheet;
// every other sheet declares its global index range in the "//" comment.
type SheetConfig struct {
	File          string       `json:"file"`
	SpriteWidth   *uint32      `json:"sprite_width,omitempty"`
	SpriteHeight  *uint32      `json:"sprite_height,omitempty"`
	SpriteOffsetX *int32       `json:"sprite_offset_x,omitempty"`
	SpriteOffsetY *int32       `json:"sprite_offset_y,omitempty"`
	Comment       string       `json:"//,omitempty"`
	Ascii         []AsciiGroup `json:"ascii,omitempty"`

	// RangeStart and RangeEnd are parsed from Comment.
	RangeStart uint32 `json:"-"`
	RangeEnd   uint32 `json:"-"`
}

// IsFallback reports whether this is the ASCII fallback sheet.
func (s SheetConfig) IsFallback() bool {
	return s.Ascii != nil
}

// Config is a parsed tile_config.json. Per-tile id mappings are not read.
type Config struct {
	TileInfo []TileInfo    `json:"tile_info"`
	Sheets   []SheetConfig `json:"tiles-new"`
}

// Info returns the first tile_info entry.
//
// Returns:
//   - TileInfo: the entry
//   - error: an error if tile_info is empty
func (c *Config) Info() (TileInfo, error) {
	if len(c.TileInfo) == 0 {
		return TileInfo{}, errors.New("tile_info is empty")
	}
	return c.TileInfo[0], nil
}

// Fallback returns the fallback sheet, or nil.
func (c *Config) Fallback() *SheetConfig {
	for i := range c.Sheets {
		if c.Sheets[i].IsFallback() {
			return &c.Sheets[i]
		}
	}
	return nil
}

// ParseConfig decodes a tile_config.json document and resolves every sheet's range comment.
//
// Parameters:
//   - data: the JSON document
//
// Returns:
//   - *Config: the parsed config
//   - error: an error if the JSON is invalid, tile_info is empty, or a range comment is malformed
func ParseConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	info, err := c.Info()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFileName, err)
	}
	if info.Width == 0 || info.Height == 0 {
		return nil, fmt.Errorf("parse %s: tile size %dx%d", ConfigFileName, info.Width, info.Height)
	}

	for i := range c.Sheets {
		s := &c.Sheets[i]
		if s.IsFallback() {
			continue
		}
		start, end, err := ParseRangeComment(s.Comment)
		if err != nil {
			return nil, fmt.Errorf("parse %s: sheet %q: %w", ConfigFileName, s.File, err)
		}
		s.RangeStart, s.RangeEnd = start, end
	}
	return &c, nil
}

// ParseRangeComment parses a "range A to B" sheet comment into a start and end index. Surfaces
// treat the end as exclusive, so B itself belongs to the next sheet, or to none.
// A start of 1 is read as 0 so the first sheet also owns index 0.
//
// Parameters:
//   - s: the comment
//
// Returns:
//   - uint32: the range start
//   - uint32: the range end
//   - error: an error if s is not of the form "range A to B"
func ParseRangeComment(s string) (uint32, uint32, error) {
	left, right, ok := strings.Cut(s, " to ")
	if !ok {
		return 0, 0, fmt.Errorf("range comment %q: missing ' to '", s)
	}
	left, ok = strings.CutPrefix(left, "range ")
	if !ok {
		return 0, 0, fmt.Errorf("range comment %q: missing 'range ' prefix", s)
	}

	from, err := strconv.ParseUint(strings.TrimSpace(left), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("range comment %q: start: %w", s, err)
	}
	to, err := strconv.ParseUint(strings.TrimSpace(right), 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("range comment %q: end: %w", s, err)
	}
	if from == 1 {
		from = 0
	}
	if to < from {
		return 0, 0, fmt.Errorf("range comment %q: end before start", s)
	}
	return uint32(from), uint32(to), nil
}
