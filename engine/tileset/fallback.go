package tileset

import (
	_ "embed"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"
)

const (
	// FallbackGroupSize is the number of glyph cells in one ascii colour group.
	FallbackGroupSize = 256

	// FallbackSpritesPerRow is the glyph column count of every fallback sheet.
	FallbackSpritesPerRow = 16

	// GlyphCellSize is the cell size of the generated fallback atlas.
	GlyphCellSize = 16
)

//go:embed assets/fallback_tile_config.json
var fallbackConfigJSON []byte

// FallbackTileMapping maps a printable character to its glyph cell within an ascii group.
var FallbackTileMapping = map[string]uint32{
	" ": 32, "!": 33, "\"": 34, "#": 35, "$": 36, "%": 37, "&": 38,
	"(": 40, ")": 41, "*": 42, "+": 43, ",": 44, "-": 45, ".": 46, "/": 47,
	"0": 48, "1": 49, "2": 50, "3": 51, "4": 52, "5": 53, "6": 54, "7": 55, "8": 56, "9": 57,
	":": 58, ";": 59, "<": 60, "=": 61, "?": 62, "@": 63,
	"A": 64, "B": 65, "C": 66, "D": 67, "E": 68, "F": 69, "G": 70, "H": 71, "I": 72,
	"J": 73, "K": 74, "L": 75, "M": 76, "N": 77, "O": 78, "P": 79, "Q": 80, "R": 81,
	"S": 82, "T": 83, "U": 84, "V": 85, "W": 86, "X": 87, "Y": 88, "Z": 89,
	"[": 90, "\\": 91, "]": 92, "^": 93, "_": 94, "`": 95,
	"a": 96, "b": 97, "c": 98, "d": 99, "e": 100, "f": 101, "g": 102, "h": 103, "i": 104,
	"j": 105, "k": 106, "l": 107, "m": 108, "n": 109, "o": 110, "p": 111, "q": 112, "r": 113,
	"s": 114, "t": 115, "u": 116, "v": 117, "w": 118, "x": 119, "y": 120, "z": 121,
	"{": 122, "}": 124, "~": 125, "|": 178,
}

// asciiColors is the palette of the ascii colour names used by fallback sheets.
var asciiColors = map[string]color.RGBA{
	"BLACK":       {0x00, 0x00, 0x00, 0xff},
	"RED":         {0xff, 0x00, 0x00, 0xff},
	"GREEN":       {0x00, 0x6e, 0x00, 0xff},
	"BROWN":       {0x5c, 0x33, 0x0c, 0xff},
	"BLUE":        {0x00, 0x00, 0xc8, 0xff},
	"MAGENTA":     {0x8b, 0x3a, 0x62, 0xff},
	"CYAN":        {0x00, 0x96, 0xb4, 0xff},
	"LIGHT_GRAY":  {0x96, 0x96, 0x96, 0xff},
	"DARK_GRAY":   {0x63, 0x63, 0x63, 0xff},
	"LIGHT_RED":   {0xff, 0x96, 0x96, 0xff},
	"LIGHT_GREEN": {0x00, 0xff, 0x00, 0xff},
	"YELLOW":      {0xff, 0xff, 0x00, 0xff},
	"LIGHT_BLUE":  {0x64, 0x64, 0xff, 0xff},
	"PINK":        {0xfe, 0x00, 0xfe, 0xff},
	"LIGHT_CYAN":  {0x00, 0xf0, 0xff, 0xff},
	"WHITE":       {0xff, 0xff, 0xff, 0xff},
}

// FallbackKey builds the lookup key of a fallback glyph.
//
// Parameters:
//   - char: the printable character
//   - color: the ascii colour name
//
// Returns:
//   - string: "<char>_<color>"
func FallbackKey(char, color string) string {
	return char + "_" + color
}

// BuildFallbackMap expands the ascii groups of a fallback sheet into glyph indices.
//
// Parameters:
//   - groups: the sheet's ascii colour groups
//
// Returns:
//   - map[string]uint32: FallbackKey -> sprite index
func BuildFallbackMap(groups []AsciiGroup) map[string]uint32 {
	m := make(map[string]uint32, len(groups)*len(FallbackTileMapping))
	for _, g := range groups {
		for char, offset := range FallbackTileMapping {
			m[FallbackKey(char, g.Color)] = uint32(g.Offset) + offset
		}
	}
	return m
}

// DefaultFallbackConfig returns the built-in config used when no tileset is selected.
//
// Returns:
//   - *Config: the config
func DefaultFallbackConfig() *Config {
	c, err := ParseConfig(fallbackConfigJSON)
	if err != nil {
		panic("tileset: embedded fallback config: " + err.Error())
	}
	return c
}

// GenerateFallbackAtlas draws every mapped glyph of every ascii group into an RGBA atlas of
// GlyphCellSize cells, FallbackSpritesPerRow per row. Bold groups use the bold face.
//
// Parameters:
//   - groups: the ascii colour groups
//
// Returns:
//   - *image.RGBA: the atlas
func GenerateFallbackAtlas(groups []AsciiGroup) *image.RGBA {
	var maxIndex uint32
	for _, g := range groups {
		if end := uint32(g.Offset) + FallbackGroupSize; end > maxIndex {
			maxIndex = end
		}
	}
	rows := (maxIndex + FallbackSpritesPerRow - 1) / FallbackSpritesPerRow
	if rows == 0 {
		rows = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, FallbackSpritesPerRow*GlyphCellSize, int(rows)*GlyphCellSize))

	for _, g := range groups {
		face := inconsolata.Regular8x16
		if g.Bold {
			face = inconsolata.Bold8x16
		}
		clr, ok := asciiColors[g.Color]
		if !ok {
			clr = asciiColors["WHITE"]
		}
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(clr),
			Face: face,
		}
		ascent := face.Metrics().Ascent.Round()
		for char, offset := range FallbackTileMapping {
			idx := int(uint32(g.Offset) + offset)
			x := (idx % FallbackSpritesPerRow) * GlyphCellSize
			y := (idx / FallbackSpritesPerRow) * GlyphCellSize
			d.Dot = fixed.Point26_6{X: fixed.I(x + (GlyphCellSize-8)/2), Y: fixed.I(y + ascent)}
			d.DrawString(char)
		}
	}
	return img
}
