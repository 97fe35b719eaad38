package common

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SpriteKind distinguishes the background and foreground sprite of a single tile layer.
type SpriteKind uint32

const (
	// SpriteKindBackground is drawn beneath the foreground sprite of the same tile layer.
	SpriteKindBackground SpriteKind = 0
	// SpriteKindForeground is drawn above the background sprite of the same tile layer.
	SpriteKindForeground SpriteKind = 1
)

// SpriteLayerFor encodes a tile layer and sprite kind into the render layer used for draw-order
// tie-breaks. Every tile layer owns two render layers: background first, then foreground.
//
// Parameters:
//   - tileLayer: the map layer (terrain, furniture, items, ...)
//   - kind: background or foreground
//
// Returns:
//   - uint32: the render layer
func SpriteLayerFor(tileLayer uint32, kind SpriteKind) uint32 {
	return tileLayer*2 + uint32(kind)
}

// GridPosition is a tile placement position. On the wire it is encoded as the string "x,y".
type GridPosition struct {
	X uint32
	Y uint32
}

// String returns the "x,y" form of the position.
func (p GridPosition) String() string {
	return strconv.FormatUint(uint64(p.X), 10) + "," + strconv.FormatUint(uint64(p.Y), 10)
}

// ParseGridPosition parses the "x,y" form of a position.
//
// Parameters:
//   - s: the encoded position
//
// Returns:
//   - GridPosition: the decoded position
//   - error: an error if s is not two comma separated unsigned integers
func ParseGridPosition(s string) (GridPosition, error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return GridPosition{}, fmt.Errorf("grid position %q: missing ','", s)
	}
	x, err := strconv.ParseUint(strings.TrimSpace(left), 10, 32)
	if err != nil {
		return GridPosition{}, fmt.Errorf("grid position %q: invalid x: %w", s, err)
	}
	y, err := strconv.ParseUint(strings.TrimSpace(right), 10, 32)
	if err != nil {
		return GridPosition{}, fmt.Errorf("grid position %q: invalid y: %w", s, err)
	}
	return GridPosition{X: uint32(x), Y: uint32(y)}, nil
}

// MarshalJSON implements json.Marshaler.
func (p GridPosition) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *GridPosition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("grid position: %w", err)
	}
	parsed, err := ParseGridPosition(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// StaticSprite is a single non-animated sprite placement.
type StaticSprite struct {
	Position  GridPosition `json:"position"`
	Index     uint32       `json:"index"`
	Layer     uint32       `json:"layer"`
	Z         int32        `json:"z"`
	RotateDeg int32        `json:"rotate_deg"`
}

// AnimatedSprite is a sprite placement that cycles through Indices on the animation tick.
type AnimatedSprite struct {
	Position  GridPosition `json:"position"`
	Indices   []uint32     `json:"indices"`
	Layer     uint32       `json:"layer"`
	Z         int32        `json:"z"`
	RotateDeg int32        `json:"rotate_deg"`
}

// FallbackSprite is a placement drawn only through the fallback (ASCII) atlas.
type FallbackSprite struct {
	Position GridPosition `json:"position"`
	Index    uint32       `json:"index"`
	Z        int32        `json:"z"`
}

// Sprites is one complete placement batch for a map.
type Sprites struct {
	StaticSprites   []StaticSprite   `json:"static_sprites"`
	AnimatedSprites []AnimatedSprite `json:"animated_sprites"`
	FallbackSprites []FallbackSprite `json:"fallback_sprites"`
}

// Empty reports whether the batch carries no placements at all.
func (s *Sprites) Empty() bool {
	return len(s.StaticSprites) == 0 && len(s.AnimatedSprites) == 0 && len(s.FallbackSprites) == 0
}

// DrawCommand is a transformed, surface-local sprite instance: the unit written into an atlas
// material's instance buffer.
type DrawCommand struct {
	// LocalIndex is the sprite index relative to the owning surface's range start.
	LocalIndex uint32
	// Layer is the render layer the depth key was computed with.
	Layer uint32
	// Position is the world-space position; Z is the depth key.
	Position [3]float32
	// RotateDeg is the quad rotation in degrees (0, 90, 180 or 270).
	RotateDeg int32
}
