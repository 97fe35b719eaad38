package tile_registry

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
)

// MaxRow is the row multiplier of the depth key. A map row never holds more than MaxRow
// columns, so the key orders sprites row-major.
const MaxRow = 1000

// ComputeDrawPosition converts a map position into a world position whose Z is the depth key.
//
// The map Y axis grows downward and the world Y axis grows upward, so Y is flipped and shifted
// by one tile height. Note the row and column terms divide by the tile width and height
// cross-wise; square tiles are unaffected.
//
// Parameters:
//   - gx: the map X position in pixels
//   - gy: the map Y position in pixels
//   - tileWidth: the tile width in pixels
//   - tileHeight: the tile height in pixels
//   - layer: the render layer, a tie-break within one z-level
//
// Returns:
//   - [3]float32: the world position; larger Z is drawn in front
func ComputeDrawPosition(gx, gy, tileWidth, tileHeight float32, layer uint32) [3]float32 {
	worldY := gy / tileWidth
	worldX := gx / tileHeight
	return [3]float32{
		gx,
		-gy - tileHeight,
		MaxRow*(worldY+1) + worldX + float32(layer),
	}
}

// ToPixelSpace converts the grid-cell positions of a placement batch into the pixel positions
// the registry expects, multiplying X by the tile width and Y by the tile height.
//
// Parameters:
//   - sprites: the batch in grid cells
//   - tileWidth: the tile width in pixels
//   - tileHeight: the tile height in pixels
//
// Returns:
//   - common.Sprites: a copy of the batch in pixel space
func ToPixelSpace(sprites common.Sprites, tileWidth, tileHeight uint32) common.Sprites {
	scale := func(p common.GridPosition) common.GridPosition {
		return common.GridPosition{X: p.X * tileWidth, Y: p.Y * tileHeight}
	}

	out := common.Sprites{
		StaticSprites:   make([]common.StaticSprite, len(sprites.StaticSprites)),
		AnimatedSprites: make([]common.AnimatedSprite, len(sprites.AnimatedSprites)),
		FallbackSprites: make([]common.FallbackSprite, len(sprites.FallbackSprites)),
	}
	for i, s := range sprites.StaticSprites {
		s.Position = scale(s.Position)
		out.StaticSprites[i] = s
	}
	for i, s := range sprites.AnimatedSprites {
		s.Position = scale(s.Position)
		out.AnimatedSprites[i] = s
	}
	for i, s := range sprites.FallbackSprites {
		s.Position = scale(s.Position)
		out.FallbackSprites[i] = s
	}
	return out
}
