package material

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
)

// DefaultPipelineKey is the render pipeline key atlas materials draw with unless overridden.
const DefaultPipelineKey = "tile_sprite"

// AtlasMaterialBuilderOption is a function that configures an atlas material during construction.
type AtlasMaterialBuilderOption func(*atlasMaterial)

// WithTileSize sets the size of one sprite cell in atlas pixels.
//
// Parameters:
//   - width: cell width in pixels
//   - height: cell height in pixels
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the tile size option
func WithTileSize(width, height uint32) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.params.TileSize = [2]float32{float32(width), float32(height)}
	}
}

// WithQuadSize sets the rendered size of each sprite quad in world units. Defaults to the tile size.
//
// Parameters:
//   - width: quad width
//   - height: quad height
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the quad size option
func WithQuadSize(width, height float32) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.params.QuadSize = [2]float32{width, height}
	}
}

// WithSpriteOffset sets a sheet-wide world offset of every quad from its cell's bottom-left corner.
//
// Parameters:
//   - x: horizontal offset in pixels
//   - y: vertical offset in pixels
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the sprite offset option
func WithSpriteOffset(x, y int32) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.params.SpriteOffset = [2]float32{float32(x), float32(y)}
	}
}

// WithTexture sets the decoded atlas pixels. The atlas size uniform is derived from it.
//
// Parameters:
//   - tex: the RGBA8 atlas pixels
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the texture option
func WithTexture(tex common.TextureStagingData) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.texture = tex
		m.params.AtlasSize = [2]float32{float32(tex.Width), float32(tex.Height)}
	}
}

// WithSampler overrides the default nearest-filtering atlas sampler.
//
// Parameters:
//   - s: the sampler configuration
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the sampler option
func WithSampler(s common.SamplerStagingData) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.sampler = s
	}
}

// WithMaxInstances sets the instance buffer capacity. It must cover the largest number of
// sprites a single atlas draws at once.
//
// Parameters:
//   - maxInstances: the capacity (zero keeps DefaultMaxInstances)
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the capacity option
func WithMaxInstances(maxInstances uint32) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		if maxInstances > 0 {
			m.maxInstances = maxInstances
		}
	}
}

// WithPipelineKey sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - AtlasMaterialBuilderOption: a function that applies the pipeline key option
func WithPipelineKey(key string) AtlasMaterialBuilderOption {
	return func(m *atlasMaterial) {
		m.pipelineKey = key
	}
}
