package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUAtlasParamsSource is the canonical WGSL definition of the AtlasParams struct.
// Matches GPUAtlasParams layout exactly (32 bytes, std140/std430 aligned).
//
//go:embed assets/atlas_params.wgsl
var GPUAtlasParamsSource string

// GPUSpriteInstanceSource is the canonical WGSL definition of the SpriteInstance struct.
// Matches GPUSpriteInstance layout exactly (32 bytes, std430 aligned).
//
//go:embed assets/sprite_instance.wgsl
var GPUSpriteInstanceSource string

// tileSpriteBody is the tile sprite vertex/fragment shader without its struct declarations.
//
//go:embed assets/tile_sprite.wgsl
var tileSpriteBody string

// TileSpriteShaderSource returns the complete tile sprite shader. The camera uniform struct
// declaration is supplied by the caller so the material does not depend on the camera package.
//
// Parameters:
//   - cameraUniformSource: the WGSL declaration of CameraUniform
//
// Returns:
//   - string: WGSL source with vs_main and fs_main entry points
func TileSpriteShaderSource(cameraUniformSource string) string {
	return cameraUniformSource + "\n" + GPUAtlasParamsSource + "\n" + GPUSpriteInstanceSource + "\n" + tileSpriteBody
}

// GPUAtlasParams is the per-atlas uniform: everything the shader needs to turn an instance's
// pixel offset into normalized UVs. Constant for the lifetime of a material.
// Size: 32 bytes.
type GPUAtlasParams struct {
	TileSize     [2]float32 // offset  0: sprite cell size in atlas pixels
	AtlasSize    [2]float32 // offset  8: atlas texture size in pixels
	SpriteOffset [2]float32 // offset 16: quad offset from the cell corner in world units
	QuadSize     [2]float32 // offset 24: rendered quad size in world units
}

// Size returns the size of the GPUAtlasParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUAtlasParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUAtlasParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUAtlasParams) Marshal() []byte {
	buf := make([]byte, 32)
	fields := [8]float32{
		g.TileSize[0], g.TileSize[1],
		g.AtlasSize[0], g.AtlasSize[1],
		g.SpriteOffset[0], g.SpriteOffset[1],
		g.QuadSize[0], g.QuadSize[1],
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// GPUSpriteInstance is one element of the instance storage buffer.
// Size: 32 bytes (vec3 + f32, vec2 + vec2 padding).
type GPUSpriteInstance struct {
	Position [3]float32 // offset  0: world position, Z is the depth key
	Rotation float32    // offset 12: rotation in degrees
	UVOffset [2]float32 // offset 16: sprite cell offset in atlas pixels
	_pad     [2]float32 // offset 24: padding to 32 bytes
}

// Size returns the size of the GPUSpriteInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUSpriteInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}
