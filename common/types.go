package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds decoded RGBA8 pixel data ready for upload to a GPU texture.
type TextureStagingData struct {
	// Pixels is the tightly packed RGBA8 pixel data, row-major, 4 bytes per pixel.
	Pixels []byte
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
}

// SamplerStagingData describes the sampler state for a texture binding.
// Zero values fall back to the renderer defaults via Coalesce.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	Compare                                  wgpu.CompareFunction
	MaxAnisotropy                            uint16
}

// PixelArtSampler returns sampler staging data suited to tile atlases: nearest filtering so
// neighbouring sprites never bleed into each other, and clamped addressing.
//
// Returns:
//   - SamplerStagingData: the sampler configuration
func PixelArtSampler() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeNearest,
		MinFilter:    wgpu.FilterModeNearest,
		MipmapFilter: wgpu.MipmapFilterModeNearest,
	}
}
