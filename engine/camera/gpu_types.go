package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource is the WGSL CameraUniform struct shared by the tile sprite and grid
// shaders (group 0, binding 0).
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform mirrors the WGSL CameraUniform struct. Size: 80 bytes.
type GPUCameraUniform struct {
	ViewProj [16]float32 // offset  0: mat4x4<f32>
	Center   [2]float32  // offset 64: view centre in world units
	Zoom     float32     // offset 72: screen pixels per world unit
	EyeZ     float32     // offset 76: depth the camera looks down from
}

// Size returns the uniform size in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal encodes the uniform little-endian for upload.
//
// Returns:
//   - []byte: the 80 byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(g.Center[0]))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(g.Center[1]))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(g.Zoom))
	binary.LittleEndian.PutUint32(buf[76:], math.Float32bits(g.EyeZ))
	return buf
}
