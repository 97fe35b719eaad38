package grid

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUGridParamsSource is the WGSL definition of the GridParams struct.
//
//go:embed assets/grid_params.wgsl
var GPUGridParamsSource string

//go:embed assets/grid.wgsl
var gridBody string

// ShaderSource returns the complete grid shader with the camera uniform struct prepended.
//
// Parameters:
//   - cameraUniformSource: the WGSL CameraUniform declaration
//
// Returns:
//   - string: the shader source
func ShaderSource(cameraUniformSource string) string {
	return cameraUniformSource + "\n" + GPUGridParamsSource + "\n" + gridBody
}

// GPUGridParams matches the WGSL GridParams struct.
// Size: 48 bytes.
type GPUGridParams struct {
	Origin   [2]float32 // offset  0: world position of the first line intersection
	CellSize [2]float32 // offset  8: cell size in world units
	Extent   [2]float32 // offset 16: covered width and height
	Columns  uint32     // offset 24
	Rows     uint32     // offset 28
	Color    [4]float32 // offset 32: RGBA line colour
}

// Size returns the struct size in bytes.
func (g *GPUGridParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the params for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer
func (g *GPUGridParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
	}
	put(0, g.Origin[0])
	put(4, g.Origin[1])
	put(8, g.CellSize[0])
	put(12, g.CellSize[1])
	put(16, g.Extent[0])
	put(20, g.Extent[1])
	binary.LittleEndian.PutUint32(buf[24:], g.Columns)
	binary.LittleEndian.PutUint32(buf[28:], g.Rows)
	for i := range 4 {
		put(32+i*4, g.Color[i])
	}
	return buf
}
