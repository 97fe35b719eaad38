package material

import (
	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// quadCorners are the unit quad corners shared by every sprite instance, counter-clockwise
// with Y up.
var quadCorners = []float32{
	0, 0,
	1, 0,
	1, 1,
	0, 1,
}

var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

// QuadMesh returns the vertex bytes, index bytes and index count of the shared sprite quad.
//
// Returns:
//   - []byte: vertex data (vec2<f32> corner per vertex)
//   - []byte: index data (uint32)
//   - int: the index count
func QuadMesh() ([]byte, []byte, int) {
	return common.SliceToBytes(quadCorners), common.SliceToBytes(quadIndices), len(quadIndices)
}

// QuadVertexLayout returns the vertex buffer layout of the shared sprite quad.
//
// Returns:
//   - wgpu.VertexBufferLayout: a single vec2<f32> attribute at location 0
func QuadVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 8,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
		},
	}
}
