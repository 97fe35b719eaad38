package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("tile_sprite")
	if p.PipelineKey() != "tile_sprite" {
		t.Errorf("PipelineKey() = %q", p.PipelineKey())
	}
	if p.DepthCompare() != wgpu.CompareFunctionLess {
		t.Errorf("DepthCompare() = %v, want Less", p.DepthCompare())
	}
	if !p.DepthWriteEnabled() || p.BlendEnabled() {
		t.Errorf("depth write %v blend %v, want true false", p.DepthWriteEnabled(), p.BlendEnabled())
	}
	if p.Topology() != wgpu.PrimitiveTopologyTriangleList {
		t.Errorf("Topology() = %v", p.Topology())
	}
	if p.RenderPipeline() != nil {
		t.Error("RenderPipeline() should be nil before registration")
	}
}

func TestPipelineOptions(t *testing.T) {
	vs := shader.NewShader("grid_vs", shader.ShaderTypeVertex, "")
	fs := shader.NewShader("grid_fs", shader.ShaderTypeFragment, "")
	p := NewPipeline("grid",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithDepthCompare(wgpu.CompareFunctionAlways),
		WithDepthWriteEnabled(false),
		WithBlendEnabled(true),
		WithTopology(wgpu.PrimitiveTopologyLineList),
	)

	tests := []struct {
		name string
		got  bool
	}{
		{"vertex shader", p.Shader(shader.ShaderTypeVertex) == vs},
		{"fragment shader", p.Shader(shader.ShaderTypeFragment) == fs},
		{"depth compare", p.DepthCompare() == wgpu.CompareFunctionAlways},
		{"depth write", !p.DepthWriteEnabled()},
		{"blend", p.BlendEnabled()},
		{"topology", p.Topology() == wgpu.PrimitiveTopologyLineList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got {
				t.Errorf("%s option not applied", tt.name)
			}
		})
	}
}
