package grid

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"
)

func TestSnap(t *testing.T) {
	tests := []struct {
		name       string
		lo, hi     float32
		cell       float32
		wantOrigin float32
		wantCells  uint32
	}{
		{"aligned", 0, 64, 32, 0, 2},
		{"unaligned", 10, 70, 32, 0, 3},
		{"negative", -40, -1, 32, -64, 2},
		{"straddle origin", -16, 16, 32, -32, 2},
		{"empty", 5, 5, 32, 0, 0},
		{"zero cell", 0, 10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origin, cells := snap(tt.lo, tt.hi, tt.cell)
			if origin != tt.wantOrigin || cells != tt.wantCells {
				t.Errorf("snap(%v, %v, %v) = (%v, %d), want (%v, %d)",
					tt.lo, tt.hi, tt.cell, origin, cells, tt.wantOrigin, tt.wantCells)
			}
		})
	}
}

func TestGridVisibility(t *testing.T) {
	g := NewGrid("test")
	if g.Visible() {
		t.Fatal("new grid should be hidden")
	}
	if !g.Toggle() || !g.Visible() {
		t.Error("Toggle() should show the grid")
	}
	if g.Toggle() {
		t.Error("second Toggle() should hide the grid")
	}
	g.SetVisible(true)
	if !g.Visible() {
		t.Error("SetVisible(true) had no effect")
	}
}

func TestGridLineCount(t *testing.T) {
	g := NewGrid("test", WithCellSize(32, 32), WithVisible(true), WithMaxLines(20))
	g.Update(0, 128, -96, 0)

	p := g.Params()
	if p.Columns != 4 || p.Rows != 3 {
		t.Fatalf("columns, rows = %d, %d, want 4, 3", p.Columns, p.Rows)
	}
	if p.Origin != [2]float32{0, -96} || p.Extent != [2]float32{128, 96} {
		t.Errorf("origin %v extent %v", p.Origin, p.Extent)
	}
	if got := g.LineCount(); got != 5+4 {
		t.Errorf("LineCount() = %d, want 9", got)
	}

	g.Update(0, 1024, -1024, 0)
	if got := g.LineCount(); got != 0 {
		t.Errorf("LineCount() past the cap = %d, want 0", got)
	}

	g.Update(0, 128, -96, 0)
	g.SetVisible(false)
	if got := g.LineCount(); got != 0 {
		t.Errorf("LineCount() hidden = %d, want 0", got)
	}
}

func TestGridStagedWriteData(t *testing.T) {
	g := NewGrid("test")
	if w := g.StagedWriteData(); len(w) != 1 {
		t.Fatalf("initial StagedWriteData() len = %d, want 1", len(w))
	}
	if w := g.StagedWriteData(); len(w) != 0 {
		t.Errorf("clean StagedWriteData() len = %d, want 0", len(w))
	}

	g.Update(0, 64, -64, 0)
	w := g.StagedWriteData()
	if len(w) != 1 || w[0].Binding != BindingParams || w[0].Provider != g.BindGroupProvider() {
		t.Fatalf("StagedWriteData() after Update = %+v", w)
	}

	g.Update(0, 64, -64, 0)
	if w := g.StagedWriteData(); len(w) != 0 {
		t.Error("identical Update should not stage a write")
	}

	g.SetColor([4]float32{1, 0, 0, 1})
	if w := g.StagedWriteData(); len(w) != 1 {
		t.Error("SetColor should stage a write")
	}
}

func TestGPUGridParamsMarshal(t *testing.T) {
	p := GPUGridParams{
		Origin:   [2]float32{-32, -64},
		CellSize: [2]float32{32, 32},
		Extent:   [2]float32{96, 64},
		Columns:  3,
		Rows:     2,
		Color:    [4]float32{0.5, 0.25, 1, 0.75},
	}
	if p.Size() != 48 {
		t.Fatalf("Size() = %d, want 48", p.Size())
	}
	buf := p.Marshal()
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }

	if f(0) != -32 || f(4) != -64 || f(16) != 96 {
		t.Errorf("origin/extent bytes wrong: %v %v %v", f(0), f(4), f(16))
	}
	if binary.LittleEndian.Uint32(buf[24:]) != 3 || binary.LittleEndian.Uint32(buf[28:]) != 2 {
		t.Error("columns/rows bytes wrong")
	}
	if f(32) != 0.5 || f(44) != 0.75 {
		t.Errorf("color bytes wrong: %v %v", f(32), f(44))
	}
}

func TestShaderSource(t *testing.T) {
	src := ShaderSource("struct CameraUniform { view_proj: mat4x4<f32>, }")
	for _, want := range []string{"struct CameraUniform", "struct GridParams", "fn vs_main", "fn fs_main"} {
		if !strings.Contains(src, want) {
			t.Errorf("ShaderSource missing %q", want)
		}
	}
	if len(LineMesh()) != 8 {
		t.Errorf("len(LineMesh()) = %d, want 8", len(LineMesh()))
	}
}
