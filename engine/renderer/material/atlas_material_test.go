package material

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

func newTestMaterial(maxInstances uint32) AtlasMaterial {
	return NewAtlasMaterial("test.png",
		WithTileSize(32, 32),
		WithTexture(common.TextureStagingData{Width: 512, Height: 1024}),
		WithMaxInstances(maxInstances),
	)
}

func TestAtlasMaterialAllocator(t *testing.T) {
	m := newTestMaterial(8)

	if got := m.NextFreeInstance(); got != 0 {
		t.Fatalf("NextFreeInstance() on new material = %d, want 0", got)
	}

	tests := []struct {
		name     string
		id       uint32
		wantOK   bool
		wantNext uint32
	}{
		{name: "first slot", id: 0, wantOK: true, wantNext: 1},
		{name: "skips ahead", id: 4, wantOK: true, wantNext: 5},
		{name: "lower id keeps count", id: 2, wantOK: true, wantNext: 5},
		{name: "last slot", id: 7, wantOK: true, wantNext: 8},
		{name: "beyond capacity", id: 8, wantOK: false, wantNext: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if ok := m.ReserveInstance(tt.id); ok != tt.wantOK {
				t.Errorf("ReserveInstance(%d) = %v, want %v", tt.id, ok, tt.wantOK)
			}
			if got := m.NextFreeInstance(); got != tt.wantNext {
				t.Errorf("NextFreeInstance() = %d, want %d", got, tt.wantNext)
			}
		})
	}

	m.ResetInstances()
	if got := m.NextFreeInstance(); got != 0 {
		t.Errorf("NextFreeInstance() after ResetInstances = %d, want 0", got)
	}
}

func TestAtlasMaterialVisibleCountClamp(t *testing.T) {
	m := newTestMaterial(16)
	for id := uint32(0); id < 3; id++ {
		m.ReserveInstance(id)
	}

	m.SetVisibleCount(10)
	if got := m.VisibleCount(); got != 3 {
		t.Errorf("VisibleCount() = %d, want clamp to 3", got)
	}
	m.SetVisibleCount(2)
	if got := m.VisibleCount(); got != 2 {
		t.Errorf("VisibleCount() = %d, want 2", got)
	}
}

func TestAtlasMaterialSetUVsAt(t *testing.T) {
	m := newTestMaterial(4)

	m.SetUVsAt([]uint32{0, 1, 9}, [][2]float32{{32, 0}, {64, 32}, {1, 1}})
	if got := m.Instance(0).UVOffset; got != [2]float32{32, 0} {
		t.Errorf("instance 0 offset = %v", got)
	}
	if got := m.Instance(1).UVOffset; got != [2]float32{64, 32} {
		t.Errorf("instance 1 offset = %v", got)
	}
	// id 9 is beyond capacity and must be ignored without panicking.
	if got := m.Instance(9); got != (GPUSpriteInstance{}) {
		t.Errorf("out of range instance = %+v, want zero value", got)
	}
}

func TestAtlasMaterialFlushCoalesces(t *testing.T) {
	m := newTestMaterial(64)
	instSize := uint64((&GPUSpriteInstance{}).Size())

	// Drain the initial params upload.
	m.Flush()
	if writes := m.StagedWriteData(); len(writes) != 1 || writes[0].Binding != BindingParams {
		t.Fatalf("initial flush staged %d writes, want 1 params write", len(writes))
	}

	for _, id := range []uint32{5, 3, 4, 10, 11, 20} {
		m.ReserveInstance(id)
		m.SetInstanceTransform(id, [3]float32{float32(id), 0, 1000}, 90)
	}
	// Duplicate dirty marks must not add extra writes.
	m.SetUVAt(4, [2]float32{32, 32})

	if got := m.Flush(); got != 6 {
		t.Errorf("Flush() = %d dirty instances, want 6", got)
	}
	writes := m.StagedWriteData()

	wantRuns := []struct {
		start, count uint64
	}{
		{3, 3},
		{10, 2},
		{20, 1},
	}
	if len(writes) != len(wantRuns) {
		t.Fatalf("staged %d writes, want %d", len(writes), len(wantRuns))
	}
	for i, run := range wantRuns {
		w := writes[i]
		if w.Binding != BindingInstances {
			t.Errorf("write %d binding = %d, want %d", i, w.Binding, BindingInstances)
		}
		if w.Offset != run.start*instSize {
			t.Errorf("write %d offset = %d, want %d", i, w.Offset, run.start*instSize)
		}
		if uint64(len(w.Data)) != run.count*instSize {
			t.Errorf("write %d size = %d, want %d", i, len(w.Data), run.count*instSize)
		}
	}

	// First float of instance 3 is its X position.
	x := math.Float32frombits(binary.LittleEndian.Uint32(writes[0].Data[0:4]))
	if x != 3 {
		t.Errorf("first staged instance x = %v, want 3", x)
	}

	if got := m.Flush(); got != 0 {
		t.Errorf("second Flush() = %d, want 0", got)
	}
	if writes := m.StagedWriteData(); len(writes) != 0 {
		t.Errorf("second drain returned %d writes, want 0", len(writes))
	}
}

func TestAtlasMaterialFlushReverseOrder(t *testing.T) {
	const n = 4096
	m := newTestMaterial(n)
	m.Flush()
	m.StagedWriteData()

	for id := uint32(n); id > 0; id-- {
		m.ReserveInstance(id - 1)
		m.SetInstanceTransform(id-1, [3]float32{float32(id - 1), 0, 1000}, 0)
	}
	if got := m.Flush(); got != n {
		t.Errorf("Flush() = %d dirty instances, want %d", got, n)
	}
	writes := m.StagedWriteData()
	if len(writes) != 1 {
		t.Fatalf("staged %d writes, want one contiguous run", len(writes))
	}
	if writes[0].Offset != 0 {
		t.Errorf("run offset = %d, want 0", writes[0].Offset)
	}
	instSize := uint64((&GPUSpriteInstance{}).Size())
	if uint64(len(writes[0].Data)) != n*instSize {
		t.Errorf("run size = %d, want %d", len(writes[0].Data), n*instSize)
	}
}

func TestAtlasMaterialInvalidate(t *testing.T) {
	m := newTestMaterial(8)
	m.Flush()
	m.StagedWriteData()

	for id := uint32(0); id < 4; id++ {
		m.ReserveInstance(id)
	}
	m.Invalidate()
	if got := m.Flush(); got != 4 {
		t.Errorf("Flush() after Invalidate = %d, want 4", got)
	}
	writes := m.StagedWriteData()
	if len(writes) != 2 {
		t.Fatalf("staged %d writes, want params + one instance run", len(writes))
	}
}

func TestAtlasParamsDefaults(t *testing.T) {
	m := newTestMaterial(1)
	p := m.Params()
	if p.AtlasSize != [2]float32{512, 1024} {
		t.Errorf("AtlasSize = %v", p.AtlasSize)
	}
	if p.QuadSize != p.TileSize {
		t.Errorf("QuadSize = %v, want tile size %v", p.QuadSize, p.TileSize)
	}
	if len(p.Marshal()) != p.Size() {
		t.Errorf("Marshal() length %d != Size() %d", len(p.Marshal()), p.Size())
	}
	if (&GPUSpriteInstance{}).Size() != 32 {
		t.Errorf("GPUSpriteInstance size = %d, want 32", (&GPUSpriteInstance{}).Size())
	}
}

func TestTileSpriteShaderSource(t *testing.T) {
	src := TileSpriteShaderSource("struct CameraUniform { view_proj: mat4x4<f32>, }")
	for _, want := range []string{"struct CameraUniform", "struct AtlasParams", "struct SpriteInstance", "fn vs_main", "fn fs_main"} {
		if !strings.Contains(src, want) {
			t.Errorf("shader source missing %q", want)
		}
	}
}
