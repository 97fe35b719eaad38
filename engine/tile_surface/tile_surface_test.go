package tile_surface

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer/material"
)

func newSurface(t *testing.T, start, end uint32, opts ...TileSurfaceBuilderOption) TileSurface {
	t.Helper()
	base := []TileSurfaceBuilderOption{
		WithRange(start, end),
		WithTileSize(32, 32),
		WithMaterialOptions(material.WithTexture(common.TextureStagingData{Width: 512, Height: 512})),
	}
	return NewTileSurface("tiles.png", append(base, opts...)...)
}

func cmd(local uint32) common.DrawCommand {
	return common.DrawCommand{LocalIndex: local, Position: [3]float32{float32(local), 0, 1000}}
}

func TestIsWithinRange(t *testing.T) {
	s := newSurface(t, 100, 200)
	fb := NewFallbackSurface("fallback.png")

	tests := []struct {
		index     uint32
		want      bool
		wantLocal uint32
	}{
		{index: 99, want: false, wantLocal: 0},
		{index: 100, want: true, wantLocal: 0},
		{index: 150, want: true, wantLocal: 50},
		{index: 199, want: true, wantLocal: 99},
		{index: 200, want: false, wantLocal: 100},
	}

	for _, tt := range tests {
		if got := s.IsWithinRange(tt.index); got != tt.want {
			t.Errorf("IsWithinRange(%d) = %v, want %v", tt.index, got, tt.want)
		}
		if tt.want {
			if got := s.LocalIndex(tt.index); got != tt.wantLocal {
				t.Errorf("LocalIndex(%d) = %d, want %d", tt.index, got, tt.wantLocal)
			}
		}
		if fb.IsWithinRange(tt.index) {
			t.Errorf("fallback IsWithinRange(%d) = true, want false", tt.index)
		}
	}

	if got := fb.LocalIndex(35); got != 35 {
		t.Errorf("fallback LocalIndex(35) = %d, want 35", got)
	}
	if _, _, ok := fb.Range(); ok {
		t.Error("fallback Range() reported a range")
	}
}

func TestSpriteOffset(t *testing.T) {
	s := newSurface(t, 0, 1000)
	if got := s.SpritesPerRow(); got != 16 {
		t.Fatalf("SpritesPerRow() = %d, want 16 (512/32)", got)
	}

	tests := []struct {
		local uint32
		want  [2]float32
	}{
		{local: 0, want: [2]float32{0, 0}},
		{local: 5, want: [2]float32{160, 0}},
		{local: 15, want: [2]float32{480, 0}},
		{local: 16, want: [2]float32{0, 32}},
		{local: 35, want: [2]float32{96, 64}},
	}
	for _, tt := range tests {
		if got := s.SpriteOffset(tt.local); got != tt.want {
			t.Errorf("SpriteOffset(%d) = %v, want %v", tt.local, got, tt.want)
		}
	}

	fb := NewFallbackSurface("fallback.png", WithTileSize(8, 16), WithSpritesPerRow(4))
	if got := fb.SpritesPerRow(); got != FallbackSpritesPerRow {
		t.Errorf("fallback SpritesPerRow() = %d, want %d", got, FallbackSpritesPerRow)
	}
	if got := fb.SpriteOffset(35); got != [2]float32{24, 32} {
		t.Errorf("fallback SpriteOffset(35) = %v, want [24 32]", got)
	}
}

func TestDrawSpriteLocalIndexBatched(t *testing.T) {
	s := newSurface(t, 0, 1000)

	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1), cmd(17), cmd(2)})
	if got := s.VisibleCount(); got != 3 {
		t.Fatalf("VisibleCount() = %d, want 3", got)
	}
	inst := s.Material().Instance(1)
	if inst.UVOffset != [2]float32{32, 32} {
		t.Errorf("instance 1 offset = %v, want [32 32]", inst.UVOffset)
	}
	if inst.Position != [3]float32{17, 0, 1000} {
		t.Errorf("instance 1 position = %v", inst.Position)
	}

	// A smaller replacement batch shrinks the visible set.
	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(4)})
	if got := s.VisibleCount(); got != 1 {
		t.Errorf("VisibleCount() after replacement = %d, want 1", got)
	}

	s.DrawSpriteLocalIndexBatched(nil)
	if got := s.VisibleCount(); got != 0 {
		t.Errorf("VisibleCount() after empty batch = %d, want 0", got)
	}
}

func TestAnimatedSegment(t *testing.T) {
	s := newSurface(t, 0, 1000)

	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1), cmd(2)})
	s.AppendSpriteLocalIndexBatched([]common.DrawCommand{cmd(9)})
	if got := s.VisibleCount(); got != 3 {
		t.Fatalf("VisibleCount() = %d, want 3", got)
	}
	if got := s.Material().Instance(2).UVOffset; got != [2]float32{288, 0} {
		t.Errorf("animated instance offset = %v, want [288 0]", got)
	}

	// Replacing the animated segment keeps the base.
	s.AppendSpriteLocalIndexBatched([]common.DrawCommand{cmd(10), cmd(11)})
	if got := s.VisibleCount(); got != 4 {
		t.Errorf("VisibleCount() = %d, want 4", got)
	}
	if got := s.BaseCount(); got != 2 {
		t.Errorf("BaseCount() = %d, want 2", got)
	}

	// Replacing the base rewrites the animated segment after it.
	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(3)})
	cmds := s.Commands()
	want := []uint32{3, 10, 11}
	if len(cmds) != len(want) {
		t.Fatalf("Commands() len = %d, want %d", len(cmds), len(want))
	}
	for i, w := range want {
		if cmds[i].LocalIndex != w {
			t.Errorf("Commands()[%d].LocalIndex = %d, want %d", i, cmds[i].LocalIndex, w)
		}
	}
	if got := s.Material().Instance(1).UVOffset; got != [2]float32{320, 0} {
		t.Errorf("moved animated instance offset = %v, want [320 0]", got)
	}

	s.AppendSpriteLocalIndexBatched(nil)
	if got := s.VisibleCount(); got != 1 {
		t.Errorf("VisibleCount() after truncating animation = %d, want 1", got)
	}
}

func TestClear(t *testing.T) {
	s := newSurface(t, 0, 1000)
	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1), cmd(2)})
	s.AppendSpriteLocalIndexBatched([]common.DrawCommand{cmd(3)})

	s.Clear()
	if got := s.VisibleCount(); got != 0 {
		t.Errorf("VisibleCount() after Clear = %d, want 0", got)
	}
	if got := len(s.Commands()); got != 0 {
		t.Errorf("Commands() after Clear has %d entries, want 0", got)
	}
	if got := s.Material().NextFreeInstance(); got != 0 {
		t.Errorf("NextFreeInstance() after Clear = %d, want 0", got)
	}
}

func TestCapacity(t *testing.T) {
	s := newSurface(t, 0, 1000, WithMaterialOptions(material.WithMaxInstances(2)))

	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1), cmd(2), cmd(3)})
	if got := s.VisibleCount(); got != 2 {
		t.Errorf("VisibleCount() = %d, want capacity 2", got)
	}
	s.AppendSpriteLocalIndexBatched([]common.DrawCommand{cmd(4)})
	if got := s.VisibleCount(); got != 2 {
		t.Errorf("VisibleCount() after append at capacity = %d, want 2", got)
	}
}

func TestDispose(t *testing.T) {
	released := 0
	s := newSurface(t, 0, 10, WithOnDispose(func() { released++ }))
	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1)})

	s.Dispose()
	s.Dispose()
	if released != 1 {
		t.Errorf("release hook ran %d times, want 1", released)
	}
	if !s.Disposed() {
		t.Error("Disposed() = false after Dispose")
	}
	if got := s.VisibleCount(); got != 0 {
		t.Errorf("VisibleCount() after Dispose = %d, want 0", got)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("draw after Dispose did not panic")
		}
		if msg, ok := r.(string); !ok || !strings.HasPrefix(msg, "tile_surface:") {
			t.Errorf("panic = %v, want tile_surface: prefix", r)
		}
	}()
	s.DrawSpriteLocalIndexBatched([]common.DrawCommand{cmd(1)})
}
