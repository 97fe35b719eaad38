package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

func TestActionForKey(t *testing.T) {
	tests := []struct {
		name   string
		key    uint32
		repeat bool
		want   Action
		ok     bool
	}{
		{name: "grid press", key: common.KeyG, want: ActionToggleGrid, ok: true},
		{name: "grid repeat", key: common.KeyG, repeat: true},
		{name: "level up press", key: common.KeyPageUp, want: ActionLevelUp, ok: true},
		{name: "level down repeat", key: common.KeyPageDown, repeat: true},
		{name: "reset", key: common.KeyR, want: ActionResetView, ok: true},
		{name: "zoom in repeat", key: common.KeyEqual, repeat: true, want: ActionZoomIn, ok: true},
		{name: "zoom out", key: common.KeyMinus, want: ActionZoomOut, ok: true},
		{name: "pan up repeat", key: common.KeyW, repeat: true, want: ActionPanUp, ok: true},
		{name: "pan left", key: common.KeyA, want: ActionPanLeft, ok: true},
		{name: "pan down", key: common.KeyS, want: ActionPanDown, ok: true},
		{name: "pan right", key: common.KeyD, want: ActionPanRight, ok: true},
		{name: "unbound", key: common.KeyEsc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := actionForKey(tt.key, tt.repeat)
			if ok != tt.ok {
				t.Fatalf("actionForKey(%d, %v) ok = %v, want %v", tt.key, tt.repeat, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("actionForKey(%d, %v) = %s, want %s", tt.key, tt.repeat, got, tt.want)
			}
		})
	}
}

func TestDragState(t *testing.T) {
	var d dragState
	if _, _, ok := d.move(10, 10); ok {
		t.Fatal("move reported a delta without a drag")
	}

	d.press(10, 20)
	dx, dy, ok := d.move(15, 12)
	if !ok || dx != 5 || dy != -8 {
		t.Errorf("move = (%v, %v, %v), want (5, -8, true)", dx, dy, ok)
	}
	dx, dy, ok = d.move(15, 12)
	if ok {
		t.Errorf("move without movement = (%v, %v, true), want ok false", dx, dy)
	}
	dx, dy, ok = d.move(13, 13)
	if !ok || dx != -2 || dy != 1 {
		t.Errorf("second move = (%v, %v, %v), want (-2, 1, true)", dx, dy, ok)
	}

	d.release()
	if _, _, ok := d.move(100, 100); ok {
		t.Error("move reported a delta after release")
	}
}

func TestActionString(t *testing.T) {
	if got := ActionLevelDown.String(); got != "level-down" {
		t.Errorf("String() = %q, want level-down", got)
	}
	if got := Action(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}
