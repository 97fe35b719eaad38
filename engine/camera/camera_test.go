package camera

import (
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-tiles/common"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestCameraBounds(t *testing.T) {
	ctrl := NewCameraController(WithPosition(400, -300))
	cam := NewCamera(WithViewport(800, 600), WithController(ctrl))

	l, r, b, top := cam.Bounds()
	if !approx(l, 0) || !approx(r, 800) || !approx(b, -600) || !approx(top, 0) {
		t.Errorf("Bounds() = (%v, %v, %v, %v), want (0, 800, -600, 0)", l, r, b, top)
	}

	ctrl.SetZoomFactor(2)
	cam.Update()
	l, r, b, top = cam.Bounds()
	if !approx(l, 200) || !approx(r, 600) || !approx(b, -450) || !approx(top, -150) {
		t.Errorf("zoomed Bounds() = (%v, %v, %v, %v), want (200, 600, -450, -150)", l, r, b, top)
	}
}

func TestCameraProjectsViewToClipSpace(t *testing.T) {
	cam := NewCamera(WithViewport(800, 600), WithController(NewCameraController(WithPosition(400, -300))))
	vp := cam.ViewProjectionMatrix()

	tests := []struct {
		name         string
		x, y         float32
		wantX, wantY float32
	}{
		{name: "centre", x: 400, y: -300, wantX: 0, wantY: 0},
		{name: "top left", x: 0, y: 0, wantX: -1, wantY: 1},
		{name: "bottom right", x: 800, y: -600, wantX: 1, wantY: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, _ := common.TransformPoint(vp[:], tt.x, tt.y, 1000)
			if !approx(x, tt.wantX) || !approx(y, tt.wantY) {
				t.Errorf("clip = (%v, %v), want (%v, %v)", x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestCameraDepthOrder(t *testing.T) {
	cam := NewCamera(WithViewport(800, 600))
	vp := cam.ViewProjectionMatrix()

	_, _, back := common.TransformPoint(vp[:], 0, 0, 1000)
	_, _, front := common.TransformPoint(vp[:], 0, 0, 2000)
	_, _, deep := common.TransformPoint(vp[:], 0, 0, 1_001_000)

	if front >= back {
		t.Errorf("larger z should be nearer: depth(2000)=%v, depth(1000)=%v", front, back)
	}
	if deep >= front {
		t.Errorf("depth(1001000)=%v should be nearer than depth(2000)=%v", deep, front)
	}
	for _, d := range []float32{back, front, deep} {
		if d < 0 || d > 1 {
			t.Errorf("depth %v outside [0, 1]", d)
		}
	}
}

func TestScreenToWorld(t *testing.T) {
	cam := NewCamera(WithViewport(800, 600), WithController(NewCameraController(WithPosition(400, -300))))

	x, y := cam.ScreenToWorld(0, 0)
	if !approx(x, 0) || !approx(y, 0) {
		t.Errorf("ScreenToWorld(0, 0) = (%v, %v), want (0, 0)", x, y)
	}
	x, y = cam.ScreenToWorld(800, 600)
	if !approx(x, 800) || !approx(y, -600) {
		t.Errorf("ScreenToWorld(800, 600) = (%v, %v), want (800, -600)", x, y)
	}
}

func TestControllerPanAndZoom(t *testing.T) {
	ctrl := NewCameraController(WithZoom(2), WithZoomBounds(0.5, 4), WithZoomSpeed(1))

	ctrl.Pan(10, 20)
	x, y := ctrl.Position()
	if !approx(x, -5) || !approx(y, 10) {
		t.Errorf("Position() after Pan = (%v, %v), want (-5, 10)", x, y)
	}

	tests := []struct {
		name  string
		delta float32
		want  float32
	}{
		{name: "zoom in", delta: 0.5, want: 3},
		{name: "clamped max", delta: 1, want: 4},
		{name: "zoom out", delta: -0.5, want: 2},
		{name: "non positive factor ignored", delta: -1, want: 2},
		{name: "clamped min", delta: -0.9, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl.Zoom(tt.delta)
			if got := ctrl.ZoomFactor(); !approx(got, tt.want) {
				t.Errorf("ZoomFactor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCameraUniform(t *testing.T) {
	cam := NewCamera(WithController(NewCameraController(WithPosition(3, 4))))
	u := cam.Uniform()
	if u.Center != [2]float32{3, 4} || u.Zoom != 1 || u.EyeZ != DefaultEyeZ {
		t.Errorf("Uniform() = center %v zoom %v eye %v", u.Center, u.Zoom, u.EyeZ)
	}
	if got := len(u.Marshal()); got != 80 {
		t.Errorf("Marshal() length = %d, want 80", got)
	}
}
