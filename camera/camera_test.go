package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 0.01 }

func TestNewFitsTerrain(t *testing.T) {
	cam := New(1280, 720, 1024, 1024)

	if cam.X != 512 || cam.Y != 512 {
		t.Errorf("expected camera at (512, 512), got (%f, %f)", cam.X, cam.Y)
	}
	// Height is the limiting dimension: 720/1024.
	if !near(cam.Zoom, 0.703125) {
		t.Errorf("expected fit zoom 0.703, got %f", cam.Zoom)
	}
	_, y, _, h := cam.FieldRect()
	if !near(y, 0) || !near(h, 720) {
		t.Errorf("terrain spans y=%f h=%f, want 0/720", y, h)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)
	cam.SetZoom(1.7)
	cam.Pan(130, -40)

	for _, tc := range []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
	} {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestScreenToField(t *testing.T) {
	cam := New(1000, 1000, 500, 500)

	u, v, ok := cam.ScreenToField(500, 500)
	if !ok || !near(u, 0.5) || !near(v, 0.5) {
		t.Errorf("center = (%f, %f, %v), want (0.5, 0.5, true)", u, v, ok)
	}
	u, v, ok = cam.ScreenToField(0, 250)
	if !ok || !near(u, 0) || !near(v, 0.25) {
		t.Errorf("left edge = (%f, %f, %v)", u, v, ok)
	}

	cam.SetZoom(1)
	if _, _, ok := cam.ScreenToField(10, 10); ok {
		t.Error("point outside the terrain reported inside")
	}
}

func TestPanStaysOverTerrain(t *testing.T) {
	cam := New(800, 600, 400, 400)
	cam.Pan(-1e6, 1e6)
	if cam.X != 0 || cam.Y != 400 {
		t.Errorf("expected clamp to (0, 400), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 2560, 1440)

	// Fit zoom is 0.5, so the floor is 0.25.
	cam.SetZoom(0.01)
	if cam.Zoom != 0.25 {
		t.Errorf("expected zoom clamped to 0.25, got %f", cam.Zoom)
	}
	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(800, 800, 800, 800)
	wx, wy := cam.ScreenToWorld(200, 300)

	cam.ZoomAt(2, 200, 300)

	gx, gy := cam.ScreenToWorld(200, 300)
	if !near(gx, wx) || !near(gy, wy) {
		t.Errorf("anchor moved from (%f,%f) to (%f,%f)", wx, wy, gx, gy)
	}
	if cam.Zoom != 2 {
		t.Errorf("zoom = %f", cam.Zoom)
	}
}

func TestResizeRefits(t *testing.T) {
	cam := New(400, 400, 800, 800)
	cam.Resize(100, 100)
	if cam.MinZoom != 0.0625 {
		t.Errorf("MinZoom = %f, want 0.0625", cam.MinZoom)
	}
	cam.Reset()
	if cam.Zoom != 0.125 {
		t.Errorf("zoom after reset = %f", cam.Zoom)
	}
}
