package darkroom

import (
	"math"
	"testing"
)

func TestZoomClamp(t *testing.T) {
	tests := []struct {
		name   string
		scale  float64
		factor float64
		want   float64
	}{
		{"identity", 1, 1, 1},
		{"double", 1, 2, 2},
		{"huge factor", 1, 1e9, MaxScale},
		{"tiny factor", 1, 1e-9, MinScale},
		{"zero factor", 2, 0, MinScale},
		{"negative factor", 2, -3, MinScale},
		{"inf factor", 1, math.Inf(1), MaxScale},
		{"nan factor", 1, math.NaN(), MinScale},
		{"at upper bound", MaxScale, 1.5, MaxScale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := IdentityGeometry()
			g.Scale = tt.scale
			got := g.Zoom(tt.factor).Scale
			if got != tt.want {
				t.Errorf("Zoom(%v) from %v = %v, want %v", tt.factor, tt.scale, got, tt.want)
			}
			if got < MinScale || got > MaxScale {
				t.Errorf("scale %v outside [%v, %v]", got, MinScale, MaxScale)
			}
		})
	}
}

func TestZoomRepeatedStaysInRange(t *testing.T) {
	g := IdentityGeometry()
	for i := 0; i < 100; i++ {
		g = g.Zoom(1.7)
	}
	if g.Scale != MaxScale {
		t.Errorf("scale after repeated zoom in = %v, want %v", g.Scale, MaxScale)
	}
	for i := 0; i < 100; i++ {
		g = g.Zoom(0.3)
	}
	if g.Scale != MinScale {
		t.Errorf("scale after repeated zoom out = %v, want %v", g.Scale, MinScale)
	}
}

func TestRotateBy90(t *testing.T) {
	for _, start := range []float64{0, 90, -90, 270, 45, -315} {
		for _, dir := range []int{1, -1} {
			g := IdentityGeometry()
			g.Rotation = start
			for i := 0; i < 4; i++ {
				g = g.RotateBy90(dir)
				if g.Rotation <= -360 || g.Rotation >= 360 {
					t.Fatalf("rotation %v escaped (-360, 360)", g.Rotation)
				}
			}
			if math.Mod(g.Rotation-start, 360) != 0 {
				t.Errorf("4 x RotateBy90(%d) from %v = %v, want %v mod 360", dir, start, g.Rotation, start)
			}
		}
	}
}

func TestRotateBy90Sequence(t *testing.T) {
	g := IdentityGeometry()
	want := []float64{90, 180, 270, 0}
	for i, w := range want {
		g = g.RotateBy90(1)
		if g.Rotation != w {
			t.Errorf("step %d: rotation = %v, want %v", i, g.Rotation, w)
		}
	}
	g = g.RotateBy90(-1)
	if g.Rotation != -90 {
		t.Errorf("rotate right from 0 = %v, want -90", g.Rotation)
	}
	if !g.Rotated() {
		t.Error("Rotated() = false at -90")
	}
}

func TestFlipTwice(t *testing.T) {
	g := IdentityGeometry()
	if g.Flip().Flip() != g {
		t.Error("Flip().Flip() is not the identity")
	}
	if !g.Flip().Flipped {
		t.Error("Flip() did not set Flipped")
	}
}

func TestPanUnbounded(t *testing.T) {
	g := IdentityGeometry().Pan(10, -20).Pan(0.5, 0.5)
	if g.TranslateX != 10.5 || g.TranslateY != -19.5 {
		t.Errorf("Pan = (%v, %v), want (10.5, -19.5)", g.TranslateX, g.TranslateY)
	}
}

func TestResetView(t *testing.T) {
	g := IdentityGeometry().Pan(1, 1).Zoom(2).RotateBy90(1).Flip()
	g.Crop = Rect{0.1, 0.2, 0.3, 0.4}
	got := g.ResetView()
	want := IdentityGeometry()
	want.Crop = g.Crop
	if got != want {
		t.Errorf("ResetView() = %+v, want %+v", got, want)
	}
}

func TestModelMatrix(t *testing.T) {
	g := IdentityGeometry().Pan(0.5, 0).Zoom(2).RotateBy90(1).Flip()
	m := g.ModelMatrix()

	// Scale (-2, 2), then rotate 90 CCW, then translate (0.5, 0):
	// (1, 0) -> (-2, 0) -> (0, -2) -> (0.5, -2).
	p := m.MulVec4(Vec4{X: 1, Y: 0, Z: 0, W: 1})
	if !approx(p.X, 0.5) || !approx(p.Y, -2) {
		t.Errorf("ModelMatrix * (1,0) = (%v, %v), want (0.5, -2)", p.X, p.Y)
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
