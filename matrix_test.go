package darkroom

import (
	"math"
	"testing"
)

func matApprox(a, b Mat4) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestMat4Identity(t *testing.T) {
	m := Identity()
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := 0.0
			if r == c {
				want = 1
			}
			if m.At(r, c) != want {
				t.Errorf("Identity().At(%d, %d) = %v, want %v", r, c, m.At(r, c), want)
			}
		}
	}
}

func TestMat4Transforms(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec4
		want Vec4
	}{
		{"translate", Identity().Translate(2, -1, 0), Vec4{1, 1, 0, 1}, Vec4{3, 0, 0, 1}},
		{"translate ignores directions", Identity().Translate(2, -1, 0), Vec4{1, 1, 0, 0}, Vec4{1, 1, 0, 0}},
		{"rotate 90", Identity().RotateZ(90), Vec4{1, 0, 0, 1}, Vec4{0, 1, 0, 1}},
		{"rotate -90", Identity().RotateZ(-90), Vec4{1, 0, 0, 1}, Vec4{0, -1, 0, 1}},
		{"scale", Identity().Scale(2, 3, 1), Vec4{1, 1, 5, 1}, Vec4{2, 3, 5, 1}},
		{"scale then translate", Identity().Translate(1, 0, 0).Scale(2, 2, 1), Vec4{1, 1, 0, 1}, Vec4{3, 2, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.MulVec4(tt.in)
			if !approx(got.X, tt.want.X) || !approx(got.Y, tt.want.Y) ||
				!approx(got.Z, tt.want.Z) || !approx(got.W, tt.want.W) {
				t.Errorf("MulVec4(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMat4Invert(t *testing.T) {
	mats := []Mat4{
		Identity(),
		Identity().Translate(0.3, -0.7, 0),
		Identity().Translate(0.3, -0.7, 0).RotateZ(90).Scale(-2, 2, 1),
		Identity().RotateZ(33).Scale(0.5, 4, 1),
	}
	for i, m := range mats {
		inv, ok := m.Invert()
		if !ok {
			t.Errorf("mats[%d].Invert() reported singular", i)
			continue
		}
		if got := m.Mul(inv); !matApprox(got, Identity()) {
			t.Errorf("mats[%d] * inverse = %v, want identity", i, got)
		}
	}
}

func TestMat4InvertSingular(t *testing.T) {
	for _, m := range []Mat4{
		{},
		Identity().Scale(0, 0, 1),
		Identity().Scale(1, 0, 1),
		Identity().Scale(math.NaN(), 1, 1),
	} {
		if _, ok := m.Invert(); ok {
			t.Errorf("Invert(%v) reported invertible", m)
		}
	}
}

func TestMat4Float32(t *testing.T) {
	m := Identity().Translate(0.5, 0.25, 0)
	f := m.Float32()
	if f[12] != 0.5 || f[13] != 0.25 || f[15] != 1 {
		t.Errorf("Float32() translation column = %v, %v, %v", f[12], f[13], f[15])
	}
}
