package darkroom

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func rectApprox(a, b Rect) bool {
	const eps = 1e-9
	return math.Abs(a.Left-b.Left) < eps && math.Abs(a.Top-b.Top) < eps &&
		math.Abs(a.Right-b.Right) < eps && math.Abs(a.Bottom-b.Bottom) < eps
}

func TestReprojectCropFullSelection(t *testing.T) {
	// A square image in a square view covers the whole viewport, so the
	// full selection maps back to the full crop.
	image, view := Size{W: 100, H: 100}, Size{W: 400, H: 400}
	g := IdentityGeometry()

	res, err := ReprojectCrop(g, FullRect(), image, view)
	if err != nil {
		t.Fatalf("ReprojectCrop: %v", err)
	}
	if !rectApprox(res.Geometry.Crop, FullRect()) {
		t.Errorf("crop = %+v, want full", res.Geometry.Crop)
	}
	if res.PixelW != 100 || res.PixelH != 100 {
		t.Errorf("pixel size = %dx%d, want 100x100", res.PixelW, res.PixelH)
	}
}

func TestReprojectCropQuadrant(t *testing.T) {
	image, view := Size{W: 200, H: 100}, Size{W: 200, H: 100}
	sel := Rect{Left: 0, Top: 0, Right: 0.5, Bottom: 0.5}

	res, err := ReprojectCrop(IdentityGeometry(), sel, image, view)
	if err != nil {
		t.Fatalf("ReprojectCrop: %v", err)
	}
	if !rectApprox(res.Geometry.Crop, sel) {
		t.Errorf("crop = %+v, want %+v", res.Geometry.Crop, sel)
	}
	if res.PixelW != 100 || res.PixelH != 50 {
		t.Errorf("pixel size = %dx%d, want 100x50", res.PixelW, res.PixelH)
	}
}

func TestReprojectCropComposes(t *testing.T) {
	image, view := Size{W: 100, H: 100}, Size{W: 100, H: 100}
	half := Rect{Left: 0.25, Top: 0.25, Right: 0.75, Bottom: 0.75}

	first, err := ReprojectCrop(IdentityGeometry(), half, image, view)
	if err != nil {
		t.Fatalf("first crop: %v", err)
	}
	if !rectApprox(first.Geometry.Crop, half) {
		t.Fatalf("first crop = %+v, want %+v", first.Geometry.Crop, half)
	}

	// The cropped region is square again and fills the view, so the left
	// half of the view is the left half of the current crop.
	second, err := ReprojectCrop(first.Geometry, Rect{Left: 0, Top: 0, Right: 0.5, Bottom: 1}, image, view)
	if err != nil {
		t.Fatalf("second crop: %v", err)
	}
	want := CropResult{Geometry: IdentityGeometry(), PixelW: 25, PixelH: 50}
	want.Geometry.Crop = Rect{Left: 0.25, Top: 0.25, Right: 0.5, Bottom: 0.75}
	if diff := cmp.Diff(want, second, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("composed crop mismatch (-want +got):\n%s", diff)
	}
}

func TestReprojectCropExact(t *testing.T) {
	square := Size{W: 100, H: 100}
	cropped := IdentityGeometry()
	cropped.Crop = Rect{Left: 0.25, Top: 0.25, Right: 0.75, Bottom: 0.75}
	flipped := IdentityGeometry()
	flipped.Flipped = true
	rotated := IdentityGeometry()
	rotated.Rotation = 90

	tests := []struct {
		name   string
		g      Geometry
		sel    Rect
		image  Size
		view   Size
		crop   Rect
		pw, ph int
	}{
		// The cropped region fills the view, so selecting all of it
		// keeps the crop.
		{"full selection keeps crop", cropped, FullRect(), square, square, cropped.Crop, 50, 50},
		// The image band of a letterboxed wide image.
		{"letterbox band", IdentityGeometry(), Rect{Left: 0, Top: 0.25, Right: 1, Bottom: 0.75}, Size{W: 200, H: 100}, square, FullRect(), 200, 100},
		{"flipped left half", flipped, Rect{Left: 0, Top: 0, Right: 0.5, Bottom: 1}, square, square, Rect{Left: 0.5, Top: 0, Right: 1, Bottom: 1}, 50, 100},
		// A quarter turn shows the top of the image on the left.
		{"rotated left half", rotated, Rect{Left: 0, Top: 0, Right: 0.5, Bottom: 1}, square, square, Rect{Left: 0, Top: 0, Right: 1, Bottom: 0.5}, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ReprojectCrop(tt.g, tt.sel, tt.image, tt.view)
			if err != nil {
				t.Fatalf("ReprojectCrop: %v", err)
			}
			want := CropResult{Geometry: IdentityGeometry(), PixelW: tt.pw, PixelH: tt.ph}
			want.Geometry.Crop = tt.crop
			if diff := cmp.Diff(want, res, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
				t.Errorf("ReprojectCrop() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReprojectCropAbsorbsView(t *testing.T) {
	image, view := Size{W: 100, H: 100}, Size{W: 100, H: 100}
	g := IdentityGeometry().Zoom(2).Pan(0.5, 0).RotateBy90(1).Flip()

	res, err := ReprojectCrop(g, Rect{Left: 0.4, Top: 0.4, Right: 0.6, Bottom: 0.6}, image, view)
	if err != nil {
		t.Fatalf("ReprojectCrop: %v", err)
	}
	got := res.Geometry
	if got.Scale != 1 || got.TranslateX != 0 || got.TranslateY != 0 || got.Rotation != 0 || got.Flipped {
		t.Errorf("view not reset: %+v", got)
	}
	c := got.Crop
	if c.Left < 0 || c.Top < 0 || c.Right > 1 || c.Bottom > 1 || c.Empty() {
		t.Errorf("crop %+v outside the unit square", c)
	}
}

func TestReprojectCropClampsOutside(t *testing.T) {
	// A wide image in a square view leaves bars above and below; the
	// selection spans them and is clamped to the image.
	image, view := Size{W: 200, H: 100}, Size{W: 100, H: 100}
	res, err := ReprojectCrop(IdentityGeometry(), FullRect(), image, view)
	if err != nil {
		t.Fatalf("ReprojectCrop: %v", err)
	}
	if !rectApprox(res.Geometry.Crop, FullRect()) {
		t.Errorf("crop = %+v, want full", res.Geometry.Crop)
	}
}

func TestReprojectCropErrors(t *testing.T) {
	image, view := Size{W: 100, H: 100}, Size{W: 100, H: 100}

	degenerate := IdentityGeometry()
	degenerate.Scale = 0

	wide := Size{W: 200, H: 100}
	tests := []struct {
		name  string
		g     Geometry
		sel   Rect
		image Size
		view  Size
		want  error
	}{
		{"singular", degenerate, FullRect(), image, view, ErrDegenerateTransform},
		{"empty selection", IdentityGeometry(), Rect{0.5, 0.5, 0.5, 0.5}, image, view, ErrDegenerateTransform},
		// Top bar of a letterboxed image: clamps to an empty strip.
		{"outside image", IdentityGeometry(), Rect{0, 0, 1, 0.1}, wide, view, ErrDegenerateTransform},
		{"empty view", IdentityGeometry(), FullRect(), image, Size{}, ErrInvalidSize},
		{"empty image", IdentityGeometry(), FullRect(), Size{}, view, ErrInvalidSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReprojectCrop(tt.g, tt.sel, tt.image, tt.view)
			if !errors.Is(err, tt.want) {
				t.Errorf("ReprojectCrop() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFitInside(t *testing.T) {
	tests := []struct {
		name     string
		image    Size
		view     Size
		crop     Rect
		rotation float64
		sx, sy   float64
	}{
		{"same aspect", Size{100, 50}, Size{200, 100}, FullRect(), 0, 1, 1},
		{"wide image", Size{200, 100}, Size{100, 100}, FullRect(), 0, 1, 0.5},
		{"tall image", Size{100, 200}, Size{100, 100}, FullRect(), 0, 0.5, 1},
		{"wide rotated", Size{200, 100}, Size{100, 100}, FullRect(), 90, 1, 0.5},
		{"wide rotated negative", Size{200, 100}, Size{100, 100}, FullRect(), -270, 1, 0.5},
		{"half crop", Size{100, 100}, Size{100, 100}, Rect{0, 0, 0.5, 1}, 0, 0.5, 1},
		{"empty view", Size{100, 100}, Size{}, FullRect(), 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := FitInside(tt.image, tt.view, tt.crop, tt.rotation)
			if !approx(sx, tt.sx) || !approx(sy, tt.sy) {
				t.Errorf("FitInside() = (%v, %v), want (%v, %v)", sx, sy, tt.sx, tt.sy)
			}
		})
	}
}
