package darkroom

import "math"

// Zoom limits applied at every scale mutation.
const (
	MinScale = 0.5
	MaxScale = 5.0
)

// Size is a pixel extent.
type Size struct {
	W, H int
}

// Empty reports whether either dimension is not positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Rect is an axis-aligned rectangle in normalized [0, 1] coordinates with
// the origin at the top-left.
type Rect struct {
	Left, Top, Right, Bottom float64
}

// FullRect returns the rectangle covering the whole image.
func FullRect() Rect { return Rect{Left: 0, Top: 0, Right: 1, Bottom: 1} }

// Width returns Right - Left.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Bottom - Top.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return !(r.Right > r.Left) || !(r.Bottom > r.Top)
}

// Geometry is the view transform and crop window of an edit.
//
// Scale, TranslateX, TranslateY, Rotation and Flipped describe how the
// image quad is placed in the viewport. Crop selects the visible part of
// the original, uncropped source.
type Geometry struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
	Rotation   float64 // degrees, counter-clockwise
	Flipped    bool
	Crop       Rect
}

// IdentityGeometry returns an untransformed, uncropped geometry.
func IdentityGeometry() Geometry {
	return Geometry{Scale: 1, Crop: FullRect()}
}

// Pan moves the image by (dx, dy) in normalized device units.
func (g Geometry) Pan(dx, dy float64) Geometry {
	g.TranslateX += dx
	g.TranslateY += dy
	return g
}

// Zoom multiplies the scale by factor and clamps it to [MinScale, MaxScale].
func (g Geometry) Zoom(factor float64) Geometry {
	g.Scale = clampScale(g.Scale * factor)
	return g
}

// RotateBy90 rotates by 90 degrees in the direction of dir (+1
// counter-clockwise, -1 clockwise). The angle stays within (-360, 360).
func (g Geometry) RotateBy90(dir int) Geometry {
	switch {
	case dir > 0:
		g.Rotation += 90
	case dir < 0:
		g.Rotation -= 90
	}
	g.Rotation = math.Mod(g.Rotation, 360)
	return g
}

// Flip toggles the horizontal mirror.
func (g Geometry) Flip() Geometry {
	g.Flipped = !g.Flipped
	return g
}

// ResetView drops scale, translation, rotation and flip, keeping the crop.
func (g Geometry) ResetView() Geometry {
	return Geometry{Scale: 1, Crop: g.Crop}
}

// Rotated reports whether the rotation is an odd multiple of 90 degrees,
// which swaps the displayed width and height.
func (g Geometry) Rotated() bool {
	return isQuarterTurn(g.Rotation)
}

// ModelMatrix returns translate(tx, ty) * rotate(rotation) *
// scale(scale*flipSign, scale, 1).
func (g Geometry) ModelMatrix() Mat4 {
	sx := g.Scale
	if g.Flipped {
		sx = -sx
	}
	return Identity().
		Translate(g.TranslateX, g.TranslateY, 0).
		RotateZ(g.Rotation).
		Scale(sx, g.Scale, 1)
}

func isQuarterTurn(deg float64) bool {
	return math.Mod(math.Abs(deg), 180) == 90
}

func clampScale(s float64) float64 {
	// NaN collapses to the lower bound.
	if !(s >= MinScale) {
		return MinScale
	}
	if s > MaxScale {
		return MaxScale
	}
	return s
}
