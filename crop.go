package darkroom

import "math"

// CropResult is the outcome of a successful crop reprojection.
type CropResult struct {
	// Geometry is the new geometry: identity view with the composed crop.
	Geometry Geometry

	// PixelW and PixelH are the dimensions of the cropped region in source
	// pixels.
	PixelW, PixelH int
}

// ReprojectCrop maps a selection drawn over the viewport back into source
// image coordinates and composes it with the current crop.
//
// sel is normalized to the viewport with the origin at the top-left. The
// selection corners are taken to clip space, pulled back through the
// inverse of the displayed model matrix, converted to texture coordinates
// of the fitted quad and clamped to [0, 1]. Their bounding box is then
// expressed relative to the existing crop, so successive crops narrow the
// same rectangle. Pending pan, zoom, rotation and flip are absorbed and the
// returned geometry has an identity view.
//
// ErrDegenerateTransform is returned, and g is left as is, when the model
// matrix is singular or the selection does not overlap the image.
func ReprojectCrop(g Geometry, sel Rect, image, view Size) (CropResult, error) {
	if image.Empty() || view.Empty() {
		return CropResult{}, ErrInvalidSize
	}

	inv, ok := g.ModelMatrix().Invert()
	if !ok {
		return CropResult{}, ErrDegenerateTransform
	}

	qx, qy := FitInside(image, view, g.Crop, g.Rotation)

	corners := [4][2]float64{
		{sel.Left, sel.Top},
		{sel.Right, sel.Top},
		{sel.Left, sel.Bottom},
		{sel.Right, sel.Bottom},
	}

	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		clip := Vec4{X: 2*c[0] - 1, Y: 1 - 2*c[1], Z: 0, W: 1}
		p := inv.MulVec4(clip)

		u := (p.X/qx)*0.5 + 0.5
		v := 0.5 - (p.Y/qy)*0.5

		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}

	minU, maxU = clampf(minU, 0, 1), clampf(maxU, 0, 1)
	minV, maxV = clampf(minV, 0, 1), clampf(maxV, 0, 1)

	old := g.Crop
	crop := Rect{
		Left:   old.Left + old.Width()*minU,
		Top:    old.Top + old.Height()*minV,
		Right:  old.Left + old.Width()*maxU,
		Bottom: old.Top + old.Height()*maxV,
	}
	if crop.Empty() {
		return CropResult{}, ErrDegenerateTransform
	}

	next := IdentityGeometry()
	next.Crop = crop
	return CropResult{
		Geometry: next,
		PixelW:   int(math.Round(float64(image.W) * crop.Width())),
		PixelH:   int(math.Round(float64(image.H) * crop.Height())),
	}, nil
}
