package darkroom

// FitInside returns the half extents (sx, sy) of the image quad in
// normalized device units so that the cropped image keeps its aspect ratio
// and fits entirely inside the viewport. One of the two is always 1.
//
// For quarter-turn rotations the image is laid out with width and height
// swapped, and the returned extents are swapped back into the quad's own
// axes. Empty sizes or crops yield (1, 1).
func FitInside(image, view Size, crop Rect, rotation float64) (sx, sy float64) {
	if image.Empty() || view.Empty() || crop.Empty() {
		return 1, 1
	}

	w := float64(image.W) * crop.Width()
	h := float64(image.H) * crop.Height()
	rotated := isQuarterTurn(rotation)
	if rotated {
		w, h = h, w
	}

	imgRatio := w / h
	viewRatio := float64(view.W) / float64(view.H)

	sx, sy = 1, 1
	if imgRatio > viewRatio {
		sy = viewRatio / imgRatio
	} else {
		sx = imgRatio / viewRatio
	}

	if rotated {
		sx, sy = sy, sx
	}
	return sx, sy
}
