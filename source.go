package darkroom

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// DefaultMaxSourceSize bounds each source dimension so the texture fits
// common GPU limits and stays responsive on the software device.
const DefaultMaxSourceSize = 2048

// SourceOption configures NewSource.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	maxW, maxH int
	scaler     xdraw.Scaler
}

// WithMaxSize bounds the prepared source to n x n pixels. Zero or a
// negative value disables downscaling.
func WithMaxSize(n int) SourceOption {
	return func(o *sourceOptions) {
		o.maxW, o.maxH = n, n
	}
}

// WithScaler selects the downscaling filter. The default is
// xdraw.CatmullRom.
func WithScaler(s xdraw.Scaler) SourceOption {
	return func(o *sourceOptions) {
		if s != nil {
			o.scaler = s
		}
	}
}

// NewSource converts a decoded image into the RGBA8 pixmap a pipeline
// renders from. Images larger than the size limit are scaled down,
// preserving the aspect ratio.
func NewSource(img image.Image, opts ...SourceOption) (*Pixmap, error) {
	o := sourceOptions{
		maxW:   DefaultMaxSourceSize,
		maxH:   DefaultMaxSourceSize,
		scaler: xdraw.CatmullRom,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if img == nil {
		return nil, fmt.Errorf("darkroom: new source: %w", ErrInvalidSize)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("darkroom: new source %v: %w", b, ErrInvalidSize)
	}

	w, h := fitWithin(b.Dx(), b.Dy(), o.maxW, o.maxH)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	} else {
		o.scaler.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		slogger().Debug("darkroom: source downscaled", "from", b.Size(), "to", dst.Bounds().Size())
	}
	return &Pixmap{width: w, height: h, data: dst.Pix}, nil
}

// fitWithin returns w x h scaled down to fit maxW x maxH, never up.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	return max(1, int(float64(w)*scale+0.5)), max(1, int(float64(h)*scale+0.5))
}
