// Package shade implements the per-pixel color contract shared by the
// software device and the GPU shader: bilinear source sampling, optional
// lookup-table grading blended by intensity, and the tone color matrix.
package shade

import "github.com/gogpu/darkroom/cube"

// Params are the per-draw color parameters.
type Params struct {
	// LUT is the active table; nil bypasses the lookup stage.
	LUT *cube.Table

	// Intensity blends the graded color with the original, 0 to 1.
	Intensity float32

	// Tone is the composed tone matrix, see ToneMatrix.
	Tone ColorMatrix
}

// Color runs the lookup and tone stages on one straight-alpha color and
// clamps the result to [0, 1]. Alpha is passed through.
func (p *Params) Color(r, g, b, a float32) (float32, float32, float32, float32) {
	if p.LUT != nil {
		lr, lg, lb := p.LUT.Sample(r, g, b)
		t := p.Intensity
		r = r + (lr-r)*t
		g = g + (lg-g)*t
		b = b + (lb-b)*t
	}
	r, g, b, _ = p.Tone.Apply(r, g, b, a)
	return clamp01(r), clamp01(g), clamp01(b), a
}

// Bilinear samples an RGBA8 image at normalized coordinates (u, v) with
// the origin at the top-left, using pixel-center sampling and
// clamp-to-edge addressing. Channels are returned in [0, 1].
func Bilinear(pix []uint8, w, h int, u, v float32) (float32, float32, float32, float32) {
	x := u*float32(w) - 0.5
	y := v*float32(h) - 0.5

	x0 := floor(x)
	y0 := floor(y)
	fx := x - float32(x0)
	fy := y - float32(y0)

	x1 := clampi(x0+1, 0, w-1)
	y1 := clampi(y0+1, 0, h-1)
	x0 = clampi(x0, 0, w-1)
	y0 = clampi(y0, 0, h-1)

	stride := w * 4
	p00 := pix[y0*stride+x0*4:]
	p10 := pix[y0*stride+x1*4:]
	p01 := pix[y1*stride+x0*4:]
	p11 := pix[y1*stride+x1*4:]

	var out [4]float32
	for c := 0; c < 4; c++ {
		top := float32(p00[c]) + (float32(p10[c])-float32(p00[c]))*fx
		bot := float32(p01[c]) + (float32(p11[c])-float32(p01[c]))*fx
		out[c] = (top + (bot-top)*fy) / 255
	}
	return out[0], out[1], out[2], out[3]
}

// ToByte converts a [0, 1] channel to 8 bits with rounding.
func ToByte(v float32) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func floor(v float32) int {
	i := int(v)
	if float32(i) > v {
		i--
	}
	return i
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float32) float32 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
