package darkroom

import "math"

// Tone holds the tonal adjustments applied after the lookup table.
//
// Brightness is added to each channel and lies in [-0.5, 0.5]. Contrast
// scales the distance from mid-gray and Saturation interpolates between
// luma and color; both lie in [0, 2] with 1 as identity.
type Tone struct {
	Brightness float64
	Contrast   float64
	Saturation float64
}

// NeutralTone returns the identity adjustment.
func NeutralTone() Tone {
	return Tone{Brightness: 0, Contrast: 1, Saturation: 1}
}

// SliderNeutral is the slider position of the identity adjustment.
const SliderNeutral = 50

// ToneFromSliders maps 0..100 slider positions to a Tone.
// SliderNeutral is neutral on every slider.
func ToneFromSliders(brightness, contrast, saturation int) Tone {
	return Tone{
		Brightness: float64(brightness-SliderNeutral) / 100,
		Contrast:   float64(contrast) / SliderNeutral,
		Saturation: float64(saturation) / SliderNeutral,
	}.Clamp()
}

// Sliders is the inverse of ToneFromSliders, rounded to the nearest step.
func (t Tone) Sliders() (brightness, contrast, saturation int) {
	return int(math.Round(t.Brightness*100 + 50)),
		int(math.Round(t.Contrast * 50)),
		int(math.Round(t.Saturation * 50))
}

// Clamp returns t with every field forced into its valid range.
func (t Tone) Clamp() Tone {
	t.Brightness = clampf(t.Brightness, -0.5, 0.5)
	t.Contrast = clampf(t.Contrast, 0, 2)
	t.Saturation = clampf(t.Saturation, 0, 2)
	return t
}

// WithBrightness returns t with Brightness set and clamped.
func (t Tone) WithBrightness(v float64) Tone {
	t.Brightness = clampf(v, -0.5, 0.5)
	return t
}

// WithContrast returns t with Contrast set and clamped.
func (t Tone) WithContrast(v float64) Tone {
	t.Contrast = clampf(v, 0, 2)
	return t
}

// WithSaturation returns t with Saturation set and clamped.
func (t Tone) WithSaturation(v float64) Tone {
	t.Saturation = clampf(v, 0, 2)
	return t
}

func clampf(v, lo, hi float64) float64 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
