package shade

// ColorMatrix is a 4x5 color transform in row-major order operating on
// channel values in [0, 1]:
//
//	[R']   [m00 m01 m02 m03 m04]   [R]
//	[G'] = [m10 m11 m12 m13 m14] * [G]
//	[B']   [m20 m21 m22 m23 m24]   [B]
//	[A']   [m30 m31 m32 m33 m34]   [A]
//	                               [1]
//
// The fifth column is the bias.
type ColorMatrix [20]float32

// Rec. 709 luma weights.
const (
	LumaR = 0.2126
	LumaG = 0.7152
	LumaB = 0.0722
)

// IdentityMatrix passes colors through unchanged.
func IdentityMatrix() ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ContrastMatrix scales the distance from mid-gray: (c-0.5)*k + 0.5.
func ContrastMatrix(k float32) ColorMatrix {
	off := 0.5 * (1 - k)
	return ColorMatrix{
		k, 0, 0, 0, off,
		0, k, 0, 0, off,
		0, 0, k, 0, off,
		0, 0, 0, 1, 0,
	}
}

// BrightnessMatrix adds b to each color channel.
func BrightnessMatrix(b float32) ColorMatrix {
	return ColorMatrix{
		1, 0, 0, 0, b,
		0, 1, 0, 0, b,
		0, 0, 1, 0, b,
		0, 0, 0, 1, 0,
	}
}

// SaturationMatrix computes mix(luma, c, s): 0 is grayscale, 1 identity,
// above 1 oversaturates.
func SaturationMatrix(s float32) ColorMatrix {
	inv := 1 - s
	return ColorMatrix{
		LumaR*inv + s, LumaG * inv, LumaB * inv, 0, 0,
		LumaR * inv, LumaG*inv + s, LumaB * inv, 0, 0,
		LumaR * inv, LumaG * inv, LumaB*inv + s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// ToneMatrix composes contrast, then brightness, then saturation.
func ToneMatrix(brightness, contrast, saturation float32) ColorMatrix {
	return ContrastMatrix(contrast).
		Then(BrightnessMatrix(brightness)).
		Then(SaturationMatrix(saturation))
}

// Then returns the matrix that applies m first and n second.
func (m ColorMatrix) Then(n ColorMatrix) ColorMatrix {
	var out ColorMatrix
	for r := 0; r < 4; r++ {
		for c := 0; c < 5; c++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += n[r*5+k] * m[k*5+c]
			}
			if c == 4 {
				sum += n[r*5+4]
			}
			out[r*5+c] = sum
		}
	}
	return out
}

// Apply transforms one color. The result is not clamped.
func (m *ColorMatrix) Apply(r, g, b, a float32) (float32, float32, float32, float32) {
	return m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4],
		m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9],
		m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14],
		m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]
}
