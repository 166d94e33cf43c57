package cube

// Sample looks up the color (r, g, b) in the table with trilinear
// interpolation. Inputs are clamped to [0, 1] and mapped onto the grid so
// that 0 and 1 hit the first and last samples exactly.
//
// The table must be valid; see Validate.
func (t *Table) Sample(r, g, b float32) (float32, float32, float32) {
	n := t.Size
	fr, r0, r1 := gridPos(r, n)
	fg, g0, g1 := gridPos(g, n)
	fb, b0, b1 := gridPos(b, n)

	var out [3]float32
	for c := 0; c < 3; c++ {
		c000 := t.at(r0, g0, b0, c)
		c100 := t.at(r1, g0, b0, c)
		c010 := t.at(r0, g1, b0, c)
		c110 := t.at(r1, g1, b0, c)
		c001 := t.at(r0, g0, b1, c)
		c101 := t.at(r1, g0, b1, c)
		c011 := t.at(r0, g1, b1, c)
		c111 := t.at(r1, g1, b1, c)

		c00 := lerp(c000, c100, fr)
		c10 := lerp(c010, c110, fr)
		c01 := lerp(c001, c101, fr)
		c11 := lerp(c011, c111, fr)

		out[c] = lerp(lerp(c00, c10, fg), lerp(c01, c11, fg), fb)
	}
	return out[0], out[1], out[2]
}

func (t *Table) at(r, g, b, c int) float32 {
	return t.Data[((b*t.Size+g)*t.Size+r)*3+c]
}

// gridPos returns the fractional offset and the two neighboring grid
// indices for v along an axis of n samples.
func gridPos(v float32, n int) (float32, int, int) {
	if v != v || v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	x := v * float32(n-1)
	i0 := int(x)
	if i0 >= n-1 {
		return 0, n - 1, n - 1
	}
	return x - float32(i0), i0, i0 + 1
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
